// Package prompt builds chat prompts from templates.
//
// The template engine supports both Go template syntax and a simplified
// Handlebars-like syntax that is automatically converted before execution.
//
// # Syntax
//
// Simple variables use double braces:
//
//	Hello, {{name}}!
//
// Conditionals use #if/#unless and /if,/unless:
//
//	{{#if urgent}}URGENT: {{/if}}{{title}}
//
// Iteration uses #each and /each:
//
//	{{#each items}}{{.}} {{/each}}
//
// Helper functions can be called with arguments:
//
//	{{truncate description 100}}
//	{{bullets findings}}
//
// # Chat templates
//
// A ChatTemplate renders a list of role-tagged message templates into a
// Prompt. As a pipeline stage it maps Values to a Prompt:
//
//	tmpl := prompt.MustFromMessages(
//	    prompt.System("You are a terse assistant."),
//	    prompt.User("Tell me a joke about {{topic}}"),
//	)
//	p, err := tmpl.Format(map[string]any{"topic": "bears"})
//
// # Library
//
// Prompts and chain definitions can live in YAML or TOML files:
//
//	prompts:
//	  joke:
//	    description: One-line joke
//	    template: "Tell me a joke about {{topic}}"
//	chains:
//	  story:
//	    steps:
//	      - prompt: outline
//	        output: outline
//
// Library.Watch reloads them when the files change.
package prompt
