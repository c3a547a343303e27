// Package promptchain composes LLM calls into pipelines.
//
// Everything is built from one abstraction, the pipeline.Stage: a value that
// maps an input to an output under a context. Prompt templates, model calls,
// output parsers, retrievers and tool-using agents are all stages and compose
// with each other:
//
//   - pipeline: Compose, Branch, Parallel and the Values helpers
//   - prompt: templates with {{variable}} syntax and a file-backed library
//   - provider: the LLM client contract, registry, retry and caching
//   - anthropic: the Anthropic Messages API client
//   - parser: stages extracting text, JSON, code blocks and tags
//   - chains: model stages and the sequence, router and reflect patterns
//   - tools, agent: typed tools and the tool-use loop
//   - retrieval: embeddings, a similarity index and the retriever stage
//   - memory: conversation history, windowing, summaries and session stores
//   - tokens, truncate, usage: counting, trimming and cost tracking
//
// # Quick Start
//
//	client, _ := anthropic.New(anthropic.Options{Model: "claude-sonnet-4-5"})
//	tmpl := prompt.MustFromTemplate("Tell me a joke about {{topic}}")
//	joke := chains.LLM(tmpl, client)
//	out, err := joke.Invoke(ctx, map[string]any{"topic": "bears"})
//
// The promptchain command in cmd/promptchain runs library chains, routing,
// parallel research, reflection, agents and chat from the terminal.
package promptchain
