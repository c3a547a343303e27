// Package parser turns model output into structured values.
//
// The Parser extracts code blocks, JSON, YAML, markdown sections, lists and
// XML-style tags from free text:
//
//	p := parser.NewParser()
//	resp := p.Parse(llmOutput)
//	for _, block := range resp.CodeBlocks {
//	    fmt.Printf("%s:\n%s\n", block.Language, block.Content)
//	}
//
// The same extractors are available as pipeline stages that accept a
// *provider.Response, a prompt.Prompt or a string:
//
//	chain := pipeline.MustCompose(tmpl.Stage(), chains.Model(client), parser.JSON())
package parser
