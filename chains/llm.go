package chains

import (
	"github.com/randalmurphal/promptchain/parser"
	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
)

// LLM composes tmpl, a Model stage and parser.String into one pipeline:
// Values in, response text out.
func LLM(tmpl *prompt.ChatTemplate, client provider.Client, opts ...ModelOption) *pipeline.Pipeline {
	return pipeline.MustCompose(tmpl.Stage(), Model(client, opts...), parser.String())
}
