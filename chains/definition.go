package chains

import (
	"fmt"

	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
)

// FromDefinition builds a Sequence from the chain called name in lib. Each
// step renders its prompt, calls client and stores the trimmed reply text
// under the step's output key.
func FromDefinition(lib *prompt.Library, name string, client provider.Client, opts ...ModelOption) (*pipeline.Pipeline, error) {
	def, err := lib.Chain(name)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(def.Steps))
	for _, sd := range def.Steps {
		tmpl, err := lib.Prompt(sd.Prompt)
		if err != nil {
			return nil, fmt.Errorf("chain %q: %w", name, err)
		}
		steps = append(steps, Step{Output: sd.Output, Stage: LLM(tmpl, client, opts...).WithName(sd.Prompt)})
	}
	seq, err := Sequence(steps...)
	if err != nil {
		return nil, fmt.Errorf("chain %q: %w", name, err)
	}
	return seq.WithName(name), nil
}
