package chains

import (
	"context"
	"fmt"

	"github.com/randalmurphal/promptchain/pipeline"
)

// Step is one stage of a Sequence. Its output is stored under Output.
type Step struct {
	Output string
	Stage  pipeline.Stage
}

// Sequence returns a pipeline that runs steps in order against a growing
// Values. Each step sees the input plus every earlier output; the final
// Values holds them all. Output keys must be unique and non-empty.
func Sequence(steps ...Step) (*pipeline.Pipeline, error) {
	if len(steps) == 0 {
		return nil, &pipeline.ConfigurationError{Reason: "sequence requires at least one step"}
	}
	seen := make(map[string]bool, len(steps))
	stages := make([]pipeline.Stage, 0, len(steps)+1)
	stages = append(stages, pipeline.Named("sequence input", pipeline.StageFunc(seed)))
	for i, s := range steps {
		if s.Output == "" {
			return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("sequence step %d has no output key", i)}
		}
		if s.Stage == nil {
			return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("sequence step %q has no stage", s.Output)}
		}
		if seen[s.Output] {
			return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("sequence output %q assigned twice", s.Output)}
		}
		seen[s.Output] = true
		stages = append(stages, pipeline.Named(s.Output, pipeline.Assign(map[string]pipeline.Stage{s.Output: s.Stage})))
	}
	return pipeline.Compose(stages...)
}

// MustSequence is like Sequence but panics on error.
func MustSequence(steps ...Step) *pipeline.Pipeline {
	p, err := Sequence(steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// seed lifts a bare string into Values{"input": s}.
func seed(_ context.Context, input any) (any, error) {
	if vals, ok := pipeline.AsValues(input); ok {
		return vals.Clone(), nil
	}
	if s, ok := input.(string); ok {
		return pipeline.Values{InputKey: s}, nil
	}
	return nil, &pipeline.TypeError{Stage: "sequence input", Want: "pipeline.Values or string", Got: fmt.Sprintf("%T", input)}
}

// InputKey is the key a bare string input is stored under by Sequence,
// Router and Reflect.
const InputKey = "input"
