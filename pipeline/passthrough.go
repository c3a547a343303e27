package pipeline

import (
	"context"
	"fmt"
	"slices"
)

// Passthrough returns a stage that forwards its input unchanged.
func Passthrough() Stage {
	return Named("passthrough", StageFunc(func(_ context.Context, input any) (any, error) {
		return input, nil
	}))
}

// Assign returns a stage that runs each field stage against the input Values
// and returns a copy of the input with the results stored under the field
// names. Fields run sequentially in sorted key order.
func Assign(fields map[string]Stage) Stage {
	keys := sortedKeys(fields)
	return Named("assign", StageFunc(func(ctx context.Context, input any) (any, error) {
		vals, ok := AsValues(input)
		if !ok {
			return nil, &TypeError{Stage: "assign", Want: "pipeline.Values", Got: fmt.Sprintf("%T", input)}
		}
		out := vals.Clone()
		for _, k := range keys {
			v, err := fields[k].Invoke(ctx, vals)
			if err != nil {
				return nil, fmt.Errorf("assign %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}))
}

// Map returns a stage that builds a fresh Values from the outputs of the field
// stages, each invoked with the same input. It is the sequential counterpart
// of Parallel.
func Map(fields map[string]Stage) Stage {
	keys := sortedKeys(fields)
	return Named("map", StageFunc(func(ctx context.Context, input any) (any, error) {
		out := make(Values, len(keys))
		for _, k := range keys {
			v, err := fields[k].Invoke(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("map %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}))
}

// Pick returns a stage that extracts one key from the input Values.
func Pick(key string) Stage {
	return Named("pick "+key, StageFunc(func(_ context.Context, input any) (any, error) {
		vals, ok := AsValues(input)
		if !ok {
			return nil, &TypeError{Stage: "pick " + key, Want: "pipeline.Values", Got: fmt.Sprintf("%T", input)}
		}
		v, ok := vals[key]
		if !ok {
			return nil, &KeyError{Key: key}
		}
		return v, nil
	}))
}

func sortedKeys(m map[string]Stage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
