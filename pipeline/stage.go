package pipeline

import (
	"context"
	"fmt"
	"reflect"
)

// Stage is one transformation step.
// Implementations must not mutate their input and must be safe to invoke from
// multiple goroutines.
type Stage interface {
	Invoke(ctx context.Context, input any) (any, error)
}

// StageFunc adapts an ordinary function to a Stage.
type StageFunc func(ctx context.Context, input any) (any, error)

// Invoke calls f(ctx, input).
func (f StageFunc) Invoke(ctx context.Context, input any) (any, error) {
	return f(ctx, input)
}

// namer is implemented by stages that carry a display name.
type namer interface {
	Name() string
}

type namedStage struct {
	name  string
	stage Stage
}

// Named attaches a name to a stage. The name appears in StageError, log
// records and trace spans.
func Named(name string, stage Stage) Stage {
	return &namedStage{name: name, stage: stage}
}

func (n *namedStage) Name() string { return n.name }

func (n *namedStage) Invoke(ctx context.Context, input any) (any, error) {
	return n.stage.Invoke(ctx, input)
}

// Func builds a named stage with typed input and output boundaries.
// An input whose dynamic type is not I fails with *TypeError before fn runs.
// A nil input is accepted only when I is an interface, pointer, map or slice
// type, and is passed to fn as the zero value.
func Func[I, O any](name string, fn func(ctx context.Context, in I) (O, error)) Stage {
	want := reflect.TypeFor[I]()
	return Named(name, StageFunc(func(ctx context.Context, input any) (any, error) {
		if input == nil && nilable(want) {
			var zero I
			return fn(ctx, zero)
		}
		in, ok := input.(I)
		if !ok {
			return nil, &TypeError{Stage: name, Want: want.String(), Got: fmt.Sprintf("%T", input)}
		}
		return fn(ctx, in)
	}))
}

// Lambda wraps an infallible, context-free function.
func Lambda(fn func(input any) any) Stage {
	return StageFunc(func(_ context.Context, input any) (any, error) {
		return fn(input), nil
	})
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// stageName returns the stage's display name, falling back to its type.
func stageName(s Stage) string {
	if n, ok := s.(namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
