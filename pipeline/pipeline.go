package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/randalmurphal/promptchain/pipeline")

// Pipeline is an ordered, immutable sequence of stages.
// A Pipeline holds no per-invocation state and is safe for concurrent use as
// long as its stages are.
type Pipeline struct {
	stages []Stage
	name   string
}

// Compose builds a pipeline from the given stages.
// Returns a *ConfigurationError if no stages are given or any stage is nil.
func Compose(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, &ConfigurationError{Reason: "pipeline requires at least one stage"}
	}
	for i, s := range stages {
		if s == nil {
			return nil, &ConfigurationError{Reason: "stage " + strconv.Itoa(i) + " is nil"}
		}
	}
	return &Pipeline{stages: slices.Clone(stages)}, nil
}

// MustCompose is like Compose but panics on error.
// Use only for pipelines assembled from static, known-good stages.
func MustCompose(stages ...Stage) *Pipeline {
	p, err := Compose(stages...)
	if err != nil {
		panic(err)
	}
	return p
}

// Invoke folds input through every stage in order.
//
// The first stage error stops the pipeline and is returned as a *StageError;
// nothing is retried or recovered. The context is checked before each stage.
// Invoking a nil or zero Pipeline returns a *ConfigurationError.
func (p *Pipeline) Invoke(ctx context.Context, input any) (any, error) {
	if p == nil || len(p.stages) == 0 {
		return nil, &ConfigurationError{Reason: "pipeline has no stages"}
	}

	ctx, span := tracer.Start(ctx, p.spanName())
	defer span.End()
	span.SetAttributes(attribute.Int("pipeline.stages", len(p.stages)))

	current := input
	for i, stage := range p.stages {
		name := stageName(stage)
		if err := ctx.Err(); err != nil {
			return nil, p.fail(span, &StageError{Index: i, Name: name, Err: err})
		}

		out, err := p.runStage(ctx, i, name, stage, current)
		if err != nil {
			return nil, p.fail(span, &StageError{Index: i, Name: name, Err: err})
		}
		current = out
	}
	return current, nil
}

func (p *Pipeline) runStage(ctx context.Context, index int, name string, stage Stage, input any) (any, error) {
	ctx, span := tracer.Start(ctx, "stage "+name)
	defer span.End()
	span.SetAttributes(attribute.Int("stage.index", index))

	start := time.Now()
	out, err := stage.Invoke(ctx, input)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("pipeline stage failed",
			slog.String("stage", name),
			slog.Int("index", index),
			slog.Duration("duration", elapsed),
			slog.Any("error", err))
		return nil, err
	}
	slog.Debug("pipeline stage completed",
		slog.String("stage", name),
		slog.Int("index", index),
		slog.Duration("duration", elapsed))
	return out, nil
}

func (p *Pipeline) fail(span trace.Span, err *StageError) error {
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Then returns a new pipeline with stages appended. p is not modified.
// Nil stages are ignored; a nil p is treated as an empty pipeline.
func (p *Pipeline) Then(stages ...Stage) *Pipeline {
	out := &Pipeline{}
	if p != nil {
		out.name, out.stages = p.name, slices.Clone(p.stages)
	}
	for _, s := range stages {
		if s != nil {
			out.stages = append(out.stages, s)
		}
	}
	return out
}

// WithName returns a copy of the pipeline carrying a display name.
func (p *Pipeline) WithName(name string) *Pipeline {
	if p == nil {
		return &Pipeline{name: name}
	}
	return &Pipeline{name: name, stages: p.stages}
}

// Name implements the stage naming used in errors and spans.
func (p *Pipeline) Name() string {
	if p == nil || p.name == "" {
		return "pipeline"
	}
	return p.name
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.stages)
}

// Stages returns a copy of the stage list.
func (p *Pipeline) Stages() []Stage {
	if p == nil {
		return nil
	}
	return slices.Clone(p.stages)
}

func (p *Pipeline) spanName() string {
	return "pipeline " + p.Name()
}

var _ Stage = (*Pipeline)(nil)
