package chains

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/promptchain/parser"
	"github.com/randalmurphal/promptchain/pipeline"
)

// Keys of the Values passed to Reflect's producer and critic.
const (
	DraftKey    = "draft"
	CritiqueKey = "critique"
)

// DefaultStopPhrase is the critic reply that ends a Reflect loop.
const DefaultStopPhrase = "APPROVED"

// ReflectConfig bounds a Reflect loop.
type ReflectConfig struct {
	// MaxIterations caps producer calls. Zero means 3.
	MaxIterations int

	// StopPhrase ends the loop when it appears in a critique, compared
	// case-insensitively. Empty means DefaultStopPhrase.
	StopPhrase string
}

// ReflectResult is the output of a Reflect stage.
type ReflectResult struct {
	Output     string
	Iterations int
	Critiques  []string
	Approved   bool
}

// String returns the final draft.
func (r ReflectResult) String() string { return r.Output }

// Reflect returns a stage running a generate/critique loop.
//
// Each iteration invokes producer with Values{"input", "draft", "critique"},
// where draft and critique are empty on the first pass, then invokes critic
// with Values{"input", "draft"}. The loop ends when the critique contains the
// stop phrase or MaxIterations drafts have been produced. Both stages must
// return text (a string or *provider.Response). Input may be a string or
// Values carrying "input"; extra keys are passed through.
func Reflect(producer, critic pipeline.Stage, cfg ReflectConfig) (pipeline.Stage, error) {
	if producer == nil || critic == nil {
		return nil, &pipeline.ConfigurationError{Reason: "reflect requires a producer and a critic"}
	}
	if cfg.MaxIterations < 0 {
		return nil, &pipeline.ConfigurationError{Reason: "reflect max iterations must not be negative"}
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 3
	}
	if cfg.StopPhrase == "" {
		cfg.StopPhrase = DefaultStopPhrase
	}
	stop := strings.ToLower(cfg.StopPhrase)

	return pipeline.Named("reflect", pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		seeded, err := seed(ctx, input)
		if err != nil {
			return nil, err
		}
		base := seeded.(pipeline.Values)
		base[DraftKey] = ""
		base[CritiqueKey] = ""

		var res ReflectResult
		for res.Iterations < cfg.MaxIterations {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			draft, err := invokeText(ctx, producer, base.Clone())
			if err != nil {
				return nil, fmt.Errorf("reflect produce %d: %w", res.Iterations+1, err)
			}
			res.Iterations++
			res.Output = draft
			base[DraftKey] = draft

			review := base.Clone()
			delete(review, CritiqueKey)
			critique, err := invokeText(ctx, critic, review)
			if err != nil {
				return nil, fmt.Errorf("reflect critique %d: %w", res.Iterations, err)
			}
			res.Critiques = append(res.Critiques, critique)
			slog.Debug("reflect iteration", slog.Int("iteration", res.Iterations), slog.Int("draft_len", len(draft)))
			if strings.Contains(strings.ToLower(critique), stop) {
				res.Approved = true
				break
			}
			base[CritiqueKey] = critique
		}
		return res, nil
	})), nil
}

// MustReflect is like Reflect but panics on error.
func MustReflect(producer, critic pipeline.Stage, cfg ReflectConfig) pipeline.Stage {
	s, err := Reflect(producer, critic, cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func invokeText(ctx context.Context, stage pipeline.Stage, input pipeline.Values) (string, error) {
	out, err := stage.Invoke(ctx, input)
	if err != nil {
		return "", err
	}
	text, err := parser.Text(out)
	return strings.TrimSpace(text), err
}
