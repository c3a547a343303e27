package pipeline

import (
	"context"
	"errors"
	"slices"

	"github.com/alitto/pond/v2"
)

type parallelConfig struct {
	poolSize int
}

// ParallelOption configures a Parallel stage.
type ParallelOption func(*parallelConfig)

// WithPoolSize caps the number of branches executing at once.
// Values <= 0 are ignored.
func WithPoolSize(n int) ParallelOption {
	return func(c *parallelConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

type parallelStage struct {
	keys     []string
	branches map[string]Stage
	pool     pond.ResultPool[any]
}

// Parallel builds a stage that invokes every branch with the same input on a
// fixed-size worker pool, waits for all of them, and returns a Values keyed by
// branch name.
//
// If any branch fails, the remaining branches see a cancelled context and the
// stage returns a *BranchError for the failure. Branches are submitted in
// sorted key order; the order of completion does not affect the result.
func Parallel(branches map[string]Stage, opts ...ParallelOption) (Stage, error) {
	if len(branches) == 0 {
		return nil, &ConfigurationError{Reason: "parallel requires at least one branch"}
	}
	cfg := parallelConfig{poolSize: len(branches)}
	for _, opt := range opts {
		opt(&cfg)
	}

	keys := make([]string, 0, len(branches))
	copied := make(map[string]Stage, len(branches))
	for k, s := range branches {
		if s == nil {
			return nil, &ConfigurationError{Reason: "parallel branch " + k + " is nil"}
		}
		keys = append(keys, k)
		copied[k] = s
	}
	slices.Sort(keys)

	return Named("parallel", &parallelStage{
		keys:     keys,
		branches: copied,
		pool:     pond.NewResultPool[any](cfg.poolSize),
	}), nil
}

// MustParallel is like Parallel but panics on error.
func MustParallel(branches map[string]Stage, opts ...ParallelOption) Stage {
	s, err := Parallel(branches, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (p *parallelStage) Invoke(ctx context.Context, input any) (any, error) {
	branchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := p.pool.NewGroupContext(ctx)
	for _, key := range p.keys {
		stage := p.branches[key]
		group.SubmitErr(func() (any, error) {
			out, err := stage.Invoke(branchCtx, input)
			if err != nil {
				cancel()
				return nil, &BranchError{Key: key, Err: err}
			}
			return out, nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		var branchErr *BranchError
		if errors.As(err, &branchErr) {
			return nil, branchErr
		}
		return nil, err
	}

	joined := make(Values, len(p.keys))
	for i, key := range p.keys {
		joined[key] = results[i]
	}
	return joined, nil
}
