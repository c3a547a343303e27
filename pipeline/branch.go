package pipeline

import (
	"context"
	"log/slog"
	"strconv"
)

// Predicate decides whether a route applies to the current input.
// Predicates must be pure; they may be skipped entirely once an earlier route
// has matched.
type Predicate func(input any) bool

// Route pairs a predicate with the stage to run when it matches.
type Route struct {
	Name string
	When Predicate
	Then Stage
}

type branchStage struct {
	routes []Route
	def    Stage
}

// Branch builds a pipeline that evaluates the routes' predicates in order and
// invokes the stage of the first match, or def when nothing matches.
// Evaluation short-circuits: predicates after the first match are never
// called. Zero routes is valid; every input then goes to def.
func Branch(routes []Route, def Stage) (*Pipeline, error) {
	if def == nil {
		return nil, &ConfigurationError{Reason: "branch requires a default stage"}
	}
	for i, r := range routes {
		if r.When == nil {
			return nil, &ConfigurationError{Reason: "branch route " + strconv.Itoa(i) + " has no predicate"}
		}
		if r.Then == nil {
			return nil, &ConfigurationError{Reason: "branch route " + strconv.Itoa(i) + " has no stage"}
		}
	}
	b := &branchStage{routes: append([]Route(nil), routes...), def: def}
	return Compose(Named("branch", b))
}

// MustBranch is like Branch but panics on error.
func MustBranch(routes []Route, def Stage) *Pipeline {
	p, err := Branch(routes, def)
	if err != nil {
		panic(err)
	}
	return p
}

func (b *branchStage) Invoke(ctx context.Context, input any) (any, error) {
	stage, route := b.selectRoute(input)
	slog.Debug("branch selected", slog.String("route", route))
	return stage.Invoke(ctx, input)
}

func (b *branchStage) selectRoute(input any) (Stage, string) {
	for i, r := range b.routes {
		if r.When(input) {
			if r.Name != "" {
				return r.Then, r.Name
			}
			return r.Then, "route " + strconv.Itoa(i)
		}
	}
	return b.def, "default"
}
