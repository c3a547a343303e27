// Package pipeline composes named stages into a single callable.
//
// A Stage maps an input (usually Values, a mapping of named values) to an
// output. A Pipeline folds its input through an ordered list of stages, feeding
// each stage's output to the next. Pipelines are themselves stages, so they
// nest freely.
//
// # Composition
//
//	p, err := pipeline.Compose(
//	    tmpl.Stage(),                 // Values -> prompt.Prompt
//	    chains.Model(client),         // prompt.Prompt -> *provider.Response
//	    parser.String(),              // *provider.Response -> string
//	)
//	out, err := p.Invoke(ctx, pipeline.Values{"text": input})
//
// Compose fails with a *ConfigurationError when given no stages. Invoke stops at
// the first failing stage and returns a *StageError carrying the stage index and
// the cause; no later stage runs.
//
// # Branching
//
// Branch evaluates predicates in order and delegates to the first match:
//
//	router, err := pipeline.Branch([]pipeline.Route{
//	    {When: pipeline.Equals("decision", "booker"), Then: booker},
//	    {When: pipeline.Equals("decision", "info"), Then: info},
//	}, unclear)
//
// Predicates after the first match are never evaluated.
//
// # Parallel
//
// Parallel runs independent stages against the same input on a bounded worker
// pool and joins their outputs into one Values keyed by branch name:
//
//	fanout, err := pipeline.Parallel(map[string]pipeline.Stage{
//	    "summary":   summarize,
//	    "questions": questions,
//	    "topic":     pipeline.Passthrough(),
//	})
//
// Stages must not mutate their input; Parallel hands the same value to every
// branch.
package pipeline
