package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/chains"
	"github.com/randalmurphal/promptchain/pipeline"
)

var parallelPrompts = map[string]string{
	"summary":   "Summarize the following topic in three sentences.\n\nTopic: {{input}}",
	"questions": "Write three insightful questions a curious reader would ask about the following topic.\n\nTopic: {{input}}",
	"terms":     "List the five most important key terms for the following topic, one per line with a short definition.\n\nTopic: {{input}}",
}

const synthesizePrompt = `Combine the research below into one short briefing on "{{input}}".

Summary:
{{summary}}

Open questions:
{{questions}}

Key terms:
{{terms}}`

func newParallelCmd(a *app) *cobra.Command {
	var noSynth bool
	cmd := &cobra.Command{
		Use:   "parallel [topic...]",
		Short: "Research a topic with independent prompts run concurrently",
		Long: `Run a summary, question and key-term prompt concurrently on the worker
pool, then combine their outputs in a final synthesis call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			branches := make(map[string]pipeline.Stage, len(parallelPrompts))
			for name, src := range parallelPrompts {
				p, err := a.llm(src)
				if err != nil {
					return err
				}
				branches[name] = p.WithName(name)
			}
			fanout, err := pipeline.Parallel(branches, pipeline.WithPoolSize(a.cfg.Parallel.PoolSize))
			if err != nil {
				return err
			}
			stages := []pipeline.Stage{
				pipeline.Lambda(func(input any) any {
					return pipeline.Values{chains.InputKey: input}
				}),
				pipeline.Assign(map[string]pipeline.Stage{"research": fanout}),
			}
			if !noSynth {
				synth, err := a.llm(synthesizePrompt)
				if err != nil {
					return err
				}
				stages = append(stages, pipeline.Assign(map[string]pipeline.Stage{
					"briefing": pipeline.MustCompose(pipeline.StageFunc(flattenResearch), synth),
				}))
			}
			p, err := pipeline.Compose(stages...)
			if err != nil {
				return err
			}

			out, err := p.WithName("parallel research").Invoke(cmd.Context(), text)
			if err != nil {
				return err
			}
			vals := out.(pipeline.Values)
			research := vals["research"].(pipeline.Values)

			w := cmd.OutOrStdout()
			for _, name := range research.Keys() {
				heading(w, name)
				fmt.Fprintln(w, research[name])
				fmt.Fprintln(w)
			}
			if briefing, ok := vals["briefing"]; ok {
				heading(w, "briefing")
				fmt.Fprintln(w, briefing)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSynth, "no-synthesis", false, "skip the final synthesis call")
	return cmd
}

// flattenResearch lifts the parallel branch outputs to the top level so the
// synthesis template can reference them directly.
func flattenResearch(_ context.Context, input any) (any, error) {
	vals, ok := pipeline.AsValues(input)
	if !ok {
		return nil, &pipeline.TypeError{Stage: "flatten research", Want: "pipeline.Values", Got: fmt.Sprintf("%T", input)}
	}
	out := vals.Clone()
	if research, ok := out["research"].(pipeline.Values); ok {
		delete(out, "research")
		for k, v := range research {
			out[k] = v
		}
	}
	return out, nil
}
