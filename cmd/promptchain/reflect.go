package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/chains"
)

const producerPrompt = `You write Python code for the task below.
{{#if critique}}
Your previous attempt:
{{draft}}

A reviewer gave this feedback. Address every point:
{{critique}}
{{/if}}
Task: {{input}}

Reply with only the code.`

const criticPrompt = `You are a senior engineer reviewing code for the task below.
Check correctness, edge cases, style and documentation.
If the code fully meets the task, reply with exactly {{stop}}.
Otherwise list the concrete problems to fix.

Task: {{input}}

Code:
{{draft}}`

func newReflectCmd(a *app) *cobra.Command {
	var (
		maxIter int
		stop    string
	)
	cmd := &cobra.Command{
		Use:   "reflect [task...]",
		Short: "Iteratively draft and critique a solution until a reviewer approves it",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			producer, err := a.llm(producerPrompt)
			if err != nil {
				return err
			}
			critic, err := a.llm(criticPrompt, chains.WithTemperature(0))
			if err != nil {
				return err
			}
			stage, err := chains.Reflect(producer, critic, chains.ReflectConfig{
				MaxIterations: maxIter,
				StopPhrase:    stop,
			})
			if err != nil {
				return err
			}
			out, err := stage.Invoke(cmd.Context(), map[string]any{
				chains.InputKey: text,
				"stop":          stop,
			})
			if err != nil {
				return err
			}
			res := out.(chains.ReflectResult)

			w := cmd.OutOrStdout()
			for i, critique := range res.Critiques {
				heading(w, fmt.Sprintf("Critique %d", i+1))
				fmt.Fprintln(w, critique)
				fmt.Fprintln(w)
			}
			status := color.YellowString("stopped after %d iterations without approval", res.Iterations)
			if res.Approved {
				status = color.GreenString("approved after %d iterations", res.Iterations)
			}
			heading(w, "Final draft")
			fmt.Fprintln(w, res.Output)
			fmt.Fprintln(w)
			fmt.Fprintln(w, status)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxIter, "max-iterations", 3, "maximum number of drafts")
	cmd.Flags().StringVar(&stop, "stop", chains.DefaultStopPhrase, "phrase the critic uses to approve a draft")
	return cmd
}
