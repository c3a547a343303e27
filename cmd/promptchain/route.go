package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/chains"
	"github.com/randalmurphal/promptchain/pipeline"
)

const classifyPrompt = `Classify the user's request for a travel assistant.
Reply "booker" if it asks to book flights or hotels, "info" for any other
general question, and "unclear" if it fits neither.
Reply with exactly one word.

Request: {{input}}`

const bookerPrompt = `You are a booking agent. Confirm what you would book for this request,
listing dates, destinations and anything you still need to know.

Request: {{input}}`

const infoPrompt = `You are a helpful travel information agent. Answer concisely.

Question: {{input}}`

// routed tags a handler's output with the decision that selected it.
type routed struct {
	decision string
	output   any
}

func tagged(handler pipeline.Stage) pipeline.Stage {
	return pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		vals, _ := pipeline.AsValues(input)
		decision, _ := vals.String(chains.DecisionKey)
		out, err := handler.Invoke(ctx, input)
		if err != nil {
			return nil, err
		}
		return routed{decision: decision, output: out}, nil
	})
}

func newRouteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route [request...]",
		Short: "Classify a request and delegate it to a specialist prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			classifier, err := a.llm(classifyPrompt, chains.WithMaxTokens(8), chains.WithTemperature(0))
			if err != nil {
				return err
			}
			booker, err := a.llm(bookerPrompt)
			if err != nil {
				return err
			}
			info, err := a.llm(infoPrompt)
			if err != nil {
				return err
			}
			unclear := pipeline.Lambda(func(input any) any {
				vals, _ := pipeline.AsValues(input)
				req, _ := vals.String(chains.InputKey)
				return fmt.Sprintf("I could not tell what you need from %q. Could you rephrase it as a booking or a question?", req)
			})

			router, err := chains.Router(classifier, map[string]pipeline.Stage{
				"booker": tagged(booker),
				"info":   tagged(info),
			}, tagged(unclear))
			if err != nil {
				return err
			}
			out, err := router.Invoke(cmd.Context(), text)
			if err != nil {
				return err
			}
			res := out.(routed)
			w := cmd.OutOrStdout()
			heading(w, "Route: "+res.decision)
			fmt.Fprintln(w, res.output)
			return nil
		},
	}
}
