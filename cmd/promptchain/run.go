package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/chains"
	"github.com/randalmurphal/promptchain/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		vars   []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "run <chain> [input...]",
		Short: "Run a chain from the prompt library",
		Long: `Run a chain defined in the prompt library. Each step renders a prompt,
calls the model and stores the reply under the step's output key; later
steps can reference earlier outputs. The input text is bound to "input".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.library()
			if err != nil {
				return err
			}
			def, err := lib.Chain(args[0])
			if err != nil {
				return err
			}
			client, err := a.model()
			if err != nil {
				return err
			}
			p, err := chains.FromDefinition(lib, args[0], client, chains.WithTracker(a.tracker))
			if err != nil {
				return err
			}

			input, err := parseVars(vars)
			if err != nil {
				return err
			}
			if len(args) > 1 || len(vars) == 0 {
				text, err := inputText(cmd, args[1:])
				if err != nil {
					return err
				}
				input[chains.InputKey] = text
			}

			out, err := p.Invoke(cmd.Context(), input)
			if err != nil {
				return err
			}
			vals, _ := pipeline.AsValues(out)

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(vals)
			}
			for _, step := range def.Steps {
				heading(w, step.Output)
				fmt.Fprintln(w, vals[step.Output])
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print every output as JSON")
	return cmd
}

func parseVars(pairs []string) (pipeline.Values, error) {
	vals := make(pipeline.Values, len(pairs)+1)
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q: want key=value", kv)
		}
		vals[k] = v
	}
	return vals, nil
}
