package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/prompt"
)

// library loads the configured prompt directory.
func (a *app) library() (*prompt.Library, error) {
	lib := prompt.NewLibrary()
	if err := lib.LoadDir(a.cfg.Prompts.Dir); err != nil {
		return nil, fmt.Errorf("load prompts from %s: %w", a.cfg.Prompts.Dir, err)
	}
	return lib, nil
}

func newPromptsCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the prompts and chains in the prompt library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch || a.cfg.Prompts.Watch {
				return a.watchPrompts(cmd)
			}
			lib, err := a.library()
			if err != nil {
				return err
			}
			listLibrary(cmd, lib)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload and relist whenever a library file changes")
	return cmd
}

func (a *app) watchPrompts(cmd *cobra.Command) error {
	lib, err := a.library()
	if err != nil {
		return err
	}
	listLibrary(cmd, lib)
	dir := a.cfg.Prompts.Dir
	return lib.Watch(cmd.Context(), dir, func(err error) {
		if err != nil {
			a.logger.Warn("prompt library reload failed", slog.String("dir", dir), slog.Any("error", err))
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("-- %s reloaded --", dir))
		listLibrary(cmd, lib)
	})
}

func listLibrary(cmd *cobra.Command, lib *prompt.Library) {
	w := cmd.OutOrStdout()
	heading(w, "Prompts")
	for _, name := range lib.Names() {
		fmt.Fprintf(w, "  %-20s %s\n", color.GreenString(name), lib.Describe(name))
	}
	heading(w, "Chains")
	for _, name := range lib.ChainNames() {
		def, err := lib.Chain(name)
		if err != nil {
			continue
		}
		steps := make([]string, len(def.Steps))
		for i, s := range def.Steps {
			steps[i] = s.Prompt + "→" + s.Output
		}
		fmt.Fprintf(w, "  %-20s %s %v\n", color.GreenString(name), def.Description, steps)
	}
}
