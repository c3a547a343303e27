package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptchain/anthropic"
	"github.com/randalmurphal/promptchain/chains"
	"github.com/randalmurphal/promptchain/config"
	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/telemetry"
	"github.com/randalmurphal/promptchain/usage"
)

// app carries the state shared by every command. It is built in the root
// command's PersistentPreRunE and torn down in PersistentPostRunE.
type app struct {
	configPath string
	verbose    bool
	tier       string
	showUsage  bool

	cfg      *config.Config
	logger   *slog.Logger
	registry *provider.Registry
	tracker  *usage.Tracker
	client   provider.Client
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "promptchain",
		Short:         "Compose and run LLM prompt pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.tier, "tier", "", "model tier: fast, default or thinking (overrides the configured model)")
	flags.BoolVar(&a.showUsage, "usage", false, "print token usage and estimated cost on exit")

	root.AddCommand(
		newRunCmd(a),
		newRouteCmd(a),
		newParallelCmd(a),
		newReflectCmd(a),
		newAgentCmd(a),
		newChatCmd(a),
		newPromptsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.tier != "" {
		tier, err := usage.ParseTier(a.tier)
		if err != nil {
			return err
		}
		cfg.Provider.Model = usage.ModelForTier(tier)
	}
	a.cfg = cfg

	level, _ := config.ParseLevel(cfg.Log.Level)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(a.logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(telemetry.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Writer:      cmd.ErrOrStderr(),
			Logger:      a.logger,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		a.shutdown = shutdown
	}

	a.registry = provider.NewRegistry()
	anthropic.Register(a.registry)
	a.tracker = usage.NewTracker()
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.showUsage && a.tracker != nil {
		printUsage(cmd.OutOrStdout(), a.tracker)
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.shutdown(ctx))
	}
	return errors.Join(errs...)
}

// model returns the configured client, creating it on first use.
func (a *app) model() (provider.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	client, err := a.registry.New(a.cfg.Provider)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("client ready",
		slog.String("provider", client.Provider()),
		slog.String("model", a.cfg.Provider.Model),
		slog.String("tier", usage.TierFor(a.cfg.Provider.Model).String()))
	a.client = client
	return client, nil
}

// llm builds a template | model | string pipeline from a template source.
func (a *app) llm(src string, opts ...chains.ModelOption) (*pipeline.Pipeline, error) {
	client, err := a.model()
	if err != nil {
		return nil, err
	}
	tmpl, err := prompt.FromTemplate(src)
	if err != nil {
		return nil, err
	}
	opts = append([]chains.ModelOption{chains.WithTracker(a.tracker)}, opts...)
	return chains.LLM(tmpl, client, opts...), nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func printUsage(w io.Writer, t *usage.Tracker) {
	total := t.Total()
	if total.Requests == 0 {
		return
	}
	fmt.Fprintln(w, color.CyanString("Usage"))
	summary := t.Summary()
	families := make([]usage.Family, 0, len(summary))
	for f := range summary {
		families = append(families, f)
	}
	slices.Sort(families)
	for _, family := range families {
		u := summary[family]
		fmt.Fprintf(w, "  %-8s %3d requests  %6d in  %6d out\n", family, u.Requests, u.InputTokens, u.OutputTokens)
	}
	fmt.Fprintf(w, "  estimated cost: $%.4f\n", t.EstimatedCost())
}

// inputText joins args, or reads stdin when there are none.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no input: pass text as arguments or on stdin")
	}
	return text, nil
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w, color.New(color.FgCyan, color.Bold).Sprint(title))
}
