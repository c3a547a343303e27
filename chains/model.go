package chains

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/usage"
)

// ModelOption configures a Model stage.
type ModelOption func(*modelConfig)

type modelConfig struct {
	opts    provider.Options
	tools   []provider.Tool
	tracker *usage.Tracker
}

// WithModel overrides the client's configured model.
func WithModel(model string) ModelOption {
	return func(c *modelConfig) { c.opts.Model = model }
}

// WithMaxTokens limits the response length.
func WithMaxTokens(n int) ModelOption {
	return func(c *modelConfig) { c.opts.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ModelOption {
	return func(c *modelConfig) { c.opts.Temperature = t }
}

// WithSystemPrompt sets a system prompt used when the input carries none.
func WithSystemPrompt(s string) ModelOption {
	return func(c *modelConfig) { c.opts.SystemPrompt = s }
}

// WithStopSequences ends generation at any of the given sequences.
func WithStopSequences(seqs ...string) ModelOption {
	return func(c *modelConfig) { c.opts.StopSequences = seqs }
}

// WithTools offers tool definitions to the model.
func WithTools(tools ...provider.Tool) ModelOption {
	return func(c *modelConfig) { c.tools = tools }
}

// WithTracker records token usage of every call on t.
func WithTracker(t *usage.Tracker) ModelOption {
	return func(c *modelConfig) { c.tracker = t }
}

// Model returns a stage that sends its input to client and emits the
// *provider.Response. Accepted inputs are prompt.Prompt, string (a single
// user turn), []provider.Message and provider.Request.
func Model(client provider.Client, opts ...ModelOption) pipeline.Stage {
	cfg := &modelConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return pipeline.Named("model", pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		req, err := toRequest(input)
		if err != nil {
			return nil, err
		}
		system := req.SystemPrompt
		cfg.opts.Apply(&req)
		if system != "" {
			req.SystemPrompt = system
		}
		if len(cfg.tools) > 0 && len(req.Tools) == 0 {
			req.Tools = cfg.tools
		}

		resp, err := client.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		if cfg.tracker != nil {
			model := resp.Model
			if model == "" {
				model = req.Model
			}
			cfg.tracker.Record(model, resp.Usage)
		}
		slog.Debug("model call complete",
			slog.String("provider", client.Provider()),
			slog.String("model", resp.Model),
			slog.Int("input_tokens", resp.Usage.InputTokens),
			slog.Int("output_tokens", resp.Usage.OutputTokens),
			slog.Duration("duration", resp.Duration),
		)
		return resp, nil
	}))
}

func toRequest(input any) (provider.Request, error) {
	switch v := input.(type) {
	case prompt.Prompt:
		return v.Request(), nil
	case *prompt.Prompt:
		if v == nil {
			break
		}
		return v.Request(), nil
	case string:
		return provider.Request{Messages: []provider.Message{provider.NewTextMessage(provider.RoleUser, v)}}, nil
	case []provider.Message:
		return provider.Request{Messages: append([]provider.Message(nil), v...)}, nil
	case provider.Request:
		return v, nil
	case *provider.Request:
		if v == nil {
			break
		}
		return *v, nil
	}
	return provider.Request{}, &pipeline.TypeError{
		Stage: "model",
		Want:  "prompt.Prompt, string, []provider.Message or provider.Request",
		Got:   fmt.Sprintf("%T", input),
	}
}
