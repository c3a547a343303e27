// Package agent runs a model in a tool-use loop.
//
// An Executor offers the tools in its Registry to the model, dispatches every
// tool call the model makes and feeds the results back until the model
// answers without calling a tool:
//
//	exec := &agent.Executor{Client: client, Tools: reg, MaxTurns: 5}
//	res, err := exec.Run(ctx, "What is 17 * 23?")
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/tools"
	"github.com/randalmurphal/promptchain/truncate"
)

// DefaultMaxTurns bounds model calls when Executor.MaxTurns is zero.
const DefaultMaxTurns = 10

// ErrMaxTurns is returned when the model is still calling tools after the
// last allowed turn.
var ErrMaxTurns = errors.New("agent: max turns exceeded")

// Executor drives the tool-use loop. The zero value is not usable; Client
// is required and Tools may be nil for a tool-less conversation.
type Executor struct {
	Client       provider.Client
	Tools        *tools.Registry
	MaxTurns     int
	SystemPrompt string
	Options      provider.Options
	Logger       *slog.Logger

	// MaxToolOutputTokens caps each tool result fed back to the model. Longer
	// results keep their beginning and end. Zero disables the cap.
	MaxToolOutputTokens int
	// Truncator overrides the truncator used for the cap.
	Truncator *truncate.Truncator
}

// ToolStep records one tool invocation.
type ToolStep struct {
	Call    provider.ToolCall
	Output  string
	IsError bool
}

// Result is the outcome of a run.
type Result struct {
	// Output is the text of the final model turn.
	Output string

	// Messages is the full conversation, including tool turns.
	Messages []provider.Message

	Steps []ToolStep
	Turns int
	Usage provider.TokenUsage
}

// Run starts a conversation with input as the user turn.
func (e *Executor) Run(ctx context.Context, input string) (*Result, error) {
	return e.RunMessages(ctx, []provider.Message{provider.NewTextMessage(provider.RoleUser, input)})
}

// RunMessages continues the conversation in msgs. msgs is not modified.
// On ErrMaxTurns the partial Result is returned alongside the error.
func (e *Executor) RunMessages(ctx context.Context, msgs []provider.Message) (*Result, error) {
	if e.Client == nil {
		return nil, &pipeline.ConfigurationError{Reason: "agent requires a client"}
	}
	maxTurns := e.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{Messages: append([]provider.Message(nil), msgs...)}
	var defs []provider.Tool
	if e.Tools != nil {
		defs = e.Tools.Definitions()
	}

	for res.Turns < maxTurns {
		req := provider.Request{
			SystemPrompt: e.SystemPrompt,
			Messages:     res.Messages,
			Tools:        defs,
		}
		e.Options.Apply(&req)

		resp, err := e.Client.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("agent turn %d: %w", res.Turns+1, err)
		}
		res.Turns++
		res.Usage.Add(resp.Usage)
		res.Messages = append(res.Messages, resp.Message())

		if len(resp.ToolCalls) == 0 {
			res.Output = resp.Content
			return res, nil
		}
		for _, call := range resp.ToolCalls {
			step := e.dispatch(ctx, call)
			logger.Debug("agent tool call",
				slog.Int("turn", res.Turns),
				slog.String("tool", call.Name),
				slog.Bool("error", step.IsError))
			res.Steps = append(res.Steps, step)
			res.Messages = append(res.Messages, provider.NewToolResult(call.ID, step.Output, step.IsError))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return res, fmt.Errorf("%w (%d)", ErrMaxTurns, maxTurns)
}

// dispatch runs one tool call. Failures become error results for the model.
func (e *Executor) dispatch(ctx context.Context, call provider.ToolCall) ToolStep {
	step := ToolStep{Call: call}
	if e.Tools == nil {
		step.Output = fmt.Sprintf("%v: %s", tools.ErrUnknownTool, call.Name)
		step.IsError = true
		return step
	}
	out, err := e.Tools.Dispatch(ctx, call.Name, call.Arguments)
	if err != nil {
		step.Output = err.Error()
		step.IsError = true
		return step
	}
	step.Output = resultText(out)
	if e.MaxToolOutputTokens > 0 {
		tr := e.Truncator
		if tr == nil {
			tr = truncate.New(truncate.KeepEnds)
		}
		step.Output, _ = tr.Truncate(step.Output, e.MaxToolOutputTokens)
	}
	return step
}

// resultText unwraps JSON strings so plain text results reach the model
// without quoting.
func resultText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Stage adapts the executor to a pipeline stage. It accepts a string or
// Values carrying "input" and emits the final output text.
func (e *Executor) Stage() pipeline.Stage {
	return pipeline.Named("agent", pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		var text string
		switch v := input.(type) {
		case string:
			text = v
		default:
			vals, ok := pipeline.AsValues(input)
			if !ok {
				return nil, &pipeline.TypeError{Stage: "agent", Want: "string or pipeline.Values", Got: fmt.Sprintf("%T", input)}
			}
			s, ok := vals.String("input")
			if !ok {
				return nil, &pipeline.KeyError{Key: "input"}
			}
			text = s
		}
		res, err := e.Run(ctx, text)
		if err != nil {
			return nil, err
		}
		return res.Output, nil
	}))
}
