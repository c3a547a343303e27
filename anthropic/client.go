package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/randalmurphal/promptchain/provider"
)

// ProviderName is the name this package registers under.
const ProviderName = "anthropic"

// APIKeyEnv is consulted when Options.APIKey is empty.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// Options configures a Client.
type Options struct {
	Model        string
	APIKey       string
	BaseURL      string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Client is a provider.Client backed by the Anthropic Messages API.
type Client struct {
	api  sdk.Client
	opts Options
}

// New creates a Client. The API key falls back to ANTHROPIC_API_KEY.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(APIKeyEnv)
	}
	if opts.APIKey == "" {
		return nil, provider.NewError(ProviderName, "new", provider.ErrCredentialsNotFound, false)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	return &Client{api: sdk.NewClient(reqOpts...), opts: opts}, nil
}

// Complete implements provider.Client.
func (c *Client) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, provider.NewError(ProviderName, "complete", fmt.Errorf("%w: %w", provider.ErrInvalidRequest, err), false)
	}

	start := time.Now()
	c.opts.Logger.Debug("Anthropic API call starting",
		slog.String("model", string(params.Model)),
		slog.Int64("max_tokens", params.MaxTokens),
		slog.Int("messages", len(params.Messages)))

	msg, err := c.api.Messages.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		c.opts.Logger.Debug("Anthropic API call failed", slog.Duration("duration", duration), slog.Any("error", err))
		return nil, classify(ctx, err)
	}
	c.opts.Logger.Debug("Anthropic API call completed",
		slog.Duration("duration", duration),
		slog.String("stop_reason", string(msg.StopReason)))

	resp := fromMessage(msg)
	resp.Duration = duration
	return resp, nil
}

// Provider implements provider.Client.
func (c *Client) Provider() string {
	return ProviderName
}

// Close implements provider.Client. The HTTP client needs no teardown.
func (c *Client) Close() error {
	return nil
}

func (c *Client) buildParams(req provider.Request) (sdk.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = c.opts.Model
	}
	if model == "" {
		return sdk.MessageNewParams{}, fmt.Errorf("model is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.opts.MaxTokens
	}

	system, msgs, err := toMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	if len(msgs) == 0 {
		return sdk.MessageNewParams{}, fmt.Errorf("at least one message is required")
	}
	if req.SystemPrompt != "" {
		system = append([]string{req.SystemPrompt}, system...)
	} else if c.opts.SystemPrompt != "" {
		system = append([]string{c.opts.SystemPrompt}, system...)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = []sdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	temp := req.Temperature
	if temp == 0 {
		temp = c.opts.Temperature
	}
	if temp > 0 {
		params.Temperature = sdk.Float(temp)
	}
	if len(req.StopSequences) > 0 {
		params.StopSequences = req.StopSequences
	}
	if len(req.Tools) > 0 {
		tools, err := toTools(req.Tools)
		if err != nil {
			return sdk.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// toMessages converts the conversation. System turns are lifted out and
// consecutive tool results are merged into a single user turn.
func toMessages(in []provider.Message) ([]string, []sdk.MessageParam, error) {
	var system []string
	out := make([]sdk.MessageParam, 0, len(in))
	var pending []sdk.ContentBlockParamUnion

	flush := func() {
		if len(pending) > 0 {
			out = append(out, sdk.NewUserMessage(pending...))
			pending = nil
		}
	}

	for i, m := range in {
		switch m.Role {
		case provider.RoleSystem:
			system = append(system, m.Content)
		case provider.RoleTool:
			if m.ToolCallID == "" {
				return nil, nil, fmt.Errorf("message %d: tool result without tool_call_id", i)
			}
			pending = append(pending, sdk.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError))
		case provider.RoleUser:
			flush()
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case provider.RoleAssistant:
			flush()
			blocks := make([]sdk.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				var input any = map[string]any{}
				if len(call.Arguments) > 0 {
					input = call.Arguments
				}
				blocks = append(blocks, sdk.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) == 0 {
				return nil, nil, fmt.Errorf("message %d: empty assistant message", i)
			}
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
	}
	flush()
	return system, out, nil
}

func toTools(tools []provider.Tool) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("tool %s: parameters: %w", t.Name, err)
			}
		}
		toolParam := sdk.ToolParam{
			Name:        t.Name,
			Description: sdk.Opt(t.Description),
			InputSchema: sdk.ToolInputSchemaParam{
				Type:       "object",
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}
		out = append(out, sdk.ToolUnionParam{OfTool: &toolParam})
	}
	return out, nil
}

func fromMessage(msg *sdk.Message) *provider.Response {
	resp := &provider.Response{
		Model: string(msg.Model),
		Usage: provider.TokenUsage{
			InputTokens:              int(msg.Usage.InputTokens),
			OutputTokens:             int(msg.Usage.OutputTokens),
			TotalTokens:              int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
			CacheCreationInputTokens: int(msg.Usage.CacheCreationInputTokens),
			CacheReadInputTokens:     int(msg.Usage.CacheReadInputTokens),
		},
	}

	var text strings.Builder
	for _, blk := range msg.Content {
		switch blk.Type {
		case "text":
			text.WriteString(blk.AsText().Text)
		case "tool_use":
			tu := blk.AsToolUse()
			resp.ToolCalls = append(resp.ToolCalls, provider.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: json.RawMessage(tu.Input),
			})
		}
	}
	resp.Content = text.String()

	switch msg.StopReason {
	case sdk.StopReasonMaxTokens:
		resp.FinishReason = provider.FinishLength
	case sdk.StopReasonToolUse:
		resp.FinishReason = provider.FinishToolCalls
	default:
		resp.FinishReason = provider.FinishStop
	}
	return resp
}

var _ provider.Client = (*Client)(nil)
