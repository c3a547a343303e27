package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/provider"
)

const textReply = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [{"type": "text", "text": "Paris"}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 3}
}`

const toolReply = `{
  "id": "msg_02",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "weather", "input": {"city": "Oslo"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 20, "output_tokens": 8}
}`

// server records the last request body and answers with status/body.
func server(t *testing.T, status int, body string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		if got != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{Model: "claude-test", APIKey: "test-key", BaseURL: url, MaxTokens: 256})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	_, err := New(Options{Model: "m"})
	assert.ErrorIs(t, err, provider.ErrCredentialsNotFound)
}

func TestNew_KeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")
	c, err := New(Options{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Provider())
	assert.Equal(t, 1024, c.opts.MaxTokens)
}

func TestComplete_Text(t *testing.T) {
	var body map[string]any
	srv := server(t, http.StatusOK, textReply, &body)
	c := newTestClient(t, srv.URL)

	resp, err := c.Complete(context.Background(), provider.Request{
		SystemPrompt: "Be brief.",
		Messages:     []provider.Message{provider.NewTextMessage(provider.RoleUser, "Capital of France?")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Paris", resp.Content)
	assert.Equal(t, provider.FinishStop, resp.FinishReason)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, provider.TokenUsage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15}, resp.Usage)

	assert.Equal(t, "claude-test", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "Be brief.", system[0].(map[string]any)["text"])
}

func TestComplete_ToolUse(t *testing.T) {
	var body map[string]any
	srv := server(t, http.StatusOK, toolReply, &body)
	c := newTestClient(t, srv.URL)

	resp, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{provider.NewTextMessage(provider.RoleUser, "Weather in Oslo?")},
		Tools: []provider.Tool{{
			Name:        "weather",
			Description: "Current weather for a city",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, provider.FinishToolCalls, resp.FinishReason)
	assert.Equal(t, "Let me check.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "weather", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Oslo"}`, string(resp.ToolCalls[0].Arguments))

	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, "weather", tools[0].(map[string]any)["name"])
}

func TestComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		sentinel  error
		transient bool
		quota     bool
	}{
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`,
			sentinel:  provider.ErrRateLimited,
			transient: true,
		},
		{
			name:      "overloaded",
			status:    529,
			body:      `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
			sentinel:  provider.ErrUnavailable,
			transient: true,
		},
		{
			name:      "server error",
			status:    http.StatusInternalServerError,
			body:      `{"type":"error","error":{"type":"api_error","message":"boom"}}`,
			sentinel:  provider.ErrUnavailable,
			transient: true,
		},
		{
			name:     "credit exhausted",
			status:   http.StatusBadRequest,
			body:     `{"type":"error","error":{"type":"invalid_request_error","message":"Your credit balance is too low to access the API."}}`,
			sentinel: provider.ErrQuotaExceeded,
			quota:    true,
		},
		{
			name:      "rate limit mentioning quota",
			status:    http.StatusTooManyRequests,
			body:      `{"type":"error","error":{"type":"rate_limit_error","message":"Exceeded your per-minute rate limit quota"}}`,
			sentinel:  provider.ErrRateLimited,
			transient: true,
		},
		{
			name:      "outage mentioning billing",
			status:    http.StatusServiceUnavailable,
			body:      `{"type":"error","error":{"type":"api_error","message":"billing service temporarily unavailable"}}`,
			sentinel:  provider.ErrUnavailable,
			transient: true,
		},
		{
			name:     "payment required",
			status:   http.StatusPaymentRequired,
			body:     `{"type":"error","error":{"type":"billing_error","message":"payment required"}}`,
			sentinel: provider.ErrQuotaExceeded,
			quota:    true,
		},
		{
			name:     "forbidden billing",
			status:   http.StatusForbidden,
			body:     `{"type":"error","error":{"type":"permission_error","message":"Billing is disabled for this organization"}}`,
			sentinel: provider.ErrQuotaExceeded,
			quota:    true,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`,
			sentinel: provider.ErrCredentialsNotFound,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"type":"error","error":{"type":"invalid_request_error","message":"messages: field required"}}`,
			sentinel: provider.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := server(t, tt.status, tt.body, nil)
			c := newTestClient(t, srv.URL)

			_, err := c.Complete(context.Background(), provider.Request{
				Messages: []provider.Message{provider.NewTextMessage(provider.RoleUser, "hi")},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.transient, provider.IsTransient(err))
			assert.Equal(t, tt.quota, provider.IsQuota(err))
		})
	}
}

func TestComplete_InvalidRequest(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Complete(context.Background(), provider.Request{})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.False(t, provider.IsTransient(err))
}

func TestToMessages(t *testing.T) {
	system, msgs, err := toMessages([]provider.Message{
		provider.NewTextMessage(provider.RoleSystem, "extra rules"),
		provider.NewTextMessage(provider.RoleUser, "q"),
		{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{
			{ID: "a", Name: "one", Arguments: json.RawMessage(`{}`)},
			{ID: "b", Name: "two", Arguments: json.RawMessage(`{}`)},
		}},
		provider.NewToolResult("a", "1", false),
		provider.NewToolResult("b", "failed", true),
		provider.NewTextMessage(provider.RoleUser, "thanks"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"extra rules"}, system)
	// user, assistant, merged tool results, user
	require.Len(t, msgs, 4)
	assert.Len(t, msgs[2].Content, 2)

	_, _, err = toMessages([]provider.Message{{Role: provider.RoleTool, Content: "orphan"}})
	assert.Error(t, err)

	_, _, err = toMessages([]provider.Message{{Role: "robot", Content: "x"}})
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	srv := server(t, http.StatusOK, textReply, nil)
	reg := provider.NewRegistry()
	Register(reg)

	cfg := provider.DefaultConfig().WithProvider(ProviderName).WithModel("claude-test")
	cfg.APIKey = "k"
	cfg.BaseURL = srv.URL

	client, err := reg.New(cfg)
	require.NoError(t, err)
	out, err := provider.Generate(context.Background(), client, "hi", provider.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)
}
