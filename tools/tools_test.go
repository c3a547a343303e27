package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/tools"
)

type addArgs struct {
	A int `json:"a" jsonschema:"description=First operand"`
	B int `json:"b" jsonschema:"description=Second operand"`
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func addTool() *tools.Tool {
	return tools.MustNew("add", "Adds two integers", func(_ context.Context, in addArgs) (int, error) {
		return in.A + in.B, nil
	})
}

func TestNew_ReflectsSchema(t *testing.T) {
	tool, err := tools.New("search", "Searches docs", func(_ context.Context, in searchArgs) ([]string, error) {
		return nil, nil
	})
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tool.Schema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")
	assert.Equal(t, []any{"query"}, schema["required"])

	def := tool.Definition()
	assert.Equal(t, "search", def.Name)
	assert.Equal(t, "Searches docs", def.Description)
	assert.JSONEq(t, string(tool.Schema), string(def.Parameters))
}

func TestNew_Validation(t *testing.T) {
	_, err := tools.New("", "x", func(context.Context, addArgs) (int, error) { return 0, nil })
	assert.Error(t, err)

	_, err = tools.New[addArgs, int]("nil", "x", nil)
	assert.Error(t, err)

	_, err = tools.New("scalar", "x", func(context.Context, string) (string, error) { return "", nil })
	assert.Error(t, err)

	assert.Panics(t, func() {
		tools.MustNew("scalar", "x", func(context.Context, int) (int, error) { return 0, nil })
	})
}

func TestNewRaw(t *testing.T) {
	echo := func(_ context.Context, args json.RawMessage) (json.RawMessage, error) { return args, nil }

	tool, err := tools.NewRaw("echo", "Echoes", json.RawMessage(`{"type":"object"}`), echo)
	require.NoError(t, err)
	out, err := tool.Call(context.Background(), json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(out))

	_, err = tools.NewRaw("echo", "Echoes", json.RawMessage(`{`), echo)
	assert.Error(t, err)
	_, err = tools.NewRaw("echo", "Echoes", json.RawMessage(`{}`), nil)
	assert.Error(t, err)
}

func TestRegistry_Dispatch(t *testing.T) {
	failing := tools.MustNew("fail", "Always fails", func(context.Context, searchArgs) (string, error) {
		return "", errors.New("backend unavailable")
	})
	reg := tools.NewRegistry(addTool(), failing)

	tests := []struct {
		name    string
		tool    string
		args    string
		want    string
		wantErr error
		errText string
	}{
		{name: "ok", tool: "add", args: `{"a":2,"b":3}`, want: `5`},
		{name: "empty args", tool: "add", args: ``, want: `0`},
		{name: "unknown tool", tool: "mul", args: `{}`, wantErr: tools.ErrUnknownTool},
		{name: "bad json", tool: "add", args: `{"a":`, wantErr: tools.ErrInvalidArguments},
		{name: "wrong type", tool: "add", args: `{"a":"two"}`, wantErr: tools.ErrInvalidArguments},
		{name: "unknown field", tool: "add", args: `{"a":1,"c":2}`, wantErr: tools.ErrInvalidArguments},
		{name: "handler error", tool: "fail", args: `{"query":"x"}`, errText: "backend unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := reg.Dispatch(context.Background(), tt.tool, json.RawMessage(tt.args))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				assert.Contains(t, err.Error(), tt.tool)
			default:
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(out))
			}
		})
	}
}

func TestRegistry_AddDuplicate(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, reg.Add(addTool()))

	err := reg.Add(addTool())
	assert.ErrorIs(t, err, tools.ErrDuplicateTool)
	assert.Equal(t, 1, reg.Len())

	assert.Error(t, reg.Add(nil))
	assert.Panics(t, func() { tools.NewRegistry(addTool(), addTool()) })
}

func TestRegistry_Definitions(t *testing.T) {
	search := tools.MustNew("search", "Searches", func(context.Context, searchArgs) (string, error) { return "", nil })
	reg := tools.NewRegistry(search, addTool())

	assert.Equal(t, []string{"add", "search"}, reg.Names())

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "add", defs[0].Name)
	assert.Equal(t, "search", defs[1].Name)

	got, ok := reg.Get("search")
	require.True(t, ok)
	assert.Same(t, search, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}
