package tokens

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/provider"
)

func TestEstimatingCounter_Count(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		text  string
		want  int
	}{
		{"empty", 4, "", 0},
		{"exact multiple", 4, "abcdefgh", 2},
		{"rounds half up", 4, "abcdef", 2},
		{"rounds down", 4, "abcde", 1},
		{"runes not bytes", 4, "日本語のテキスト", 2},
		{"custom ratio", 2, "abcdef", 3},
		{"zero ratio uses default", 0, "abcdefgh", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &EstimatingCounter{CharsPerToken: tt.ratio}
			assert.Equal(t, tt.want, c.Count(tt.text))
		})
	}
}

func TestEstimatingCounter_FitsInLimit(t *testing.T) {
	c := NewEstimatingCounter()
	assert.True(t, c.FitsInLimit("abcdefgh", 2))
	assert.False(t, c.FitsInLimit("abcdefgh", 1))
	assert.Equal(t, DefaultCharsPerToken, NewEstimatingCounterWithRatio(-1).CharsPerToken)
	assert.Equal(t, 2, EstimateTokens("abcdefgh"))
}

func TestCountMessages(t *testing.T) {
	c := NewEstimatingCounter()
	msgs := []provider.Message{
		provider.NewTextMessage(provider.RoleUser, "abcdefgh"),
		{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{{Name: "abcd", Arguments: json.RawMessage(`{"a":1}`)}}},
	}
	// 4+2, then 4+0+1+2
	assert.Equal(t, 6, CountMessage(c, msgs[0]))
	assert.Equal(t, 13, CountMessages(c, msgs))
}

func TestGetModelLimit(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"claude-sonnet-4", 200000},
		{"claude-sonnet-4-5-20250929", 200000},
		{"gpt-4o-mini", 128000},
		{"gpt-4-turbo", 8192},
		{"mystery-model", 100000},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, GetModelLimit(tt.model))
		})
	}
}

func TestTiktokenCounter(t *testing.T) {
	c, err := NewTiktokenCounter("")
	require.NoError(t, err)

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 4, c.Count("Hello, world!"))
	assert.True(t, c.FitsInLimit("Hello, world!", 4))
	assert.False(t, c.FitsInLimit("Hello, world!", 3))

	again, err := NewTiktokenCounter("cl100k_base")
	require.NoError(t, err)
	assert.Equal(t, c.Count("cached codec"), again.Count("cached codec"))

	_, err = NewTiktokenCounter("no_such_encoding")
	assert.Error(t, err)
}

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, "o200k_base", string(encodingFor("gpt-4o")))
	assert.Equal(t, "cl100k_base", string(encodingFor("claude-haiku-4-5")))

	c, err := ForModel("gpt-4o-mini")
	require.NoError(t, err)
	assert.Positive(t, c.Count("tokens"))
}
