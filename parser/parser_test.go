package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedOutput = "# Plan\nWe will refactor.\n\n## Steps\n- read\n- write\n\n```go\nfunc main() {}\n```\n\n```json\n{\"status\": \"ok\", \"count\": 2}\n```\n"

func TestParse(t *testing.T) {
	resp := Parse(mixedOutput)

	require.Len(t, resp.CodeBlocks, 2)
	assert.Equal(t, "go", resp.CodeBlocks[0].Language)
	assert.Equal(t, "func main() {}\n", resp.CodeBlocks[0].Content)
	require.Len(t, resp.JSONBlocks, 1)
	assert.Equal(t, "ok", resp.JSONBlocks[0]["status"])
	assert.Equal(t, "We will refactor.", resp.Sections["Plan"])
	assert.NotContains(t, resp.Text, "func main")
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		language string
		want     string
	}{
		{"by language", mixedOutput, "go", "func main() {}\n"},
		{"language is case-insensitive", "```Python\nprint(1)\n```", "python", "print(1)\n"},
		{"first of any language", mixedOutput, "", "func main() {}\n"},
		{"missing language", mixedOutput, "rust", ""},
		{"no blocks", "plain", "", ""},
		{"language with symbols", "```c++\nint x;\n```", "c++", "int x;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.text, tt.language))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{"fenced", "```json\n{\"a\": 1}\n```", map[string]any{"a": float64(1)}},
		{"unlabeled fence", "```\n{\"a\": 1}\n```", map[string]any{"a": float64(1)}},
		{"inline in prose", `Sure! Here it is: {"answer": "42", "nested": {"x": "}"}} hope that helps`, map[string]any{"answer": "42", "nested": map[string]any{"x": "}"}}},
		{"fenced preferred", "{\"b\": 2}\n```json\n{\"a\": 1}\n```", map[string]any{"a": float64(1)}},
		{"invalid", "{not json}", nil},
		{"none", "no json here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.text))
		})
	}
}

func TestExtractJSON_Deduplicates(t *testing.T) {
	text := "```json\n{\"a\": 1}\n```\nAgain: {\"a\": 1}"
	assert.Len(t, Parse(text).JSONBlocks, 1)
}

func TestExtractJSONArray(t *testing.T) {
	p := NewParser()
	got := p.ExtractJSONArray("```json\n[{\"id\": 1}, {\"id\": 2}]\n```\nand [{\"id\": 3}]")
	require.Len(t, got, 3)
	assert.Equal(t, float64(3), got[2]["id"])

	assert.Empty(t, p.ExtractJSONArray("[1, 2, 3]"))
}

func TestExtractYAML(t *testing.T) {
	p := NewParser()
	got := p.ExtractYAML("```yaml\nname: test\nitems:\n  - a\n```\n```yml\nx: 1\n```\n```yaml\n: bad: [\n```")
	require.Len(t, got, 2)
	assert.Equal(t, "test", got[0]["name"])
	assert.Equal(t, 1, got[1]["x"])
}

func TestExtractSection(t *testing.T) {
	p := NewParser()
	text := "# Summary\nAll good.\n## Risks\nNone.\n"
	assert.Equal(t, "All good.", p.ExtractSection(text, "Summary"))
	assert.Equal(t, "None.", p.ExtractSection(text, "risks"))
	assert.Empty(t, p.ExtractSection(text, "Missing"))
}

func TestExtractLists(t *testing.T) {
	p := NewParser()
	assert.Equal(t, []string{"one", "two", "three"}, p.ExtractList("- one\n* two\n  • three\n"))
	assert.Equal(t, []string{"first", "second"}, p.ExtractNumberedList("1. first\n2) second"))
	assert.Empty(t, p.ExtractList("no list"))
}

func TestBalancedSpans(t *testing.T) {
	got := balancedSpans(`a {"x": "{"} b {"y": {"z": 1}} } c`, '{', '}')
	assert.Equal(t, []string{`{"x": "{"}`, `{"y": {"z": 1}}`}, got)
}
