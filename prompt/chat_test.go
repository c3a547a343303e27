package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/provider"
)

func TestFromMessages_Format(t *testing.T) {
	tmpl := MustFromMessages(
		System("You are a {{tone}} assistant."),
		User("Summarize: {{text}}"),
	)
	assert.Equal(t, []string{"tone", "text"}, tmpl.Variables())

	p, err := tmpl.Format(map[string]any{"tone": "terse", "text": "long document"})
	require.NoError(t, err)

	assert.Equal(t, "You are a terse assistant.", p.System)
	require.Len(t, p.Messages, 1)
	assert.Equal(t, provider.RoleUser, p.Messages[0].Role)
	assert.Equal(t, "Summarize: long document", p.Messages[0].Content)

	req := p.Request()
	assert.Equal(t, "You are a terse assistant.", req.SystemPrompt)
	assert.Equal(t, "You are a terse assistant.\n\nSummarize: long document", p.String())
}

func TestFormat_MissingVariable(t *testing.T) {
	tmpl := MustFromTemplate("{{a}} and {{b}}")
	_, err := tmpl.Format(map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrVariable)
	assert.Contains(t, err.Error(), "b")
}

func TestFormat_ConditionalVariableOptional(t *testing.T) {
	tmpl := MustFromTemplate("{{#if urgent}}URGENT: {{/if}}{{title}}")
	p, err := tmpl.Format(map[string]any{"title": "Deploy"})
	require.NoError(t, err)
	assert.Equal(t, "Deploy", p.Messages[0].Content)
}

func TestFromMessages_Errors(t *testing.T) {
	_, err := FromMessages()
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = FromMessages(User("{{#if}}x{{/if}}"))
	assert.ErrorIs(t, err, ErrParse)

	_, err = FromMessages(MessageTemplate{Role: provider.RoleTool, Template: "x"})
	assert.Error(t, err)
}

func TestPartial(t *testing.T) {
	base := MustFromTemplate("{{greeting}}, {{name}}!")
	hello := base.Partial(map[string]any{"greeting": "Hello"})

	assert.Equal(t, []string{"name"}, hello.Variables())
	assert.Equal(t, []string{"greeting", "name"}, base.Variables(), "original must be unchanged")

	p, err := hello.Format(map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", p.Messages[0].Content)

	p, err = hello.Format(map[string]any{"name": "Ada", "greeting": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hi, Ada!", p.Messages[0].Content, "call-time values win over partials")
}

func TestStage(t *testing.T) {
	tmpl := MustFromTemplate("Tell me a joke about {{topic}}")
	stage := tmpl.Stage()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"values", pipeline.Values{"topic": "bears"}, "Tell me a joke about bears"},
		{"map", map[string]any{"topic": "cats"}, "Tell me a joke about cats"},
		{"bare string", "owls", "Tell me a joke about owls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := stage.Invoke(context.Background(), tt.input)
			require.NoError(t, err)
			p, ok := out.(Prompt)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Messages[0].Content)
		})
	}
}

func TestStage_InputErrors(t *testing.T) {
	_, err := MustFromTemplate("{{a}} {{b}}").Stage().Invoke(context.Background(), "x")
	assert.ErrorIs(t, err, ErrVariable)

	_, err = MustFromTemplate("{{a}}").Stage().Invoke(context.Background(), 42)
	var typeErr *pipeline.TypeError
	assert.True(t, errors.As(err, &typeErr))
}

func TestStage_InPipeline(t *testing.T) {
	p := pipeline.MustCompose(
		MustFromTemplate("Q: {{question}}").Stage(),
		pipeline.Lambda(func(in any) any { return in.(Prompt).String() }),
	)
	out, err := p.Invoke(context.Background(), pipeline.Values{"question": "why?"})
	require.NoError(t, err)
	assert.Equal(t, "Q: why?", out)
}
