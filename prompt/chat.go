package prompt

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/provider"
)

// MessageTemplate is a single templated conversation turn.
type MessageTemplate struct {
	Role     provider.Role `json:"role" yaml:"role" toml:"role"`
	Template string        `json:"template" yaml:"template" toml:"template"`
}

// System returns a system-role message template.
func System(tmpl string) MessageTemplate {
	return MessageTemplate{Role: provider.RoleSystem, Template: tmpl}
}

// User returns a user-role message template.
func User(tmpl string) MessageTemplate {
	return MessageTemplate{Role: provider.RoleUser, Template: tmpl}
}

// Assistant returns an assistant-role message template.
func Assistant(tmpl string) MessageTemplate {
	return MessageTemplate{Role: provider.RoleAssistant, Template: tmpl}
}

// Prompt is a rendered chat prompt ready for a model.
type Prompt struct {
	System   string             `json:"system,omitempty"`
	Messages []provider.Message `json:"messages"`
}

// Request converts the prompt into a provider request.
func (p Prompt) Request() provider.Request {
	return provider.Request{SystemPrompt: p.System, Messages: p.Messages}
}

// String joins the system prompt and every message with blank lines.
func (p Prompt) String() string {
	parts := make([]string, 0, len(p.Messages)+1)
	if p.System != "" {
		parts = append(parts, p.System)
	}
	for _, m := range p.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// ChatTemplate renders a sequence of message templates into a Prompt.
// ChatTemplate values are immutable once built; Partial returns a copy.
type ChatTemplate struct {
	messages []MessageTemplate
	partial  map[string]any
	engine   *Engine

	vars     []string
	optional map[string]bool
}

// FromTemplate creates a chat template with a single user message.
func FromTemplate(user string) (*ChatTemplate, error) {
	return FromMessages(User(user))
}

// MustFromTemplate is like FromTemplate but panics on error.
func MustFromTemplate(user string) *ChatTemplate {
	t, err := FromTemplate(user)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMessages creates a chat template from message templates.
// Every template is parsed up front; an invalid template fails here rather
// than at render time.
func FromMessages(msgs ...MessageTemplate) (*ChatTemplate, error) {
	return newChatTemplate(defaultEngine, msgs)
}

// MustFromMessages is like FromMessages but panics on error.
func MustFromMessages(msgs ...MessageTemplate) *ChatTemplate {
	t, err := FromMessages(msgs...)
	if err != nil {
		panic(err)
	}
	return t
}

func newChatTemplate(engine *Engine, msgs []MessageTemplate) (*ChatTemplate, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}

	c := &ChatTemplate{
		messages: append([]MessageTemplate(nil), msgs...),
		engine:   engine,
		optional: make(map[string]bool),
	}
	seen := make(map[string]bool)
	required := make(map[string]bool)
	for i, m := range msgs {
		switch m.Role {
		case provider.RoleSystem, provider.RoleUser, provider.RoleAssistant:
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
		vars, err := engine.Parse(m.Template)
		if err != nil {
			return nil, fmt.Errorf("message %d (%s): %w", i, m.Role, err)
		}
		cond := conditionalVariables(m.Template)
		for _, v := range vars {
			if !seen[v] {
				seen[v] = true
				c.vars = append(c.vars, v)
			}
			if !cond[v] {
				required[v] = true
			}
		}
	}
	for _, v := range c.vars {
		if !required[v] {
			c.optional[v] = true
		}
	}
	return c, nil
}

// Messages returns a copy of the message templates.
func (c *ChatTemplate) Messages() []MessageTemplate {
	return append([]MessageTemplate(nil), c.messages...)
}

// Variables returns the variables still needed to format the template, in
// order of first appearance. Variables bound by Partial are excluded.
func (c *ChatTemplate) Variables() []string {
	out := make([]string, 0, len(c.vars))
	for _, v := range c.vars {
		if _, bound := c.partial[v]; !bound {
			out = append(out, v)
		}
	}
	return out
}

// Partial returns a copy of the template with some variables bound.
func (c *ChatTemplate) Partial(vars map[string]any) *ChatTemplate {
	cp := *c
	cp.partial = maps.Clone(c.partial)
	if cp.partial == nil {
		cp.partial = make(map[string]any, len(vars))
	}
	maps.Copy(cp.partial, vars)
	return &cp
}

// Format renders every message with vars merged over the partial bindings.
// Missing variables fail with ErrVariable; variables used only as
// {{#if}} or {{#unless}} conditions may be omitted.
func (c *ChatTemplate) Format(vars map[string]any) (Prompt, error) {
	merged := maps.Clone(c.partial)
	if merged == nil {
		merged = make(map[string]any, len(vars))
	}
	maps.Copy(merged, vars)

	var required []string
	for _, v := range c.vars {
		if !c.optional[v] {
			required = append(required, v)
		}
	}
	if err := ValidateVariables(required, merged); err != nil {
		return Prompt{}, err
	}

	var p Prompt
	var system []string
	for i, m := range c.messages {
		text, err := c.engine.Render(m.Template, merged)
		if err != nil {
			return Prompt{}, fmt.Errorf("message %d (%s): %w", i, m.Role, err)
		}
		if m.Role == provider.RoleSystem {
			system = append(system, text)
			continue
		}
		p.Messages = append(p.Messages, provider.NewTextMessage(m.Role, text))
	}
	p.System = strings.Join(system, "\n\n")
	return p, nil
}

// Stage returns a pipeline stage that formats its input into a Prompt.
// The input is Values (or map[string]any); a plain string is bound to the
// template's single remaining variable.
func (c *ChatTemplate) Stage() pipeline.Stage {
	return pipeline.Named("prompt", pipeline.StageFunc(func(_ context.Context, input any) (any, error) {
		vars, err := c.bind(input)
		if err != nil {
			return nil, err
		}
		return c.Format(vars)
	}))
}

func (c *ChatTemplate) bind(input any) (map[string]any, error) {
	if vals, ok := pipeline.AsValues(input); ok {
		return vals, nil
	}
	s, ok := input.(string)
	if !ok {
		return nil, &pipeline.TypeError{Stage: "prompt", Want: "Values or string", Got: fmt.Sprintf("%T", input)}
	}
	vars := c.Variables()
	if len(vars) != 1 {
		return nil, fmt.Errorf("%w: string input needs exactly one template variable, template has %d (%s)",
			ErrVariable, len(vars), strings.Join(vars, ", "))
	}
	return map[string]any{vars[0]: s}, nil
}
