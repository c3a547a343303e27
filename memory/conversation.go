package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/randalmurphal/promptchain/parser"
	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/prompt"
	"github.com/randalmurphal/promptchain/provider"
)

// Conversation returns a stage that answers a user input with memory. The
// input is a string or Values carrying "input". The model stage receives a
// prompt.Prompt holding system, the remembered turns and the new user turn;
// its text output is saved to mem as the reply and returned.
func Conversation(mem Memory, model pipeline.Stage, system string) (pipeline.Stage, error) {
	if mem == nil || model == nil {
		return nil, &pipeline.ConfigurationError{Reason: "conversation requires memory and a model stage"}
	}
	return pipeline.Named("conversation", pipeline.StageFunc(func(ctx context.Context, input any) (any, error) {
		text, err := userText(input)
		if err != nil {
			return nil, err
		}
		msgs := mem.Messages()
		var sys []string
		if system != "" {
			sys = append(sys, system)
		}
		turns := make([]provider.Message, 0, len(msgs)+1)
		for _, m := range msgs {
			if m.Role == provider.RoleSystem {
				sys = append(sys, m.Content)
				continue
			}
			turns = append(turns, m)
		}
		turns = append(turns, provider.NewTextMessage(provider.RoleUser, text))

		out, err := model.Invoke(ctx, prompt.Prompt{System: strings.Join(sys, "\n\n"), Messages: turns})
		if err != nil {
			return nil, err
		}
		reply, err := parser.Text(out)
		if err != nil {
			return nil, err
		}
		reply = strings.TrimSpace(reply)
		if err := mem.Save(ctx, text, reply); err != nil {
			return nil, err
		}
		return reply, nil
	})), nil
}

func userText(input any) (string, error) {
	if s, ok := input.(string); ok {
		return s, nil
	}
	vals, ok := pipeline.AsValues(input)
	if !ok {
		return "", &pipeline.TypeError{Stage: "conversation", Want: "string or pipeline.Values", Got: fmt.Sprintf("%T", input)}
	}
	s, ok := vals.String("input")
	if !ok {
		return "", &pipeline.KeyError{Key: "input"}
	}
	return s, nil
}
