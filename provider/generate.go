package provider

import (
	"context"
	"strings"
)

// Options are per-call generation settings. Zero fields leave the client's
// defaults in place.
type Options struct {
	Model         string
	SystemPrompt  string
	MaxTokens     int
	Temperature   float64
	StopSequences []string
}

// Apply copies the non-zero options onto req.
func (o Options) Apply(req *Request) {
	if o.Model != "" {
		req.Model = o.Model
	}
	if o.SystemPrompt != "" {
		req.SystemPrompt = o.SystemPrompt
	}
	if o.MaxTokens > 0 {
		req.MaxTokens = o.MaxTokens
	}
	if o.Temperature > 0 {
		req.Temperature = o.Temperature
	}
	if len(o.StopSequences) > 0 {
		req.StopSequences = o.StopSequences
	}
}

// Generate sends a single user prompt and returns the response text.
// A response with no text fails with ErrEmptyResponse.
func Generate(ctx context.Context, client Client, prompt string, opts Options) (string, error) {
	req := Request{Messages: []Message{NewTextMessage(RoleUser, prompt)}}
	opts.Apply(&req)

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", NewError(client.Provider(), "generate", ErrEmptyResponse, false)
	}
	return resp.Content, nil
}
