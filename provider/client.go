// Package provider defines the language model service consumed by pipelines.
//
// A Client turns a Request (system prompt, conversation turns, tool
// definitions) into a Response. Concrete clients live in their own packages
// (see the anthropic package) and are registered on an explicit Registry
// rather than in process-wide state:
//
//	reg := provider.NewRegistry()
//	anthropic.Register(reg)
//
//	client, err := reg.New(provider.Config{
//	    Provider: "anthropic",
//	    Model:    "claude-sonnet-4-5",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	text, err := provider.Generate(ctx, client, "Name three moons of Jupiter.", provider.Options{})
//
// # Errors
//
// Failures come back as *Error values. IsTransient reports failures worth
// retrying (rate limits, overload, timeouts); IsQuota reports exhausted quota
// or billing, which is fatal. Nothing retries automatically: wrap a client
// with WithRetry to opt in.
package provider

import "context"

// Client is a language model service.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a request and returns the full response.
	// The context controls cancellation and timeouts.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider name (e.g., "anthropic").
	Provider() string

	// Close releases any resources held by the client.
	Close() error
}
