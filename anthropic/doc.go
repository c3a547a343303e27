// Package anthropic implements provider.Client on top of the Anthropic
// Messages API.
//
// # Basic Usage
//
//	client, err := anthropic.New(anthropic.Options{
//	    Model:     "claude-sonnet-4-5",
//	    MaxTokens: 1024,
//	})
//	resp, err := client.Complete(ctx, provider.Request{
//	    Messages: []provider.Message{
//	        provider.NewTextMessage(provider.RoleUser, "Hello!"),
//	    },
//	})
//
// # Registry
//
// Register adds the "anthropic" factory to an explicit provider.Registry:
//
//	reg := provider.NewRegistry()
//	anthropic.Register(reg)
//	client, err := reg.New(cfg)
//
// # Errors
//
// API failures are classified into provider errors: 429, 5xx and 529
// responses are transient, exhausted credit is a quota error, and 401/403
// map to provider.ErrCredentialsNotFound. The SDK's own retry loop is
// disabled so provider.WithRetry is the single place retries happen.
package anthropic
