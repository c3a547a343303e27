package anthropic

import (
	"github.com/randalmurphal/promptchain/provider"
)

// Register adds the Anthropic factory to reg under ProviderName.
func Register(reg *provider.Registry) {
	reg.Register(ProviderName, newFromProviderConfig)
}

// newFromProviderConfig creates a Client from a provider.Config.
// This is the factory function registered with the provider registry.
func newFromProviderConfig(cfg provider.Config) (provider.Client, error) {
	return New(Options{
		Model:        cfg.Model,
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		Timeout:      cfg.Timeout,
	})
}
