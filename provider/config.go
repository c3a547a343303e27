package provider

import (
	"fmt"
	"time"
)

// Config holds configuration for creating a provider client.
// It is an explicit value passed to Registry.New; nothing is read from
// process-wide state except where a provider documents an API key fallback.
type Config struct {
	// Provider is the registered provider name. Required.
	Provider string `json:"provider" yaml:"provider" koanf:"provider"`

	// Model is the default model for requests that do not set one. Required.
	Model string `json:"model" yaml:"model" koanf:"model"`

	// APIKey authenticates against the service.
	// Optional; providers may fall back to their conventional environment variable.
	APIKey string `json:"-" yaml:"api_key" koanf:"api_key"`

	// BaseURL overrides the service endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" koanf:"base_url"`

	// SystemPrompt is used for requests that carry none.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" koanf:"system_prompt"`

	// MaxTokens is the default response length limit.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" koanf:"max_tokens"`

	// Temperature is the default sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature" koanf:"temperature"`

	// Timeout bounds a single completion call. 0 uses the provider default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" koanf:"timeout"`

	// Retry configures the optional retry decorator applied by Registry.New.
	Retry RetryConfig `json:"retry" yaml:"retry" koanf:"retry"`

	// Cache configures the optional response cache applied by Registry.New.
	Cache CacheConfig `json:"cache" yaml:"cache" koanf:"cache"`
}

// DefaultConfig returns a Config with sensible defaults.
// Provider and Model must still be set before use.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 1024,
		Timeout:   2 * time.Minute,
		Retry:     DefaultRetryConfig(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0, got %v", c.Cache.TTL)
	}
	return nil
}

// WithProvider returns a copy of the config with the specified provider.
func (c Config) WithProvider(provider string) Config {
	c.Provider = provider
	return c
}

// WithModel returns a copy of the config with the specified model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithSystemPrompt returns a copy of the config with the specified system prompt.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// ApplyDefaults fills request fields the caller left empty from the config.
func (c Config) ApplyDefaults(req Request) Request {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = c.SystemPrompt
	}
	if req.Temperature == 0 {
		req.Temperature = c.Temperature
	}
	return req
}
