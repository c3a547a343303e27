package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures WithRetry.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values <= 1 disable retrying.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" koanf:"max_attempts"`

	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration `json:"initial_interval" yaml:"initial_interval" koanf:"initial_interval"`

	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration `json:"max_interval" yaml:"max_interval" koanf:"max_interval"`
}

// DefaultRetryConfig returns intervals suited to hosted LLM APIs with
// retrying disabled. Set MaxAttempts to opt in.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     1,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Enabled reports whether the config asks for more than one attempt.
func (c RetryConfig) Enabled() bool {
	return c.MaxAttempts > 1
}

// Validate checks the retry settings.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.InitialInterval < 0 || c.MaxInterval < 0 {
		return fmt.Errorf("intervals must be >= 0")
	}
	return nil
}

type retryClient struct {
	Client
	cfg RetryConfig
}

// WithRetry wraps client so that transient failures (see IsTransient) are
// retried with exponential backoff. Quota errors and every other failure are
// returned immediately. The last error is returned once attempts run out.
func WithRetry(client Client, cfg RetryConfig) Client {
	return &retryClient{Client: client, cfg: cfg}
}

func (c *retryClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if !c.cfg.Enabled() {
		return c.Client.Complete(ctx, req)
	}

	bo := backoff.NewExponentialBackOff()
	if c.cfg.InitialInterval > 0 {
		bo.InitialInterval = c.cfg.InitialInterval
	}
	if c.cfg.MaxInterval > 0 {
		bo.MaxInterval = c.cfg.MaxInterval
	}

	attempt := 0
	return backoff.Retry(ctx, func() (*Response, error) {
		attempt++
		resp, err := c.Client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("LLM call failed, retrying",
				slog.String("provider", c.Client.Provider()),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", next),
				slog.Any("error", err))
		}),
	)
}
