package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewError("anthropic", "complete", ErrRateLimited, true)
	assert.Equal(t, "anthropic complete: rate limited", err.Error())

	err = NewError("", "complete", ErrTimeout, true)
	assert.Equal(t, "complete: request timed out", err.Error())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable provider error", NewTransientError("x", "complete", errors.New("overloaded")), true},
		{"non-retryable provider error", NewError("x", "complete", ErrInvalidRequest, false), false},
		{"rate limited sentinel", fmt.Errorf("wrapped: %w", ErrRateLimited), true},
		{"unavailable sentinel", ErrUnavailable, true},
		{"timeout sentinel", ErrTimeout, true},
		{"quota never transient", NewQuotaError("x", "complete", ErrRateLimited), false},
		{"plain error", errors.New("nope"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestNewQuotaError(t *testing.T) {
	err := NewQuotaError("anthropic", "complete", errors.New("credit balance too low"))
	assert.True(t, IsQuota(err))
	assert.False(t, err.Retryable)
	assert.Contains(t, err.Error(), "credit balance too low")

	// Already-wrapped errors are not wrapped twice.
	err = NewQuotaError("anthropic", "complete", ErrQuotaExceeded)
	assert.Equal(t, "anthropic complete: quota exceeded", err.Error())
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(NewError("a", "complete", ErrCredentialsNotFound, false)))
	assert.False(t, IsAuthError(ErrTimeout))
}
