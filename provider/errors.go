package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	// ErrUnknownProvider indicates the requested provider is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnavailable indicates the LLM service is unavailable or overloaded.
	ErrUnavailable = errors.New("LLM service unavailable")

	// ErrContextTooLong indicates the input exceeds the context window.
	ErrContextTooLong = errors.New("context exceeds maximum length")

	// ErrRateLimited indicates the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidRequest indicates the request is malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTimeout indicates the request timed out.
	ErrTimeout = errors.New("request timed out")

	// ErrCredentialsNotFound indicates credentials are missing or rejected.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrQuotaExceeded indicates the account's quota or credit is exhausted.
	// Unlike rate limiting, waiting does not help.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("empty response")
)

// Error wraps provider errors with context.
type Error struct {
	Provider  string // Provider name ("anthropic", ...)
	Op        string // Operation that failed ("complete")
	Err       error  // Underlying error
	Retryable bool   // Whether the error is likely transient
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new provider error.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{
		Provider:  provider,
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// NewTransientError creates a retryable provider error.
func NewTransientError(provider, op string, err error) *Error {
	return NewError(provider, op, err, true)
}

// NewQuotaError creates a fatal quota error. The result always matches
// ErrQuotaExceeded.
func NewQuotaError(provider, op string, err error) *Error {
	if !errors.Is(err, ErrQuotaExceeded) {
		err = fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	}
	return NewError(provider, op, err, false)
}

// IsTransient checks if an error is likely transient and worth retrying.
// Quota errors are never transient.
func IsTransient(err error) bool {
	if err == nil || IsQuota(err) {
		return false
	}
	var provErr *Error
	if errors.As(err, &provErr) && provErr.Retryable {
		return true
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsQuota checks if an error reports exhausted quota or billing.
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrCredentialsNotFound)
}
