package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/randalmurphal/promptchain/provider"
)

// statusOverloaded is Anthropic's non-standard "overloaded" status.
const statusOverloaded = 529

// quotaMarkers identify billing failures that arrive as 400/403 responses.
var quotaMarkers = []string{"credit balance", "billing", "quota"}

// classify maps an SDK error onto the provider error taxonomy.
func classify(ctx context.Context, err error) error {
	const op = "complete"

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return provider.NewTransientError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrTimeout, err))
		}
		return provider.NewError(ProviderName, op, ctxErr, false)
	}

	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		// Transport failures (connection reset, DNS) are worth retrying.
		return provider.NewTransientError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrUnavailable, err))
	}

	msg := strings.ToLower(errorMessage(apiErr))
	switch code := apiErr.StatusCode; {
	case code == http.StatusPaymentRequired:
		return provider.NewQuotaError(ProviderName, op, apiErr)
	case (code == http.StatusBadRequest || code == http.StatusForbidden) && hasQuotaMarker(msg):
		return provider.NewQuotaError(ProviderName, op, apiErr)
	case code == http.StatusTooManyRequests:
		return provider.NewTransientError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrRateLimited, apiErr))
	case code == statusOverloaded || code >= http.StatusInternalServerError:
		return provider.NewTransientError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrUnavailable, apiErr))
	case code == http.StatusRequestTimeout:
		return provider.NewTransientError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrTimeout, apiErr))
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return provider.NewError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrCredentialsNotFound, apiErr), false)
	case code == http.StatusRequestEntityTooLarge || strings.Contains(msg, "prompt is too long"):
		return provider.NewError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrContextTooLong, apiErr), false)
	default:
		return provider.NewError(ProviderName, op, fmt.Errorf("%w: %w", provider.ErrInvalidRequest, apiErr), false)
	}
}

// errorMessage returns the error.message field of the response body, or the
// raw body when it is not an API error envelope.
func errorMessage(apiErr *sdk.Error) string {
	raw := apiErr.RawJSON()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil || body.Error.Message == "" {
		return raw
	}
	return body.Error.Message
}

func hasQuotaMarker(msg string) bool {
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
