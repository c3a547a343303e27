package tokens

import (
	"unicode/utf8"

	"github.com/randalmurphal/promptchain/provider"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// MessageOverhead approximates the per-message framing tokens (role
// markers and separators) added by chat APIs.
const MessageOverhead = 4

// Counter counts tokens in text.
type Counter interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// FitsInLimit returns true if the text fits within the token limit.
	FitsInLimit(text string, limit int) bool
}

// EstimatingCounter uses a character-to-token ratio for estimation.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimatingCounter creates a token counter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// NewEstimatingCounterWithRatio creates a token counter with a custom ratio.
// If charsPerToken is <= 0, the default ratio is used.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{CharsPerToken: charsPerToken}
}

// Count estimates the number of tokens in text, rounding to the nearest
// integer. Runes are counted rather than bytes.
func (c *EstimatingCounter) Count(text string) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return int(float64(utf8.RuneCountInString(text))/ratio + 0.5)
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// EstimateTokens is a convenience function using the default estimator.
func EstimateTokens(text string) int {
	return NewEstimatingCounter().Count(text)
}

// CountMessage returns the tokens a single message occupies, including
// tool call names and arguments and the framing overhead.
func CountMessage(c Counter, m provider.Message) int {
	n := MessageOverhead + c.Count(m.Content)
	for _, call := range m.ToolCalls {
		n += c.Count(call.Name) + c.Count(string(call.Arguments))
	}
	return n
}

// CountMessages sums CountMessage over msgs.
func CountMessages(c Counter, msgs []provider.Message) int {
	total := 0
	for _, m := range msgs {
		total += CountMessage(c, m)
	}
	return total
}

// ModelLimits contains context window sizes for common models, keyed by
// model family prefix.
var ModelLimits = map[string]int{
	"claude-opus-4":     200000,
	"claude-sonnet-4":   200000,
	"claude-haiku-4":    200000,
	"claude-3-7-sonnet": 200000,
	"claude-3-5-sonnet": 200000,
	"claude-3-5-haiku":  200000,
	"claude-3-opus":     200000,
	"claude-3-haiku":    200000,
	"gpt-4o":            128000,
	"gpt-4.1":           1047576,
	"gpt-4":             8192,
	"gpt-3.5-turbo":     16385,

	"default": 100000,
}

// GetModelLimit returns the context window for model. Exact names win;
// otherwise the longest matching family prefix is used, then the default.
func GetModelLimit(model string) int {
	if limit, ok := ModelLimits[model]; ok {
		return limit
	}
	best, limit := 0, ModelLimits["default"]
	for prefix, l := range ModelLimits {
		if prefix != "default" && len(prefix) > best && len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			best, limit = len(prefix), l
		}
	}
	return limit
}
