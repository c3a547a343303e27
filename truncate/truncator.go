package truncate

import (
	"context"

	"github.com/randalmurphal/promptchain/parser"
	"github.com/randalmurphal/promptchain/pipeline"
	"github.com/randalmurphal/promptchain/tokens"
)

// Strategy selects which part of a text survives truncation.
type Strategy int

const (
	// KeepHead keeps the beginning and drops the end.
	KeepHead Strategy = iota

	// KeepTail keeps the end and drops the beginning.
	KeepTail

	// KeepEnds keeps the beginning and the end and drops the middle.
	KeepEnds
)

func (s Strategy) String() string {
	switch s {
	case KeepHead:
		return "head"
	case KeepTail:
		return "tail"
	case KeepEnds:
		return "ends"
	}
	return "unknown"
}

// DefaultMarker marks a cut made by KeepHead or KeepTail.
const DefaultMarker = "..."

// DefaultEndsMarker marks the cut made by KeepEnds.
const DefaultEndsMarker = "\n...[truncated]...\n"

// Option configures a Truncator.
type Option func(*Truncator)

// WithCounter sets the token counter. The default is tokens.NewEstimatingCounter.
func WithCounter(c tokens.Counter) Option {
	return func(t *Truncator) {
		if c != nil {
			t.counter = c
		}
	}
}

// WithMarker replaces the cut marker. An empty marker is allowed.
func WithMarker(marker string) Option {
	return func(t *Truncator) { t.marker = marker }
}

// Truncator cuts text down to a token budget. It is safe for concurrent use
// if its counter is.
type Truncator struct {
	counter  tokens.Counter
	strategy Strategy
	marker   string
}

// New returns a Truncator using strategy.
func New(strategy Strategy, opts ...Option) *Truncator {
	t := &Truncator{
		counter:  tokens.NewEstimatingCounter(),
		strategy: strategy,
		marker:   DefaultMarker,
	}
	if strategy == KeepEnds {
		t.marker = DefaultEndsMarker
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Strategy returns the truncator's strategy.
func (t *Truncator) Strategy() Strategy { return t.strategy }

// Marker returns the cut marker.
func (t *Truncator) Marker() string { return t.marker }

// Truncate returns text cut to fit maxTokens, marker included, and whether a
// cut was made. When even the marker does not fit, the marker alone is
// returned.
func (t *Truncator) Truncate(text string, maxTokens int) (string, bool) {
	if t.counter.FitsInLimit(text, maxTokens) {
		return text, false
	}
	budget := maxTokens - t.counter.Count(t.marker)
	if budget <= 0 {
		return t.marker, true
	}

	runes := []rune(text)
	n := len(runes)
	head := func(budget int) int {
		return longest(n, func(k int) bool { return t.counter.FitsInLimit(string(runes[:k]), budget) })
	}
	tail := func(limit, budget int) int {
		return longest(limit, func(k int) bool { return t.counter.FitsInLimit(string(runes[n-k:]), budget) })
	}

	switch t.strategy {
	case KeepTail:
		k := tail(n, budget)
		return t.marker + string(runes[n-k:]), true
	case KeepEnds:
		h := head(budget / 2)
		rest := budget - t.counter.Count(string(runes[:h]))
		k := tail(n-h, rest)
		return string(runes[:h]) + t.marker + string(runes[n-k:]), true
	default:
		k := head(budget)
		return string(runes[:k]) + t.marker, true
	}
}

// Stage returns a stage that truncates the text of its input to maxTokens.
// The input is anything parser.Text accepts; the output is a string.
func (t *Truncator) Stage(maxTokens int) pipeline.Stage {
	return pipeline.Named("truncate", pipeline.StageFunc(func(_ context.Context, input any) (any, error) {
		text, err := parser.Text(input)
		if err != nil {
			return nil, err
		}
		out, _ := t.Truncate(text, maxTokens)
		return out, nil
	}))
}

// longest returns the largest k in [0, n] for which fits(k) holds, assuming
// fits is monotonically decreasing in k and fits(0) holds.
func longest(n int, fits func(k int) bool) int {
	low, high := 0, n
	for low < high {
		mid := (low + high + 1) / 2
		if fits(mid) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low
}
