package truncate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/tokens"
)

// perRune counts one token per rune so expected cuts are exact.
var perRune = WithCounter(tokens.NewEstimatingCounterWithRatio(1))

func TestNewDefaults(t *testing.T) {
	tests := []struct {
		strategy Strategy
		marker   string
		name     string
	}{
		{KeepHead, DefaultMarker, "head"},
		{KeepTail, DefaultMarker, "tail"},
		{KeepEnds, DefaultEndsMarker, "ends"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.strategy)
			assert.Equal(t, tt.strategy, tr.Strategy())
			assert.Equal(t, tt.marker, tr.Marker())
			assert.Equal(t, tt.name, tt.strategy.String())
		})
	}
}

func TestTruncate(t *testing.T) {
	const text = "abcdefghij"
	tests := []struct {
		name    string
		tr      *Truncator
		max     int
		want    string
		wantCut bool
	}{
		{"fits", New(KeepHead, perRune), 10, text, false},
		{"head", New(KeepHead, perRune), 6, "abc...", true},
		{"tail", New(KeepTail, perRune), 6, "...hij", true},
		{"ends", New(KeepEnds, perRune, WithMarker("|")), 7, "abc|hij", true},
		{"ends odd budget", New(KeepEnds, perRune, WithMarker("|")), 8, "abc|ghij", true},
		{"marker only", New(KeepHead, perRune), 2, "...", true},
		{"empty marker", New(KeepHead, perRune, WithMarker("")), 4, "abcd", true},
		{"zero budget", New(KeepTail, perRune), 0, "...", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := tt.tr.Truncate(text, tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCut, cut)
		})
	}
}

func TestTruncateRuneBoundaries(t *testing.T) {
	tr := New(KeepHead, perRune, WithMarker("…"))
	got, cut := tr.Truncate("héllo wörld", 5)
	assert.True(t, cut)
	assert.Equal(t, "héll…", got)

	tr = New(KeepTail, perRune, WithMarker("…"))
	got, _ = tr.Truncate("héllo wörld", 5)
	assert.Equal(t, "…örld", got)
}

func TestTruncateNeverExceedsBudget(t *testing.T) {
	counter := tokens.NewEstimatingCounterWithRatio(1)
	text := "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs."
	for _, s := range []Strategy{KeepHead, KeepTail, KeepEnds} {
		for max := 1; max < 90; max += 7 {
			got, _ := New(s, WithCounter(counter), WithMarker("~")).Truncate(text, max)
			assert.LessOrEqual(t, counter.Count(got), max, "%s max=%d got=%q", s, max, got)
		}
	}
}

func TestStage(t *testing.T) {
	stage := New(KeepHead, perRune).Stage(6)

	out, err := stage.Invoke(context.Background(), &provider.Response{Content: "abcdefghij"})
	require.NoError(t, err)
	assert.Equal(t, "abc...", out)

	out, err = stage.Invoke(context.Background(), "short")
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	_, err = stage.Invoke(context.Background(), 42)
	assert.Error(t, err)
}
