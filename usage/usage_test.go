package usage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/promptchain/provider"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		model string
		want  Family
	}{
		{"claude-opus-4-1-20250805", FamilyOpus},
		{"claude-sonnet-4-5", FamilySonnet},
		{"Claude-3-5-Haiku-latest", FamilyHaiku},
		{"sonnet", FamilySonnet},
		{"gpt-4o", FamilyGPT},
		{"gpt-4o-mini", FamilyGPTMini},
		{"gpt-5-nano", FamilyGPTMini},
		{"llama3", Family("llama3")},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.model))
		})
	}
}

func TestTiers(t *testing.T) {
	assert.Equal(t, TierThinking, TierFor("claude-opus-4-1"))
	assert.Equal(t, TierFast, TierFor("claude-haiku-4-5"))
	assert.Equal(t, TierDefault, TierFor("something-else"))
	assert.Equal(t, "thinking", TierThinking.String())
	assert.Equal(t, "unknown", Tier(9).String())

	for _, tier := range []Tier{TierFast, TierDefault, TierThinking} {
		parsed, err := ParseTier(tier.String())
		assert.NoError(t, err)
		assert.Equal(t, tier, parsed)
		assert.Equal(t, tier, TierFor(ModelForTier(tier)))
	}
	_, err := ParseTier("turbo")
	assert.Error(t, err)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Record("claude-sonnet-4-5", provider.TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000})
	tr.Record("claude-sonnet-4-5-20250929", provider.TokenUsage{InputTokens: 0, OutputTokens: 100_000, CacheReadInputTokens: 1_000_000})
	tr.Record("local-model", provider.TokenUsage{InputTokens: 10, OutputTokens: 10})

	sonnet := tr.Usage(FamilySonnet)
	assert.Equal(t, 2, sonnet.Requests)
	assert.Equal(t, 1_200_000, sonnet.TotalTokens())

	// 3.00 input + 3.00 output + 0.30 cache read
	assert.InDelta(t, 6.30, tr.EstimatedCost(), 1e-9)
	assert.NotContains(t, tr.EstimatedCostByFamily(), Family("local-model"))

	assert.Equal(t, 3, tr.Total().Requests)
	assert.Len(t, tr.Summary(), 2)

	tr.Reset()
	assert.Zero(t, tr.Total())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("claude-haiku-4-5", provider.TokenUsage{InputTokens: 1, OutputTokens: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tr.Usage(FamilyHaiku).Requests)
}
