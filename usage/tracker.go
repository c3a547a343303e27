package usage

import (
	"maps"
	"sync"

	"github.com/randalmurphal/promptchain/provider"
)

// Usage is accumulated token usage for one family.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheReadTokens  int `json:"cache_read_tokens"`
	CacheWriteTokens int `json:"cache_write_tokens"`
	Requests         int `json:"requests"`
}

// Add adds other to u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheWriteTokens += other.CacheWriteTokens
	u.Requests += other.Requests
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Pricing is USD per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Cost returns the cost of u. Cache reads bill at 10% and cache writes at
// 125% of the input price.
func (p Pricing) Cost(u Usage) float64 {
	const million = 1_000_000
	return float64(u.InputTokens)/million*p.InputPerMillion +
		float64(u.OutputTokens)/million*p.OutputPerMillion +
		float64(u.CacheReadTokens)/million*p.InputPerMillion*0.1 +
		float64(u.CacheWriteTokens)/million*p.InputPerMillion*1.25
}

// Prices holds list prices per family.
var Prices = map[Family]Pricing{
	FamilyOpus:    {InputPerMillion: 15.0, OutputPerMillion: 75.0},
	FamilySonnet:  {InputPerMillion: 3.0, OutputPerMillion: 15.0},
	FamilyHaiku:   {InputPerMillion: 1.0, OutputPerMillion: 5.0},
	FamilyGPT:     {InputPerMillion: 1.25, OutputPerMillion: 10.0},
	FamilyGPTMini: {InputPerMillion: 0.25, OutputPerMillion: 2.0},
}

// Tracker accumulates usage per family. It is safe for concurrent use, so a
// single Tracker can be shared by every model stage of a parallel pipeline.
type Tracker struct {
	mu     sync.RWMutex
	totals map[Family]Usage
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{totals: make(map[Family]Usage)}
}

// Record adds one request's usage for model.
func (t *Tracker) Record(model string, u provider.TokenUsage) {
	t.RecordUsage(Normalize(model), Usage{
		InputTokens:      u.InputTokens,
		OutputTokens:     u.OutputTokens,
		CacheReadTokens:  u.CacheReadInputTokens,
		CacheWriteTokens: u.CacheCreationInputTokens,
		Requests:         1,
	})
}

// RecordUsage adds usage for family.
func (t *Tracker) RecordUsage(family Family, u Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.totals[family]
	total.Add(u)
	t.totals[family] = total
}

// Usage returns the usage for family.
func (t *Tracker) Usage(family Family) Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totals[family]
}

// Summary returns a copy of all totals.
func (t *Tracker) Summary() map[Family]Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.totals)
}

// Total returns usage aggregated across families.
func (t *Tracker) Total() Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total Usage
	for _, u := range t.totals {
		total.Add(u)
	}
	return total
}

// EstimatedCost returns the cost of all tracked usage. Families without a
// price contribute nothing.
func (t *Tracker) EstimatedCost() float64 {
	var total float64
	for _, c := range t.EstimatedCostByFamily() {
		total += c
	}
	return total
}

// EstimatedCostByFamily returns the cost per priced family.
func (t *Tracker) EstimatedCostByFamily() map[Family]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[Family]float64, len(t.totals))
	for family, u := range t.totals {
		if p, ok := Prices[family]; ok {
			result[family] = p.Cost(u)
		}
	}
	return result
}

// Reset clears all tracked usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.totals)
}
