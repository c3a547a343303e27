package tokens

// Default allocation percentages for NewBudget.
const (
	DefaultSystemPercent   = 20
	DefaultContextPercent  = 40
	DefaultUserPercent     = 30
	DefaultReservedPercent = 10
)

// Budget splits a context window across prompt components. The Context
// share bounds conversation history and retrieved documents.
type Budget struct {
	Total    int
	System   int
	Context  int
	User     int
	Reserved int

	counter Counter
}

// NewBudget creates a budget with the default 20/40/30/10 split.
// A nil counter uses the estimating counter.
func NewBudget(total int, counter Counter) *Budget {
	return NewBudgetWithAllocation(total, counter,
		DefaultSystemPercent, DefaultContextPercent, DefaultUserPercent, DefaultReservedPercent)
}

// NewModelBudget creates a default budget sized to model's context window.
func NewModelBudget(model string, counter Counter) *Budget {
	return NewBudget(GetModelLimit(model), counter)
}

// NewBudgetWithAllocation creates a budget from relative weights, normalized
// to total. Zero weights everywhere fall back to sum 100.
func NewBudgetWithAllocation(total int, counter Counter, system, context, user, reserved int) *Budget {
	sum := system + context + user + reserved
	if sum == 0 {
		sum = 100
	}
	if counter == nil {
		counter = NewEstimatingCounter()
	}
	return &Budget{
		Total:    total,
		System:   total * system / sum,
		Context:  total * context / sum,
		User:     total * user / sum,
		Reserved: total * reserved / sum,
		counter:  counter,
	}
}

// Counter returns the counter the budget measures text with.
func (b *Budget) Counter() Counter {
	return b.counter
}

// FitsSystem reports whether text fits the system share.
func (b *Budget) FitsSystem(text string) bool {
	return b.counter.FitsInLimit(text, b.System)
}

// FitsContext reports whether text fits the context share.
func (b *Budget) FitsContext(text string) bool {
	return b.counter.FitsInLimit(text, b.Context)
}

// FitsUser reports whether text fits the user share.
func (b *Budget) FitsUser(text string) bool {
	return b.counter.FitsInLimit(text, b.User)
}

// RemainingContext returns the context share left after usedTokens.
func (b *Budget) RemainingContext(usedTokens int) int {
	return max(b.Context-usedTokens, 0)
}

// RemainingTotal returns the tokens left after the given usage and the
// reserved share.
func (b *Budget) RemainingTotal(systemUsed, contextUsed, userUsed int) int {
	return max(b.Total-(systemUsed+contextUsed+userUsed+b.Reserved), 0)
}
