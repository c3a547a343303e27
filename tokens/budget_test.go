package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBudget(t *testing.T) {
	b := NewBudget(1000, nil)
	assert.Equal(t, 200, b.System)
	assert.Equal(t, 400, b.Context)
	assert.Equal(t, 300, b.User)
	assert.Equal(t, 100, b.Reserved)
	assert.IsType(t, &EstimatingCounter{}, b.Counter())
}

func TestNewBudgetWithAllocation(t *testing.T) {
	b := NewBudgetWithAllocation(1000, nil, 1, 2, 1, 0)
	assert.Equal(t, 250, b.System)
	assert.Equal(t, 500, b.Context)
	assert.Equal(t, 250, b.User)
	assert.Equal(t, 0, b.Reserved)

	zero := NewBudgetWithAllocation(1000, nil, 0, 0, 0, 0)
	assert.Equal(t, 0, zero.Context)
}

func TestNewModelBudget(t *testing.T) {
	b := NewModelBudget("claude-opus-4", NewEstimatingCounter())
	assert.Equal(t, 200000, b.Total)
	assert.Equal(t, 80000, b.Context)
}

func TestBudget_Fits(t *testing.T) {
	b := NewBudget(20, nil) // system 4, context 8, user 6
	assert.True(t, b.FitsSystem("abcdefghijklmnop"))
	assert.False(t, b.FitsSystem("abcdefghijklmnopqrst"))
	assert.True(t, b.FitsContext("abcdefghijklmnopqrstuvwxyz012345"))
	assert.False(t, b.FitsUser("abcdefghijklmnopqrstuvwxyz012345"))
}

func TestBudget_Remaining(t *testing.T) {
	b := NewBudget(1000, nil)
	assert.Equal(t, 300, b.RemainingContext(100))
	assert.Equal(t, 0, b.RemainingContext(1000))
	assert.Equal(t, 600, b.RemainingTotal(100, 100, 100))
	assert.Equal(t, 0, b.RemainingTotal(1000, 0, 0))
}
