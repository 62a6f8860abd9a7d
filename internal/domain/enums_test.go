package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemStatusIsValid(t *testing.T) {
	assert.True(t, ItemStatusActive.IsValid())
	assert.True(t, ItemStatusWaste.IsValid())
	assert.True(t, ItemStatusCompleted.IsValid())
	assert.False(t, ItemStatus("archived").IsValid())
	assert.False(t, ItemStatus("").IsValid())
}

func TestReturnStatusIsTerminal(t *testing.T) {
	assert.True(t, ReturnStatusClosed.IsTerminal())
	assert.False(t, ReturnStatusOpen.IsTerminal())
	assert.False(t, ReturnStatusEscalated.IsTerminal())
}

func TestDispositionActionIsValid(t *testing.T) {
	assert.True(t, ActionRelist.IsValid())
	assert.True(t, ActionWaste.IsValid())
	assert.True(t, ActionManualReview.IsValid())
	assert.False(t, DispositionAction("DISCARD").IsValid())
}

func TestUserSettingsDefaults(t *testing.T) {
	var s UserSettings
	assert.True(t, s.AutomaticReturnsEnabled())
	assert.True(t, s.AutoRelistEnabled())
	assert.True(t, s.AutoWasteEnabled())

	off := false
	s.AutoWaste = &off
	assert.False(t, s.AutoWasteEnabled())
	assert.True(t, s.AutoRelistEnabled())
}

func TestHasCostEntry(t *testing.T) {
	item := InventoryItem{
		AdditionalCosts: []AdditionalCost{
			{Title: CostReturnShipping, Amount: 0},
			{Title: CostRefund, Amount: 42},
		},
	}
	assert.True(t, item.HasCostEntry(CostRefund))
	// Zero-amount entries do not count.
	assert.False(t, item.HasCostEntry(CostReturnShipping))
	assert.False(t, item.HasCostEntry("repair"))
}
