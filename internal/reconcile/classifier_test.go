package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gearflip/resaleapi/internal/domain"
)

func TestClassifyNoLinkedItem(t *testing.T) {
	state := ClassifyProcessingState(&domain.Return{}, nil)
	assert.False(t, state.Processed)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 6, state.MaxScore)
	assert.Equal(t, []string{"No linked inventory item"}, state.Reasons)
}

func TestClassifyScoreBoundary(t *testing.T) {
	auto := true
	now := time.Now()

	// Three indicators: below the threshold, still unprocessed.
	three := &domain.InventoryItem{
		ReturnDate:      timePtr(now),
		ReturnCount:     1,
		AutomaticReturn: &auto,
	}
	state := ClassifyProcessingState(&domain.Return{}, three)
	assert.Equal(t, 3, state.Score)
	assert.False(t, state.Processed)

	// A fourth indicator tips it over.
	four := &domain.InventoryItem{
		ReturnDate:        timePtr(now),
		ReturnCount:       1,
		AutomaticReturn:   &auto,
		LastReturnedOrder: strPtr("17-09999-11111"),
	}
	state = ClassifyProcessingState(&domain.Return{}, four)
	assert.Equal(t, 4, state.Score)
	assert.True(t, state.Processed)
}

func TestClassifyAllIndicators(t *testing.T) {
	auto := false // an explicit false still counts as "flag was set"
	item := &domain.InventoryItem{
		ReturnDate:        timePtr(time.Now()),
		ReturnCount:       2,
		AutomaticReturn:   &auto,
		LastReturnedOrder: strPtr("17-09999-11111"),
		AdditionalCosts: []domain.AdditionalCost{
			{Title: domain.CostReturnShipping, Amount: 9.50},
			{Title: domain.CostRefund, Amount: 42},
		},
	}
	state := ClassifyProcessingState(&domain.Return{}, item)
	assert.Equal(t, 6, state.Score)
	assert.True(t, state.Processed)
	assert.Len(t, state.Reasons, 6)
}

// A cost entry with the right title but a zero amount is not evidence that
// return shipping was recorded.
func TestClassifyZeroCostEntryDoesNotCount(t *testing.T) {
	item := &domain.InventoryItem{
		AdditionalCosts: []domain.AdditionalCost{
			{Title: domain.CostReturnShipping, Amount: 0},
		},
	}
	state := ClassifyProcessingState(&domain.Return{}, item)
	// The entry still counts toward "additional costs recorded", just not
	// toward the shipping-specific indicator.
	assert.Equal(t, 1, state.Score)
	assert.False(t, state.Processed)
}
