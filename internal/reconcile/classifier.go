package reconcile

import (
	"github.com/gearflip/resaleapi/internal/domain"
)

// processedScoreThreshold is how many of the six indicators must be present
// before a return counts as fully processed. The check is deliberately
// approximate: return handling writes its side effects through several
// uncoordinated paths (live sync, manual edits, backfills), so any strict
// state machine would misclassify historical data.
const (
	processedScoreThreshold = 4
	processedIndicatorCount = 6
)

// ProcessingState is the classifier's verdict on a return
type ProcessingState struct {
	Processed bool
	Score     int
	MaxScore  int
	Reasons   []string
}

// ClassifyProcessingState decides whether a return has already been applied
// to its linked inventory item by scoring six independent side-effect
// indicators, one point each.
func ClassifyProcessingState(ret *domain.Return, item *domain.InventoryItem) ProcessingState {
	if item == nil {
		return ProcessingState{
			Processed: false,
			MaxScore:  processedIndicatorCount,
			Reasons:   []string{"No linked inventory item"},
		}
	}

	state := ProcessingState{MaxScore: processedIndicatorCount}

	if item.ReturnDate != nil {
		state.Score++
		state.Reasons = append(state.Reasons, "Return date recorded")
	}
	if item.HasCostEntry(domain.CostReturnShipping) {
		state.Score++
		state.Reasons = append(state.Reasons, "Return shipping cost entry present")
	}
	if item.LastReturnedOrder != nil && *item.LastReturnedOrder != "" {
		state.Score++
		state.Reasons = append(state.Reasons, "Last returned order recorded")
	}
	if item.ReturnCount > 0 {
		state.Score++
		state.Reasons = append(state.Reasons, "Return count incremented")
	}
	if item.AutomaticReturn != nil {
		state.Score++
		state.Reasons = append(state.Reasons, "Automatic-return flag set")
	}
	if len(item.AdditionalCosts) > 0 {
		state.Score++
		state.Reasons = append(state.Reasons, "Additional costs recorded")
	}

	state.Processed = state.Score >= processedScoreThreshold
	return state
}
