package domain

// ItemStatus represents the lifecycle status of an inventory item
type ItemStatus string

const (
	ItemStatusActive    ItemStatus = "active"
	ItemStatusWaste     ItemStatus = "waste"
	ItemStatusCompleted ItemStatus = "completed"
)

// IsValid checks if the item status is valid
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusActive, ItemStatusWaste, ItemStatusCompleted:
		return true
	default:
		return false
	}
}

// ReturnStatus represents the platform-side status of a return
type ReturnStatus string

const (
	ReturnStatusOpen      ReturnStatus = "OPEN"
	ReturnStatusClosed    ReturnStatus = "CLOSED"
	ReturnStatusEscalated ReturnStatus = "ESCALATED"
)

// IsValid checks if the return status is valid
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusOpen, ReturnStatusClosed, ReturnStatusEscalated:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the platform has finalized the return. A CLOSED
// return's content is immutable; only the sync timestamp may still change.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusClosed
}

// DispositionAction is the recommended handling for a returned item
type DispositionAction string

const (
	ActionRelist       DispositionAction = "RELIST"
	ActionWaste        DispositionAction = "WASTE"
	ActionManualReview DispositionAction = "MANUAL_REVIEW"
)

// IsValid checks if the disposition action is valid
func (a DispositionAction) IsValid() bool {
	switch a {
	case ActionRelist, ActionWaste, ActionManualReview:
		return true
	default:
		return false
	}
}

// Tracking statuses reported by the platform's shipment tracking
const (
	TrackingDelivered = "DELIVERED"
	TrackingInTransit = "IN_TRANSIT"
)

// Match strategy labels recorded on linked returns
const (
	StrategyExactSKU       = "ExactSKU"
	StrategyExactOrder     = "ExactOrder"
	StrategyExactListing   = "ExactListing"
	StrategyFuzzyMatch     = "FuzzyMatch"
	StrategyFuzzyMatchLow  = "FuzzyMatchLow"
	StrategyBuyerMatch     = "BuyerMatch"
	StrategyBuyerTentative = "BuyerMatchTentative"
)
