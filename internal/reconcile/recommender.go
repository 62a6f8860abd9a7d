package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
)

// Branch confidence values. The auto-processable branches (RELIST, WASTE)
// are exact by contract; downstream filters and historical audit reports
// depend on seeing precisely these numbers.
const (
	confidenceRelist          = 95
	confidenceWasteKeptItem   = 90
	confidenceDeliveredReview = 75
	confidenceTrackingUnclear = 60
	confidenceStillOpen       = 30
	confidenceUnknownStatus   = 20
	confidenceBonusRefund     = 5 // tunable, applied on manual-review paths only
	confidenceBonusComments   = 3 // tunable, applied on manual-review paths only
	confidenceCeiling         = 100
)

// Recommendation is the recommender's disposition verdict for one return
type Recommendation struct {
	Action           domain.DispositionAction
	Confidence       int
	Reasoning        []string
	AutoProcessable  bool
	SuggestedUpdates map[string]interface{}
}

// Recommend decides what to do with a returned item given the return record
// and the seller's currently active listings. Reasoning strings accumulate
// verbatim along the decision path for audit and manual-review display.
func Recommend(ret *domain.Return, activeListings []ebay.Listing) Recommendation {
	rec := Recommendation{
		Action:           domain.ActionManualReview,
		SuggestedUpdates: map[string]interface{}{},
	}

	// An item already re-listed under the same SKU means the return came
	// back and went up for sale again: record the cost side and move on.
	if ret.SKU != nil && *ret.SKU != "" {
		if listingWithSKU(activeListings, *ret.SKU) {
			rec.Action = domain.ActionRelist
			rec.Confidence = confidenceRelist
			rec.AutoProcessable = true
			rec.Reasoning = append(rec.Reasoning,
				fmt.Sprintf("SKU %s matches a currently active listing", *ret.SKU))
			rec.SuggestedUpdates["returnDate"] = returnDateOrNow(ret)
			rec.SuggestedUpdates["returnShippingCost"] = ret.ShippingCostValue()
			if ret.RefundAmount != nil {
				rec.SuggestedUpdates["refund"] = *ret.RefundAmount
			}
			rec.SuggestedUpdates["isRelisted"] = true
			return rec
		}
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("SKU %s not found among active listings", *ret.SKU))
	} else {
		rec.Reasoning = append(rec.Reasoning, "No SKU on return, cannot verify against active listings")
	}

	switch ret.ReturnStatus {
	case domain.ReturnStatusClosed:
		if ret.ShippingCostValue() <= 0 {
			// No return shipping was ever paid: the buyer kept the item
			// (refund without return), so nothing physically came back.
			rec.Action = domain.ActionWaste
			rec.Confidence = confidenceWasteKeptItem
			rec.AutoProcessable = true
			rec.Reasoning = append(rec.Reasoning,
				"Return closed with no return shipping cost, buyer kept the item")
			return rec
		}

		if ret.TrackingStatus != nil && *ret.TrackingStatus == domain.TrackingDelivered {
			rec.Confidence = confidenceDeliveredReview
			rec.Reasoning = append(rec.Reasoning,
				"Returned item delivered back, physical inspection required before relisting")
		} else {
			rec.Confidence = confidenceTrackingUnclear
			rec.Reasoning = append(rec.Reasoning,
				"Return shipping paid but tracking is ambiguous")
		}

	case domain.ReturnStatusOpen:
		rec.Confidence = confidenceStillOpen
		rec.Reasoning = append(rec.Reasoning,
			"Return still open, not yet finalized by the platform")

	default:
		rec.Confidence = confidenceUnknownStatus
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("Unknown return status %q", string(ret.ReturnStatus)))
	}

	// Extra context raises reviewer confidence slightly; these bonuses never
	// touch the exact auto-processable confidences above.
	if ret.RefundAmount != nil {
		rec.Confidence += confidenceBonusRefund
		rec.Reasoning = append(rec.Reasoning, "Refund amount available")
	}
	if ret.BuyerComments != nil && strings.TrimSpace(*ret.BuyerComments) != "" {
		rec.Confidence += confidenceBonusComments
		rec.Reasoning = append(rec.Reasoning, "Buyer comments available")
	}
	if rec.Confidence > confidenceCeiling {
		rec.Confidence = confidenceCeiling
	}

	return rec
}

func listingWithSKU(listings []ebay.Listing, sku string) bool {
	for _, l := range listings {
		if l.SKU == sku {
			return true
		}
	}
	return false
}

func returnDateOrNow(ret *domain.Return) time.Time {
	if ret.CreationDate != nil {
		return *ret.CreationDate
	}
	return time.Now()
}
