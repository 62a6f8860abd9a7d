package reconcile

import (
	"strconv"
	"strings"
	"time"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
)

// DefaultRefundCurrency is assumed when the platform omits a currency code.
const DefaultRefundCurrency = "USD"

// commentExtractor is one step in the buyer-comment fallback chain.
type commentExtractor func(p ebay.ReturnPayload) string

// Buyer comments appear in a different place depending on API version and on
// how the buyer opened the return. Extractors are tried in order; the first
// non-empty string wins. Absence is not an error.
var commentExtractors = []commentExtractor{
	func(p ebay.ReturnPayload) string {
		if p.Detail == nil || p.Detail.CreationInfo == nil || p.Detail.CreationInfo.Comments == nil {
			return ""
		}
		return p.Detail.CreationInfo.Comments.Content
	},
	func(p ebay.ReturnPayload) string {
		for _, ev := range responseHistory(p) {
			if ev.BuyerNotes != "" {
				return ev.BuyerNotes
			}
		}
		return ""
	},
	func(p ebay.ReturnPayload) string {
		for _, ev := range responseHistory(p) {
			if strings.EqualFold(ev.Author, "BUYER") && ev.Notes != "" {
				return ev.Notes
			}
		}
		return ""
	},
	func(p ebay.ReturnPayload) string {
		for _, ev := range responseHistory(p) {
			if ev.Comments != nil && ev.Comments.Content != "" {
				return ev.Comments.Content
			}
		}
		return ""
	},
	func(p ebay.ReturnPayload) string {
		for _, ev := range responseHistory(p) {
			for _, key := range []string{"buyerComments", "comments", "note"} {
				if v, ok := ev.Attributes[key].(string); ok && v != "" {
					return v
				}
			}
		}
		return ""
	},
	func(p ebay.ReturnPayload) string {
		if p.Summary == nil {
			return ""
		}
		return p.Summary.Comments
	},
}

// NormalizeReturn converts a raw platform payload into a canonical return
// record. Every field is either populated or nil, never present-but-empty.
// Identity fields (ID, UserID) are left for the caller to assign.
func NormalizeReturn(p ebay.ReturnPayload) *domain.Return {
	ret := &domain.Return{
		EbayReturnID: strings.TrimSpace(p.ReturnID),
	}

	ret.ReturnStatus = domain.ReturnStatus(normalizeToken(pickStatus(p)))

	if p.Summary != nil {
		ret.OrderID = optionalString(p.Summary.OrderID)
		ret.ItemID = optionalString(p.Summary.ItemID)
		ret.ItemTitle = optionalString(p.Summary.ItemTitle)
		ret.SKU = optionalString(p.Summary.SKU)
		ret.BuyerLoginName = optionalString(p.Summary.BuyerLoginName)
		ret.ReturnReason = optionalString(p.Summary.ReturnReason)
	}
	if p.Detail != nil {
		if p.Detail.CreationInfo != nil && p.Detail.CreationInfo.Reason != "" {
			ret.ReturnReason = optionalString(p.Detail.CreationInfo.Reason)
		}
		ret.RefundStatus = optionalString(normalizeToken(p.Detail.RefundStatus))
	}

	ret.BuyerComments = extractBuyerComments(p)

	amount, currency := extractRefund(p)
	ret.RefundAmount = amount
	ret.RefundCurrency = currency
	ret.SellerRefundAmount = extractSellerRefund(p)
	ret.ReturnShippingCost = extractShippingCost(p)

	ret.CreationDate = extractCreationDate(p)

	tracking := extractTracking(p)
	ret.TrackingNumber = tracking.number
	ret.Carrier = tracking.carrier
	ret.TrackingStatus = tracking.status
	ret.ShipDate = tracking.shipDate
	ret.DeliveryDate = tracking.deliveryDate

	if p.Detail != nil {
		for _, entry := range p.Detail.StatusHistory {
			ev := domain.StatusEvent{Status: normalizeToken(entry.Status)}
			if entry.Date != nil {
				ev.Date = entry.Date.Value
			}
			ret.StatusHistory = append(ret.StatusHistory, ev)
		}
	}

	return ret
}

// extractBuyerComments walks the fallback chain; first non-empty wins.
func extractBuyerComments(p ebay.ReturnPayload) *string {
	for _, extract := range commentExtractors {
		if v := strings.TrimSpace(extract(p)); v != "" {
			return &v
		}
	}
	return nil
}

// extractRefund prefers detail over summary and the buyer-side refund over
// the seller-side one, falling back progressively.
func extractRefund(p ebay.ReturnPayload) (*float64, string) {
	candidates := []*ebay.Amount{}
	if p.Detail != nil && p.Detail.RefundInfo != nil {
		candidates = append(candidates,
			p.Detail.RefundInfo.BuyerTotalRefund,
			p.Detail.RefundInfo.ActualRefundAmount,
			p.Detail.RefundInfo.EstimatedRefundAmount,
		)
	}
	if p.Summary != nil {
		candidates = append(candidates, p.Summary.BuyerTotalRefund)
		if p.Summary.RefundInfo != nil {
			candidates = append(candidates,
				p.Summary.RefundInfo.BuyerTotalRefund,
				p.Summary.RefundInfo.ActualRefundAmount,
			)
		}
	}
	if p.Detail != nil && p.Detail.RefundInfo != nil {
		candidates = append(candidates, p.Detail.RefundInfo.SellerTotalRefund)
	}
	if p.Summary != nil {
		candidates = append(candidates, p.Summary.SellerTotalRefund)
	}

	for _, c := range candidates {
		if c == nil {
			continue
		}
		amount := c.Value
		currency := strings.TrimSpace(c.Currency)
		if currency == "" {
			currency = DefaultRefundCurrency
		}
		return &amount, currency
	}
	return nil, DefaultRefundCurrency
}

func extractSellerRefund(p ebay.ReturnPayload) *float64 {
	if p.Detail != nil && p.Detail.RefundInfo != nil && p.Detail.RefundInfo.SellerTotalRefund != nil {
		v := p.Detail.RefundInfo.SellerTotalRefund.Value
		return &v
	}
	if p.Summary != nil && p.Summary.SellerTotalRefund != nil {
		v := p.Summary.SellerTotalRefund.Value
		return &v
	}
	return nil
}

func extractShippingCost(p ebay.ReturnPayload) *float64 {
	if p.Detail == nil {
		return nil
	}
	if p.Detail.ReturnShippingCost != nil {
		v := p.Detail.ReturnShippingCost.Value
		return &v
	}
	if p.Detail.ReturnShipmentInfo != nil && p.Detail.ReturnShipmentInfo.ReturnLabelCost != nil {
		v := p.Detail.ReturnShipmentInfo.ReturnLabelCost.Value
		return &v
	}
	return nil
}

func extractCreationDate(p ebay.ReturnPayload) *time.Time {
	if p.Detail != nil && p.Detail.CreationInfo != nil && p.Detail.CreationInfo.CreationDate != nil {
		t := p.Detail.CreationInfo.CreationDate.Value
		return &t
	}
	if p.Summary != nil && p.Summary.CreationDate != nil {
		t := p.Summary.CreationDate.Value
		return &t
	}
	return nil
}

type trackingFields struct {
	number       *string
	carrier      *string
	status       *string
	shipDate     *time.Time
	deliveryDate *time.Time
}

// extractTracking reads only detail.returnShipmentInfo.shipmentTracking;
// without a detail record all tracking fields stay nil.
func extractTracking(p ebay.ReturnPayload) trackingFields {
	var out trackingFields
	if p.Detail == nil || p.Detail.ReturnShipmentInfo == nil || p.Detail.ReturnShipmentInfo.ShipmentTracking == nil {
		return out
	}

	st := p.Detail.ReturnShipmentInfo.ShipmentTracking
	out.number = optionalString(st.TrackingNumber)
	out.carrier = optionalString(st.Carrier)
	out.status = optionalString(normalizeToken(st.DeliveryStatus))
	if st.ShippedDate != nil {
		t := st.ShippedDate.Value
		out.shipDate = &t
	}
	if st.ActualDeliveryDate != nil {
		t := st.ActualDeliveryDate.Value
		out.deliveryDate = &t
	}
	return out
}

func pickStatus(p ebay.ReturnPayload) string {
	if p.Detail != nil && strings.TrimSpace(p.Detail.Status) != "" {
		return p.Detail.Status
	}
	if p.Summary != nil {
		return p.Summary.Status
	}
	return ""
}

// HasReturnChanged reports whether the incoming normalized record differs from
// the stored one in any synced field. Both sides are normalized (trim,
// uppercase, stringify) before comparison; an identical payload warrants only
// a sync-timestamp touch.
func HasReturnChanged(existing, incoming *domain.Return) bool {
	if normalizeToken(string(existing.ReturnStatus)) != normalizeToken(string(incoming.ReturnStatus)) {
		return true
	}
	if normalizePtr(existing.TrackingStatus) != normalizePtr(incoming.TrackingStatus) {
		return true
	}
	if normalizePtr(existing.TrackingNumber) != normalizePtr(incoming.TrackingNumber) {
		return true
	}
	if stringifyAmount(existing.RefundAmount) != stringifyAmount(incoming.RefundAmount) {
		return true
	}
	if stringifyAmount(existing.ReturnShippingCost) != stringifyAmount(incoming.ReturnShippingCost) {
		return true
	}
	if !sameDate(existing.ShipDate, incoming.ShipDate) {
		return true
	}
	if !sameDate(existing.DeliveryDate, incoming.DeliveryDate) {
		return true
	}
	return false
}

func normalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizePtr(s *string) string {
	if s == nil {
		return ""
	}
	return normalizeToken(*s)
}

func stringifyAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UTC().Equal(b.UTC())
}

func responseHistory(p ebay.ReturnPayload) []ebay.ResponseEvent {
	if p.Detail == nil {
		return nil
	}
	return p.Detail.ResponseHistory
}

func optionalString(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}
