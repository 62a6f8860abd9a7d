package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
)

func TestNormalizeReturnFullPayload(t *testing.T) {
	created := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	shipped := created.AddDate(0, 0, 2)
	delivered := created.AddDate(0, 0, 6)

	p := ebay.ReturnPayload{
		ReturnID: " 5100 ",
		Summary: &ebay.ReturnSummary{
			Status:         "open",
			OrderID:        "17-55555-66666",
			ItemID:         "330099887",
			ItemTitle:      "Vintage Polaroid 600 Camera",
			SKU:            "POL-600",
			BuyerLoginName: "camera_carl",
			ReturnReason:   "NOT_AS_DESCRIBED",
		},
		Detail: &ebay.ReturnDetail{
			Status:       " closed ",
			RefundStatus: "refunded",
			RefundInfo: &ebay.RefundInfo{
				BuyerTotalRefund: &ebay.Amount{Value: 57.80, Currency: "usd"},
			},
			ReturnShippingCost: &ebay.Amount{Value: 9.10},
			CreationInfo: &ebay.CreationInfo{
				Reason:       "DEFECTIVE_ITEM",
				CreationDate: &ebay.DateValue{Value: created},
				Comments:     &ebay.Comments{Content: "flash does not fire"},
			},
			ReturnShipmentInfo: &ebay.ReturnShipmentInfo{
				ShipmentTracking: &ebay.ShipmentTracking{
					TrackingNumber:     "9400111899",
					Carrier:            "USPS",
					DeliveryStatus:     "delivered",
					ShippedDate:        &ebay.DateValue{Value: shipped},
					ActualDeliveryDate: &ebay.DateValue{Value: delivered},
				},
			},
			StatusHistory: []ebay.StatusHistoryEntry{
				{Status: "open", Date: &ebay.DateValue{Value: created}},
				{Status: "closed", Date: &ebay.DateValue{Value: delivered}},
			},
		},
	}

	ret := NormalizeReturn(p)

	assert.Equal(t, "5100", ret.EbayReturnID)
	// Detail status wins over summary and is uppercased.
	assert.Equal(t, domain.ReturnStatusClosed, ret.ReturnStatus)
	require.NotNil(t, ret.RefundStatus)
	assert.Equal(t, "REFUNDED", *ret.RefundStatus)
	// Detail creation reason overrides the summary one.
	require.NotNil(t, ret.ReturnReason)
	assert.Equal(t, "DEFECTIVE_ITEM", *ret.ReturnReason)

	require.NotNil(t, ret.SKU)
	assert.Equal(t, "POL-600", *ret.SKU)
	require.NotNil(t, ret.ItemTitle)
	assert.Equal(t, "Vintage Polaroid 600 Camera", *ret.ItemTitle)
	require.NotNil(t, ret.BuyerLoginName)
	assert.Equal(t, "camera_carl", *ret.BuyerLoginName)

	require.NotNil(t, ret.RefundAmount)
	assert.Equal(t, 57.80, *ret.RefundAmount)
	assert.Equal(t, "usd", ret.RefundCurrency)
	require.NotNil(t, ret.ReturnShippingCost)
	assert.Equal(t, 9.10, *ret.ReturnShippingCost)

	require.NotNil(t, ret.BuyerComments)
	assert.Equal(t, "flash does not fire", *ret.BuyerComments)

	require.NotNil(t, ret.TrackingNumber)
	assert.Equal(t, "9400111899", *ret.TrackingNumber)
	require.NotNil(t, ret.TrackingStatus)
	assert.Equal(t, "DELIVERED", *ret.TrackingStatus)
	require.NotNil(t, ret.ShipDate)
	assert.True(t, ret.ShipDate.Equal(shipped))
	require.NotNil(t, ret.DeliveryDate)
	assert.True(t, ret.DeliveryDate.Equal(delivered))
	require.NotNil(t, ret.CreationDate)
	assert.True(t, ret.CreationDate.Equal(created))

	require.Len(t, ret.StatusHistory, 2)
	assert.Equal(t, "OPEN", ret.StatusHistory[0].Status)
	assert.Equal(t, "CLOSED", ret.StatusHistory[1].Status)
}

func TestNormalizeReturnSummaryOnly(t *testing.T) {
	p := ebay.ReturnPayload{
		ReturnID: "5101",
		Summary: &ebay.ReturnSummary{
			Status:            "OPEN",
			SellerTotalRefund: &ebay.Amount{Value: 25},
			Comments:          "changed my mind",
		},
	}

	ret := NormalizeReturn(p)

	assert.Equal(t, domain.ReturnStatusOpen, ret.ReturnStatus)
	require.NotNil(t, ret.RefundAmount)
	assert.Equal(t, 25.0, *ret.RefundAmount)
	assert.Equal(t, DefaultRefundCurrency, ret.RefundCurrency)
	require.NotNil(t, ret.BuyerComments)
	assert.Equal(t, "changed my mind", *ret.BuyerComments)

	// Tracking comes only from the detail record.
	assert.Nil(t, ret.TrackingNumber)
	assert.Nil(t, ret.TrackingStatus)
	assert.Nil(t, ret.ShipDate)
	assert.Nil(t, ret.DeliveryDate)
}

func TestExtractBuyerCommentsFallbackOrder(t *testing.T) {
	withHistory := func(events ...ebay.ResponseEvent) ebay.ReturnPayload {
		return ebay.ReturnPayload{
			Detail:  &ebay.ReturnDetail{ResponseHistory: events},
			Summary: &ebay.ReturnSummary{Comments: "summary fallback"},
		}
	}

	tests := []struct {
		name string
		p    ebay.ReturnPayload
		want string
	}{
		{
			name: "creation comments beat everything",
			p: ebay.ReturnPayload{
				Detail: &ebay.ReturnDetail{
					CreationInfo: &ebay.CreationInfo{
						Comments: &ebay.Comments{Content: "primary"},
					},
					ResponseHistory: []ebay.ResponseEvent{{BuyerNotes: "secondary"}},
				},
			},
			want: "primary",
		},
		{
			name: "buyer notes in history",
			p:    withHistory(ebay.ResponseEvent{Notes: "seller note", Author: "SELLER"}, ebay.ResponseEvent{BuyerNotes: "item broken"}),
			want: "item broken",
		},
		{
			name: "buyer-authored notes",
			p:    withHistory(ebay.ResponseEvent{Author: "SELLER", Notes: "ok"}, ebay.ResponseEvent{Author: "buyer", Notes: "wrong size"}),
			want: "wrong size",
		},
		{
			name: "comment envelope in history",
			p:    withHistory(ebay.ResponseEvent{Comments: &ebay.Comments{Content: "from envelope"}}),
			want: "from envelope",
		},
		{
			name: "free-form attributes",
			p:    withHistory(ebay.ResponseEvent{Attributes: map[string]interface{}{"buyerComments": "from attributes"}}),
			want: "from attributes",
		},
		{
			name: "summary comments as last resort",
			p:    withHistory(),
			want: "summary fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractBuyerComments(tt.p)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	t.Run("absent everywhere", func(t *testing.T) {
		assert.Nil(t, extractBuyerComments(ebay.ReturnPayload{}))
	})
}

func TestExtractRefundPrecedence(t *testing.T) {
	pick := func(p ebay.ReturnPayload) float64 {
		amount, _ := extractRefund(p)
		require.NotNil(t, amount)
		return *amount
	}

	full := ebay.ReturnPayload{
		Detail: &ebay.ReturnDetail{
			RefundInfo: &ebay.RefundInfo{
				BuyerTotalRefund:      &ebay.Amount{Value: 10},
				ActualRefundAmount:    &ebay.Amount{Value: 20},
				EstimatedRefundAmount: &ebay.Amount{Value: 30},
				SellerTotalRefund:     &ebay.Amount{Value: 40},
			},
		},
		Summary: &ebay.ReturnSummary{
			BuyerTotalRefund:  &ebay.Amount{Value: 50},
			SellerTotalRefund: &ebay.Amount{Value: 60},
		},
	}
	assert.Equal(t, 10.0, pick(full))

	full.Detail.RefundInfo.BuyerTotalRefund = nil
	assert.Equal(t, 20.0, pick(full))

	full.Detail.RefundInfo.ActualRefundAmount = nil
	assert.Equal(t, 30.0, pick(full))

	full.Detail.RefundInfo.EstimatedRefundAmount = nil
	assert.Equal(t, 50.0, pick(full))

	full.Summary.BuyerTotalRefund = nil
	assert.Equal(t, 40.0, pick(full))

	full.Detail.RefundInfo.SellerTotalRefund = nil
	assert.Equal(t, 60.0, pick(full))

	amount, currency := extractRefund(ebay.ReturnPayload{})
	assert.Nil(t, amount)
	assert.Equal(t, DefaultRefundCurrency, currency)
}

func TestHasReturnChanged(t *testing.T) {
	shipDate := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	base := func() *domain.Return {
		return &domain.Return{
			ReturnStatus:       domain.ReturnStatusOpen,
			TrackingStatus:     strPtr("IN_TRANSIT"),
			TrackingNumber:     strPtr("9400111899"),
			RefundAmount:       f64Ptr(57.80),
			ReturnShippingCost: f64Ptr(9.10),
			ShipDate:           timePtr(shipDate),
		}
	}

	t.Run("identical payload is unchanged", func(t *testing.T) {
		assert.False(t, HasReturnChanged(base(), base()))
	})

	t.Run("case and whitespace differences are unchanged", func(t *testing.T) {
		incoming := base()
		incoming.TrackingStatus = strPtr("  in_transit ")
		assert.False(t, HasReturnChanged(base(), incoming))
	})

	t.Run("equal instants across zones are unchanged", func(t *testing.T) {
		incoming := base()
		incoming.ShipDate = timePtr(shipDate.In(time.FixedZone("PST", -8*3600)))
		assert.False(t, HasReturnChanged(base(), incoming))
	})

	t.Run("status change", func(t *testing.T) {
		incoming := base()
		incoming.ReturnStatus = domain.ReturnStatusClosed
		assert.True(t, HasReturnChanged(base(), incoming))
	})

	t.Run("refund change", func(t *testing.T) {
		incoming := base()
		incoming.RefundAmount = f64Ptr(60)
		assert.True(t, HasReturnChanged(base(), incoming))
	})

	t.Run("delivery date appears", func(t *testing.T) {
		incoming := base()
		incoming.DeliveryDate = timePtr(shipDate.AddDate(0, 0, 4))
		assert.True(t, HasReturnChanged(base(), incoming))
	})

	t.Run("dropped tracking number", func(t *testing.T) {
		incoming := base()
		incoming.TrackingNumber = nil
		assert.True(t, HasReturnChanged(base(), incoming))
	})
}
