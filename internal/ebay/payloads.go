package ebay

import "time"

// Amount is a platform money value
type Amount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency,omitempty"`
}

// DateValue wraps the platform's {"value": "..."} date envelope
type DateValue struct {
	Value time.Time `json:"value"`
}

// Listing is one currently active listing of the seller
type Listing struct {
	ItemID      string   `json:"itemId"`
	SKU         string   `json:"sku"`
	Title       string   `json:"title"`
	Price       *Amount  `json:"price,omitempty"`
	Quantity    int      `json:"quantity"`
	ListingURL  string   `json:"listingUrl,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
}

// ReturnPayload is one raw return event as received from the platform.
// Summary and Detail come from different endpoints/API versions and carry
// overlapping fields of inconsistent shape; either may be absent.
type ReturnPayload struct {
	ReturnID string         `json:"returnId"`
	Summary  *ReturnSummary `json:"summary,omitempty"`
	Detail   *ReturnDetail  `json:"detail,omitempty"`
}

// ReturnSummary is the list-endpoint projection of a return
type ReturnSummary struct {
	Status            string      `json:"status,omitempty"`
	OrderID           string      `json:"orderId,omitempty"`
	ItemID            string      `json:"itemId,omitempty"`
	ItemTitle         string      `json:"itemTitle,omitempty"`
	SKU               string      `json:"sku,omitempty"`
	BuyerLoginName    string      `json:"buyerLoginName,omitempty"`
	ReturnReason      string      `json:"returnReason,omitempty"`
	CreationDate      *DateValue  `json:"creationDate,omitempty"`
	SellerTotalRefund *Amount     `json:"sellerTotalRefund,omitempty"`
	BuyerTotalRefund  *Amount     `json:"buyerTotalRefund,omitempty"`
	RefundInfo        *RefundInfo `json:"refundInfo,omitempty"`
	Comments          string      `json:"comments,omitempty"`
}

// ReturnDetail is the detail-endpoint projection of a return
type ReturnDetail struct {
	Status             string               `json:"status,omitempty"`
	RefundStatus       string               `json:"refundStatus,omitempty"`
	RefundInfo         *RefundInfo          `json:"refundInfo,omitempty"`
	ReturnShippingCost *Amount              `json:"returnShippingCost,omitempty"`
	ReturnShipmentInfo *ReturnShipmentInfo  `json:"returnShipmentInfo,omitempty"`
	CreationInfo       *CreationInfo        `json:"creationInfo,omitempty"`
	ResponseHistory    []ResponseEvent      `json:"responseHistory,omitempty"`
	StatusHistory      []StatusHistoryEntry `json:"statusHistory,omitempty"`
}

// RefundInfo carries actual/estimated refund breakdowns
type RefundInfo struct {
	ActualRefundAmount    *Amount `json:"actualRefundAmount,omitempty"`
	EstimatedRefundAmount *Amount `json:"estimatedRefundAmount,omitempty"`
	BuyerTotalRefund      *Amount `json:"buyerTotalRefund,omitempty"`
	SellerTotalRefund     *Amount `json:"sellerTotalRefund,omitempty"`
}

// CreationInfo describes how the buyer opened the return
type CreationInfo struct {
	Reason       string     `json:"reason,omitempty"`
	Type         string     `json:"type,omitempty"`
	CreationDate *DateValue `json:"creationDate,omitempty"`
	Comments     *Comments  `json:"comments,omitempty"`
}

// Comments wraps the platform's comment envelope
type Comments struct {
	Content string `json:"content,omitempty"`
}

// ResponseEvent is one entry in the return's response history. Field names
// vary across API versions; Attributes catches the free-form remainder.
type ResponseEvent struct {
	Author     string                 `json:"author,omitempty"`
	Activity   string                 `json:"activity,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	BuyerNotes string                 `json:"buyerNotes,omitempty"`
	Comments   *Comments              `json:"comments,omitempty"`
	Date       *DateValue             `json:"creationDate,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ReturnShipmentInfo carries the return leg's shipment data
type ReturnShipmentInfo struct {
	ShipmentTracking *ShipmentTracking `json:"shipmentTracking,omitempty"`
	ReturnLabelCost  *Amount           `json:"returnLabelCost,omitempty"`
}

// ShipmentTracking is the tracking record of the return shipment
type ShipmentTracking struct {
	TrackingNumber     string     `json:"trackingNumber,omitempty"`
	Carrier            string     `json:"carrier,omitempty"`
	DeliveryStatus     string     `json:"deliveryStatus,omitempty"`
	ShippedDate        *DateValue `json:"shippedDate,omitempty"`
	ActualDeliveryDate *DateValue `json:"actualDeliveryDate,omitempty"`
}

// StatusHistoryEntry is one platform-side status transition
type StatusHistoryEntry struct {
	Status string     `json:"status"`
	Date   *DateValue `json:"date,omitempty"`
}
