package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that owns inventory and returns
type User struct {
	ID            uuid.UUID
	Name          string
	APIKeyHash    string
	EbayAuthToken *string
	Settings      UserSettings // JSONB
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserSettings carries per-user feature toggles. Pointer fields distinguish
// "unset" from an explicit false; absent flags default to enabled.
type UserSettings struct {
	AutomaticReturns *bool `json:"automatic_returns,omitempty"`
	AutoRelist       *bool `json:"auto_relist,omitempty"`
	AutoWaste        *bool `json:"auto_waste,omitempty"`
}

// AutomaticReturnsEnabled reports whether delivered-return notifications and
// automatic return handling are on for this user.
func (s UserSettings) AutomaticReturnsEnabled() bool {
	return s.AutomaticReturns == nil || *s.AutomaticReturns
}

// AutoRelistEnabled reports whether RELIST recommendations may be auto-applied.
func (s UserSettings) AutoRelistEnabled() bool {
	return s.AutoRelist == nil || *s.AutoRelist
}

// AutoWasteEnabled reports whether WASTE recommendations may be auto-applied.
func (s UserSettings) AutoWasteEnabled() bool {
	return s.AutoWaste == nil || *s.AutoWaste
}

// AdditionalCost is one named cost entry attached to an inventory item
type AdditionalCost struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

// Cost entry titles written by return processing
const (
	CostReturnShipping = "returnShippingCost"
	CostRefund         = "refund"
)

// InventoryItem represents a purchased unit of stock
type InventoryItem struct {
	ID     uuid.UUID
	UserID uuid.UUID

	SKU    string
	EbayID *string // external listing id
	Title  string

	Listed  bool
	Sold    bool
	Shipped bool
	Status  ItemStatus

	PurchasePrice  float64
	ListedPrice    *float64
	PriceSold      *float64
	ExpectedProfit *float64
	Profit         *float64
	ROI            *float64
	EbayFees       *float64
	ShippingCost   *float64

	OrderID        *string // external sale order id
	Buyer          *string
	TrackingNumber *string
	DateListed     *time.Time
	DateSold       *time.Time
	DaysListed     *int

	AdditionalCosts []AdditionalCost // JSONB, ordered

	AutomaticReturn   *bool
	ReturnDate        *time.Time
	ReturnCount       int
	HasActiveReturn   bool
	LastReturnedOrder *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCostEntry reports whether an additional-cost entry with the given title
// and a positive amount exists.
func (i *InventoryItem) HasCostEntry(title string) bool {
	for _, c := range i.AdditionalCosts {
		if c.Title == title && c.Amount > 0 {
			return true
		}
	}
	return false
}

// StatusEvent is one entry in a return's status history
type StatusEvent struct {
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
}

// Return represents one external return/refund event
type Return struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	EbayReturnID string

	InventoryItemID *uuid.UUID // nullable until matched

	ReturnStatus   ReturnStatus
	TrackingStatus *string
	RefundStatus   *string
	ReturnReason   *string

	RefundAmount       *float64
	RefundCurrency     string
	ReturnShippingCost *float64
	SellerRefundAmount *float64

	// Linking keys into inventory
	OrderID        *string
	ItemID         *string // external listing id
	ItemTitle      *string
	SKU            *string
	BuyerLoginName *string

	BuyerComments *string

	TrackingNumber *string
	Carrier        *string
	CreationDate   *time.Time
	ShipDate       *time.Time
	DeliveryDate   *time.Time

	StatusHistory []StatusEvent // JSONB, ordered

	// Matcher audit trail
	MatchStrategy   *string
	MatchConfidence *int

	AutoProcessed bool
	LastSync      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ShippingCostValue returns the return-shipping cost or zero when absent.
func (r *Return) ShippingCostValue() float64 {
	if r.ReturnShippingCost == nil {
		return 0
	}
	return *r.ReturnShippingCost
}

// Notification represents one user-facing alert. Deduplication is enforced by
// a unique (user_id, type, external_id) constraint at the storage layer.
type Notification struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Type       string
	ExternalID string
	Data       map[string]interface{} // JSONB
	CreatedAt  time.Time
}

// Notification types
const (
	NotificationReturnDelivered = "return_delivered"
)
