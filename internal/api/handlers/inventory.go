package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/api/middleware"
	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/pkg/errors"
)

// InventoryResponse represents the inventory item response
type InventoryResponse struct {
	ID                string                  `json:"id"`
	SKU               string                  `json:"sku"`
	EbayID            *string                 `json:"ebay_id,omitempty"`
	Title             string                  `json:"title"`
	Listed            bool                    `json:"listed"`
	Sold              bool                    `json:"sold"`
	Shipped           bool                    `json:"shipped"`
	Status            domain.ItemStatus       `json:"status"`
	PurchasePrice     float64                 `json:"purchase_price"`
	ListedPrice       *float64                `json:"listed_price,omitempty"`
	PriceSold         *float64                `json:"price_sold,omitempty"`
	Profit            *float64                `json:"profit,omitempty"`
	ROI               *float64                `json:"roi,omitempty"`
	EbayFees          *float64                `json:"ebay_fees,omitempty"`
	ShippingCost      *float64                `json:"shipping_cost,omitempty"`
	OrderID           *string                 `json:"order_id,omitempty"`
	Buyer             *string                 `json:"buyer,omitempty"`
	TrackingNumber    *string                 `json:"tracking_number,omitempty"`
	DateListed        *string                 `json:"date_listed,omitempty"`
	DateSold          *string                 `json:"date_sold,omitempty"`
	DaysListed        *int                    `json:"days_listed,omitempty"`
	AdditionalCosts   []domain.AdditionalCost `json:"additional_costs,omitempty"`
	AutomaticReturn   *bool                   `json:"automatic_return,omitempty"`
	ReturnDate        *string                 `json:"return_date,omitempty"`
	ReturnCount       int                     `json:"return_count"`
	HasActiveReturn   bool                    `json:"has_active_return"`
	LastReturnedOrder *string                 `json:"last_returned_order,omitempty"`
	CreatedAt         string                  `json:"created_at"`
	UpdatedAt         string                  `json:"updated_at"`
}

func buildInventoryResponse(item *domain.InventoryItem) InventoryResponse {
	return InventoryResponse{
		ID:                item.ID.String(),
		SKU:               item.SKU,
		EbayID:            item.EbayID,
		Title:             item.Title,
		Listed:            item.Listed,
		Sold:              item.Sold,
		Shipped:           item.Shipped,
		Status:            item.Status,
		PurchasePrice:     item.PurchasePrice,
		ListedPrice:       item.ListedPrice,
		PriceSold:         item.PriceSold,
		Profit:            item.Profit,
		ROI:               item.ROI,
		EbayFees:          item.EbayFees,
		ShippingCost:      item.ShippingCost,
		OrderID:           item.OrderID,
		Buyer:             item.Buyer,
		TrackingNumber:    item.TrackingNumber,
		DateListed:        formatTimePtr(item.DateListed),
		DateSold:          formatTimePtr(item.DateSold),
		DaysListed:        item.DaysListed,
		AdditionalCosts:   item.AdditionalCosts,
		AutomaticReturn:   item.AutomaticReturn,
		ReturnDate:        formatTimePtr(item.ReturnDate),
		ReturnCount:       item.ReturnCount,
		HasActiveReturn:   item.HasActiveReturn,
		LastReturnedOrder: item.LastReturnedOrder,
		CreatedAt:         item.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:         item.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleListInventory handles GET /v1/inventory
func HandleListInventory(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := parseIntQuery(c, "limit", 50)
		offset := parseIntQuery(c, "offset", 0)
		if limit < 1 || limit > 200 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		items, err := repos.Inventory.List(c.Request.Context(), user.ID, limit, offset)
		if err != nil {
			logger.Error("Failed to list inventory", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]InventoryResponse, len(items))
		for i, item := range items {
			responses[i] = buildInventoryResponse(item)
		}
		c.JSON(http.StatusOK, gin.H{"items": responses, "count": len(responses)})
	}
}

// HandleGetInventoryItem handles GET /v1/inventory/:id
func HandleGetInventoryItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		itemID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
			return
		}

		item, err := repos.Inventory.GetByID(c.Request.Context(), itemID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
				return
			}
			logger.Error("Failed to get inventory item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if item.UserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.JSON(http.StatusOK, buildInventoryResponse(item))
	}
}
