package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/api/middleware"
	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/internal/service"
	"github.com/gearflip/resaleapi/pkg/errors"
)

// ReturnResponse represents the return response
type ReturnResponse struct {
	ID                 string               `json:"id"`
	EbayReturnID       string               `json:"ebay_return_id"`
	InventoryItemID    *string              `json:"inventory_item_id,omitempty"`
	ReturnStatus       domain.ReturnStatus  `json:"return_status"`
	TrackingStatus     *string              `json:"tracking_status,omitempty"`
	RefundStatus       *string              `json:"refund_status,omitempty"`
	ReturnReason       *string              `json:"return_reason,omitempty"`
	RefundAmount       *float64             `json:"refund_amount,omitempty"`
	RefundCurrency     string               `json:"refund_currency"`
	ReturnShippingCost *float64             `json:"return_shipping_cost,omitempty"`
	OrderID            *string              `json:"order_id,omitempty"`
	ItemID             *string              `json:"item_id,omitempty"`
	ItemTitle          *string              `json:"item_title,omitempty"`
	SKU                *string              `json:"sku,omitempty"`
	BuyerLoginName     *string              `json:"buyer_login_name,omitempty"`
	BuyerComments      *string              `json:"buyer_comments,omitempty"`
	TrackingNumber     *string              `json:"tracking_number,omitempty"`
	Carrier            *string              `json:"carrier,omitempty"`
	CreationDate       *string              `json:"creation_date,omitempty"`
	ShipDate           *string              `json:"ship_date,omitempty"`
	DeliveryDate       *string              `json:"delivery_date,omitempty"`
	StatusHistory      []domain.StatusEvent `json:"status_history,omitempty"`
	MatchStrategy      *string              `json:"match_strategy,omitempty"`
	MatchConfidence    *int                 `json:"match_confidence,omitempty"`
	AutoProcessed      bool                 `json:"auto_processed"`
	LastSync           string               `json:"last_sync"`
	CreatedAt          string               `json:"created_at"`
	UpdatedAt          string               `json:"updated_at"`
}

// PendingReturnResponse is a pending return plus its current recommendation
type PendingReturnResponse struct {
	Return          ReturnResponse `json:"return"`
	Action          string         `json:"action"`
	Confidence      int            `json:"confidence"`
	Reasoning       []string       `json:"reasoning"`
	AutoProcessable bool           `json:"auto_processable"`
	ProcessedScore  int            `json:"processed_score"`
}

// SyncResponse summarizes one sync pass
type SyncResponse struct {
	Success   bool `json:"success"`
	Created   int  `json:"created"`
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
	Matched   int  `json:"matched"`
	Skipped   int  `json:"skipped"`
}

func buildReturnResponse(ret *domain.Return) ReturnResponse {
	resp := ReturnResponse{
		ID:                 ret.ID.String(),
		EbayReturnID:       ret.EbayReturnID,
		ReturnStatus:       ret.ReturnStatus,
		TrackingStatus:     ret.TrackingStatus,
		RefundStatus:       ret.RefundStatus,
		ReturnReason:       ret.ReturnReason,
		RefundAmount:       ret.RefundAmount,
		RefundCurrency:     ret.RefundCurrency,
		ReturnShippingCost: ret.ReturnShippingCost,
		OrderID:            ret.OrderID,
		ItemID:             ret.ItemID,
		ItemTitle:          ret.ItemTitle,
		SKU:                ret.SKU,
		BuyerLoginName:     ret.BuyerLoginName,
		BuyerComments:      ret.BuyerComments,
		TrackingNumber:     ret.TrackingNumber,
		Carrier:            ret.Carrier,
		StatusHistory:      ret.StatusHistory,
		MatchStrategy:      ret.MatchStrategy,
		MatchConfidence:    ret.MatchConfidence,
		AutoProcessed:      ret.AutoProcessed,
		LastSync:           ret.LastSync.Format("2006-01-02T15:04:05Z07:00"),
		CreatedAt:          ret.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          ret.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if ret.InventoryItemID != nil {
		id := ret.InventoryItemID.String()
		resp.InventoryItemID = &id
	}
	resp.CreationDate = formatTimePtr(ret.CreationDate)
	resp.ShipDate = formatTimePtr(ret.ShipDate)
	resp.DeliveryDate = formatTimePtr(ret.DeliveryDate)
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02T15:04:05Z07:00")
	return &s
}

// HandleListReturns handles GET /v1/returns
func HandleListReturns(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
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

		returns, err := repos.Return.ListByUser(c.Request.Context(), user.ID, limit, offset)
		if err != nil {
			logger.Error("Failed to list returns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]ReturnResponse, len(returns))
		for i, ret := range returns {
			responses[i] = buildReturnResponse(ret)
		}
		c.JSON(http.StatusOK, gin.H{"returns": responses, "count": len(responses)})
	}
}

// HandleGetReturn handles GET /v1/returns/:id
func HandleGetReturn(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		returnID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid return ID"})
			return
		}

		ret, err := repos.Return.GetByID(c.Request.Context(), returnID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "return not found"})
				return
			}
			logger.Error("Failed to get return", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if ret.UserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.JSON(http.StatusOK, buildReturnResponse(ret))
	}
}

// HandleSyncReturns handles POST /v1/returns/sync
func HandleSyncReturns(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		client := ebay.NewClient(cfg.Ebay, logger)
		syncService := service.NewSyncService(client, repos, logger)

		result, err := syncService.SyncReturns(c.Request.Context(), user)
		if err != nil {
			logger.Error("Return sync failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
			return
		}
		if result.FailedOAuth {
			c.JSON(http.StatusBadGateway, gin.H{"error": "platform authorization expired"})
			return
		}

		c.JSON(http.StatusOK, SyncResponse{
			Success:   result.Success,
			Created:   result.Created,
			Updated:   result.Updated,
			Unchanged: result.Unchanged,
			Matched:   result.Matched,
			Skipped:   result.Skipped,
		})
	}
}

// HandleListPendingReturns handles GET /v1/returns/pending
func HandleListPendingReturns(cfg *config.Config, repos *repository.Repositories, lock *service.RunLock, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		client := ebay.NewClient(cfg.Ebay, logger)
		reconcileService := service.NewReconcileService(client, repos, lock, logger)

		pending, failedOAuth, err := reconcileService.PendingReturns(c.Request.Context(), user)
		if err != nil {
			logger.Error("Failed to list pending returns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if failedOAuth {
			c.JSON(http.StatusBadGateway, gin.H{"error": "platform authorization expired"})
			return
		}

		responses := make([]PendingReturnResponse, len(pending))
		for i, p := range pending {
			responses[i] = PendingReturnResponse{
				Return:          buildReturnResponse(p.Return),
				Action:          string(p.Recommendation.Action),
				Confidence:      p.Recommendation.Confidence,
				Reasoning:       p.Recommendation.Reasoning,
				AutoProcessable: p.Recommendation.AutoProcessable,
				ProcessedScore:  p.Processing.Score,
			}
		}
		c.JSON(http.StatusOK, gin.H{"pending": responses, "count": len(responses)})
	}
}

// LinkReturnRequest binds a return to an inventory item by hand
type LinkReturnRequest struct {
	InventoryItemID string `json:"inventory_item_id" binding:"required"`
}

// HandleLinkReturn handles POST /v1/returns/:id/link
func HandleLinkReturn(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		returnID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid return ID"})
			return
		}

		var req LinkReturnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		itemID, err := uuid.Parse(req.InventoryItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inventory item ID"})
			return
		}

		reconcileService := service.NewReconcileService(nil, repos, nil, logger)
		ret, err := reconcileService.LinkReturn(c.Request.Context(), user, returnID, itemID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			logger.Error("Failed to link return", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, buildReturnResponse(ret))
	}
}

// DispositionRequest names the outcome to apply to a return's linked item
type DispositionRequest struct {
	Action string `json:"action" binding:"required"`
}

// HandleApplyDisposition handles POST /v1/returns/:id/disposition
func HandleApplyDisposition(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		returnID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid return ID"})
			return
		}

		var req DispositionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		action := domain.DispositionAction(req.Action)
		if action != domain.ActionRelist && action != domain.ActionWaste {
			c.JSON(http.StatusBadRequest, gin.H{"error": "action must be RELIST or WASTE"})
			return
		}

		reconcileService := service.NewReconcileService(nil, repos, nil, logger)
		item, err := reconcileService.ApplyDisposition(c.Request.Context(), user, returnID, action)
		if err != nil {
			switch err.(type) {
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case *errors.ErrConflict:
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				logger.Error("Failed to apply disposition", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.JSON(http.StatusOK, buildInventoryResponse(item))
	}
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
