package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/api/middleware"
	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/reconcile"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/internal/service"
)

// ProcessRequest tunes one batch-processing run
type ProcessRequest struct {
	DryRun        bool `json:"dry_run"`
	MinConfidence *int `json:"min_confidence"`
}

// OutcomeResponse is one return's result within a batch run
type OutcomeResponse struct {
	EbayReturnID string   `json:"ebay_return_id"`
	Action       string   `json:"action"`
	Confidence   int      `json:"confidence"`
	Applied      bool     `json:"applied"`
	Reasoning    []string `json:"reasoning,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ProcessResponse summarizes one batch-processing run
type ProcessResponse struct {
	Total     int               `json:"total"`
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Errors    int               `json:"errors"`
	DryRun    bool              `json:"dry_run"`
	Outcomes  []OutcomeResponse `json:"outcomes"`
}

func buildProcessResponse(summary *reconcile.Summary) ProcessResponse {
	outcomes := make([]OutcomeResponse, len(summary.Outcomes))
	for i, o := range summary.Outcomes {
		outcomes[i] = OutcomeResponse{
			EbayReturnID: o.EbayReturnID,
			Action:       string(o.Action),
			Confidence:   o.Confidence,
			Applied:      o.Applied,
			Reasoning:    o.Reasoning,
			Error:        o.Error,
		}
	}
	return ProcessResponse{
		Total:     summary.Total,
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Errors:    summary.Errors,
		DryRun:    summary.DryRun,
		Outcomes:  outcomes,
	}
}

// HandleProcessReturns handles POST /v1/returns/process
func HandleProcessReturns(cfg *config.Config, repos *repository.Repositories, lock *service.RunLock, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req ProcessRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		minConfidence := cfg.Jobs.MinConfidence
		if req.MinConfidence != nil {
			if *req.MinConfidence < 0 || *req.MinConfidence > 100 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "min_confidence must be between 0 and 100"})
				return
			}
			minConfidence = *req.MinConfidence
		}

		client := ebay.NewClient(cfg.Ebay, logger)
		reconcileService := service.NewReconcileService(client, repos, lock, logger)

		result, err := reconcileService.ProcessReturns(c.Request.Context(), user, service.ProcessOptions{
			DryRun:        req.DryRun,
			MinConfidence: minConfidence,
		})
		if err != nil {
			logger.Error("Batch processing failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			return
		}
		if result.Locked {
			c.JSON(http.StatusConflict, gin.H{"error": "a reconciliation run is already in progress"})
			return
		}
		if result.FailedOAuth {
			c.JSON(http.StatusBadGateway, gin.H{"error": "platform authorization expired"})
			return
		}

		c.JSON(http.StatusOK, buildProcessResponse(result.Summary))
	}
}
