package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/api/middleware"
	"github.com/gearflip/resaleapi/internal/repository"
)

// NotificationResponse represents the notification response
type NotificationResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	ExternalID string                 `json:"external_id"`
	Data       map[string]interface{} `json:"data,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}

// HandleListNotifications handles GET /v1/notifications
func HandleListNotifications(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := parseIntQuery(c, "limit", 50)
		if limit < 1 || limit > 200 {
			limit = 50
		}

		notifications, err := repos.Notification.ListByUser(c.Request.Context(), user.ID, limit)
		if err != nil {
			logger.Error("Failed to list notifications", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]NotificationResponse, len(notifications))
		for i, n := range notifications {
			responses[i] = NotificationResponse{
				ID:         n.ID.String(),
				Type:       n.Type,
				ExternalID: n.ExternalID,
				Data:       n.Data,
				CreatedAt:  n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}
		c.JSON(http.StatusOK, gin.H{"notifications": responses, "count": len(responses)})
	}
}
