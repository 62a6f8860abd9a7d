package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/pkg/errors"
)

const userContextKey = "authenticated_user"

// AuthMiddleware authenticates requests via a bearer API key
func AuthMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		user, err := repos.User.GetByAPIKey(c.Request.Context(), parts[1])
		if err != nil {
			if _, ok := err.(*errors.ErrUnauthorized); ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				return
			}
			logger.Error("Failed to authenticate API key", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// GetUserFromContext returns the authenticated user set by AuthMiddleware
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}
