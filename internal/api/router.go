package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/api/handlers"
	"github.com/gearflip/resaleapi/internal/api/middleware"
	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, lock *service.RunLock, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(repos, logger))
		{
			authed.GET("/returns", handlers.HandleListReturns(repos, logger))
			authed.GET("/returns/pending", handlers.HandleListPendingReturns(cfg, repos, lock, logger))
			authed.GET("/returns/:id", handlers.HandleGetReturn(repos, logger))
			authed.POST("/returns/sync", handlers.HandleSyncReturns(cfg, repos, logger))
			authed.POST("/returns/process", handlers.HandleProcessReturns(cfg, repos, lock, logger))
			authed.POST("/returns/:id/link", handlers.HandleLinkReturn(repos, logger))
			authed.POST("/returns/:id/disposition", handlers.HandleApplyDisposition(repos, logger))

			authed.GET("/inventory", handlers.HandleListInventory(repos, logger))
			authed.GET("/inventory/:id", handlers.HandleGetInventoryItem(repos, logger))

			authed.GET("/notifications", handlers.HandleListNotifications(repos, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
