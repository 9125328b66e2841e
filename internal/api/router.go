package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/api/admin"
	"github.com/chatforge/widgetd/internal/api/middleware"
	"github.com/chatforge/widgetd/internal/api/widget"
	"github.com/chatforge/widgetd/internal/events"
	"github.com/chatforge/widgetd/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
	BackendBase  string
	PingInterval time.Duration
	Logger       *zap.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(
	adminService *service.AdminService,
	widgetService *service.WidgetService,
	hub *events.Hub,
	cfg RouterConfig,
) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Widgets embed on arbitrary third-party origins
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Embed page + bootstrap script
	embedHandlers := NewEmbedHandlers(cfg.BackendBase, logger)
	embedHandlers.RegisterRoutes(r)

	// Widget API (public)
	widgetHandler := widget.NewHandler(widgetService, hub, cfg.PingInterval, logger)
	widgetGroup := r.Group("/api/widget")
	widgetHandler.RegisterRoutes(widgetGroup)
	tenantGroup := r.Group("/api/v1")
	widgetHandler.RegisterTenantRoutes(tenantGroup)

	// Admin API (requires API key)
	adminHandler := admin.NewHandler(adminService)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
