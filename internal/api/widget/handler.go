package widget

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/events"
	"github.com/chatforge/widgetd/internal/service"
)

// Handler handles the public widget API
type Handler struct {
	widgetService *service.WidgetService
	hub           *events.Hub
	pingInterval  time.Duration
	logger        *zap.Logger
}

// NewHandler creates a new widget handler
func NewHandler(widgetService *service.WidgetService, hub *events.Hub, pingInterval time.Duration, logger *zap.Logger) *Handler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Handler{
		widgetService: widgetService,
		hub:           hub,
		pingInterval:  pingInterval,
		logger:        logger,
	}
}

// RegisterRoutes registers widget routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.GetEnvelope)
	r.GET("/events", h.Events)
}

// RegisterTenantRoutes registers the multi-tenant configuration route
func (h *Handler) RegisterTenantRoutes(r *gin.RouterGroup) {
	r.GET("/chatbots/:chatbot_id/widget-config", h.GetTenantConfig)
}

// GetEnvelope returns the single-tenant widget configuration envelope
func (h *Handler) GetEnvelope(c *gin.Context) {
	envelope, err := h.widgetService.GetEnvelope(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, envelope)
}

// GetTenantConfig returns a chatbot's widget configuration in the flat
// server field naming
func (h *Handler) GetTenantConfig(c *gin.Context) {
	chatbotID := c.Param("chatbot_id")

	cfg, err := h.widgetService.GetTenantConfig(c.Request.Context(), chatbotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Events is the server-push stream loaders subscribe to for configuration
// changes (SSE). It greets with a connected event, relays settings_updated
// with the new version, and keeps intermediaries from timing the
// connection out with periodic pings.
func (h *Handler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	chatbotID := c.Query("chatbotId")
	if chatbotID == "" {
		chatbotID = c.Query("chatbot_id")
	}

	sub, cancel := h.hub.Subscribe(chatbotID)
	defer cancel()

	writeSSE(c.Writer, "connected", `{}`)
	c.Writer.Flush()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			writeSSE(c.Writer, "ping", `{}`)
			c.Writer.Flush()
		case ev, ok := <-sub:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("encode widget event failed", zap.Error(err))
				continue
			}
			writeSSE(c.Writer, ev.Name, string(data))
			c.Writer.Flush()
		}
	}
}

func writeSSE(w io.Writer, eventType, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
}
