package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatforge/widgetd/internal/domain"
	"github.com/chatforge/widgetd/internal/service"
)

// Handler handles admin API requests
type Handler struct {
	adminService *service.AdminService
}

// NewHandler creates a new admin handler
func NewHandler(adminService *service.AdminService) *Handler {
	return &Handler{adminService: adminService}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	chatbots := r.Group("/chatbots")
	{
		chatbots.POST("", h.CreateChatbot)
		chatbots.GET("", h.ListChatbots)
		chatbots.GET("/:id", h.GetChatbot)
		chatbots.PUT("/:id", h.UpdateChatbot)
		chatbots.DELETE("/:id", h.DeleteChatbot)
		chatbots.PUT("/:id/widget-settings", h.UpdateWidgetSettings)
		chatbots.POST("/:id/deploy", h.Deploy)
		chatbots.POST("/:id/pause", h.Pause)
		chatbots.GET("/:id/revisions", h.ListRevisions)
	}
}

func (h *Handler) CreateChatbot(c *gin.Context) {
	var req domain.CreateChatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bot, err := h.adminService.CreateChatbot(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, bot)
}

func (h *Handler) ListChatbots(c *gin.Context) {
	bots, err := h.adminService.ListChatbots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chatbots": bots})
}

func (h *Handler) GetChatbot(c *gin.Context) {
	bot, err := h.adminService.GetChatbot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
		return
	}

	c.JSON(http.StatusOK, bot)
}

func (h *Handler) UpdateChatbot(c *gin.Context) {
	var req domain.UpdateChatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bot, err := h.adminService.UpdateChatbot(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bot)
}

func (h *Handler) DeleteChatbot(c *gin.Context) {
	if err := h.adminService.DeleteChatbot(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UpdateWidgetSettings accepts a partial settings payload in either naming
// convention, bumps the version, and broadcasts the change.
func (h *Handler) UpdateWidgetSettings(c *gin.Context) {
	var req domain.UpdateWidgetSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bot, err := h.adminService.UpdateWidgetSettings(c.Request.Context(), c.Param("id"), req.Settings)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bot)
}

func (h *Handler) Deploy(c *gin.Context) {
	bot, err := h.adminService.SetDeployStatus(c.Request.Context(), c.Param("id"), "deployed", "")
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bot)
}

func (h *Handler) Pause(c *gin.Context) {
	var req struct {
		PausedMessage string `json:"paused_message"`
	}
	// Body is optional for pause
	c.ShouldBindJSON(&req)

	bot, err := h.adminService.SetDeployStatus(c.Request.Context(), c.Param("id"), "paused", req.PausedMessage)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bot)
}

func (h *Handler) ListRevisions(c *gin.Context) {
	revisions, err := h.adminService.ListRevisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revisions": revisions})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
