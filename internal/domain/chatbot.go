package domain

import (
	"time"

	"github.com/chatforge/widgetd/internal/widget"
)

// Chatbot represents one tenant's chatbot and its widget settings. The
// Version is an opaque identifier regenerated on every settings write; its
// only contract is equality comparison.
type Chatbot struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Domain         string        `json:"domain,omitempty"`
	WidgetSettings widget.Config `json:"widget_settings"`
	Version        string        `json:"version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SettingsRevision is one entry of a chatbot's settings history, recorded
// on every version bump.
type SettingsRevision struct {
	ID        string        `json:"id"`
	ChatbotID string        `json:"chatbot_id"`
	Version   string        `json:"version"`
	Settings  widget.Config `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateChatbotRequest is the request to create a chatbot
type CreateChatbotRequest struct {
	Name           string         `json:"name" binding:"required"`
	Domain         string         `json:"domain,omitempty"`
	WidgetSettings *widget.Config `json:"widget_settings,omitempty"`
}

// UpdateChatbotRequest is the request to update a chatbot
type UpdateChatbotRequest struct {
	Name   string `json:"name,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// UpdateWidgetSettingsRequest carries a partial settings payload. Fields
// are raw so either server or client naming convention is accepted.
type UpdateWidgetSettingsRequest struct {
	Settings map[string]any `json:"settings" binding:"required"`
}

// WidgetConfigEnvelope is the single-tenant configuration response shape.
type WidgetConfigEnvelope struct {
	Settings  widget.Config `json:"settings"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
}
