package service

import (
	"context"
	"time"

	"github.com/chatforge/widgetd/internal/config"
	"github.com/chatforge/widgetd/internal/domain"
	"github.com/chatforge/widgetd/internal/repository"
	"github.com/chatforge/widgetd/internal/widget"
)

// TenantWidgetConfig is the flat, server-named multi-tenant configuration
// response the loader normalizes back to its internal shape.
type TenantWidgetConfig struct {
	ChatbotID             string `json:"chatbot_id"`
	WidgetPosition        string `json:"widget_position"`
	PrimaryColor          string `json:"primary_color"`
	SecondaryColor        string `json:"secondary_color"`
	ButtonSize            string `json:"button_size"`
	WidgetTheme           string `json:"widget_theme"`
	GreetingMessage       string `json:"greeting_message"`
	WidgetTitle           string `json:"widget_title"`
	WidgetSubtitle        string `json:"widget_subtitle"`
	ZIndex                int    `json:"z_index"`
	ShowNotificationBadge bool   `json:"show_notification_badge"`
	PaddingX              int    `json:"padding_x"`
	PaddingY              int    `json:"padding_y"`
	IsActive              bool   `json:"is_active"`
	DeployStatus          string `json:"deploy_status"`
	PausedMessage         string `json:"paused_message,omitempty"`
	LogoURL               string `json:"logo_url,omitempty"`
	Version               string `json:"version"`
}

// WidgetService resolves widget configuration for the public endpoints
type WidgetService struct {
	cfg         *config.Config
	chatbotRepo *repository.ChatbotRepository
}

// NewWidgetService creates a new widget service
func NewWidgetService(cfg *config.Config, chatbotRepo *repository.ChatbotRepository) *WidgetService {
	return &WidgetService{cfg: cfg, chatbotRepo: chatbotRepo}
}

// GetTenantConfig returns a chatbot's widget configuration in the flat
// server naming convention.
func (s *WidgetService) GetTenantConfig(ctx context.Context, chatbotID string) (*TenantWidgetConfig, error) {
	bot, err := s.chatbotRepo.Get(chatbotID)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, domain.ErrNotFound
	}

	w := bot.WidgetSettings
	return &TenantWidgetConfig{
		ChatbotID:             bot.ID,
		WidgetPosition:        w.Position,
		PrimaryColor:          w.PrimaryColor,
		SecondaryColor:        w.AccentColor,
		ButtonSize:            w.ButtonSize,
		WidgetTheme:           w.Theme,
		GreetingMessage:       w.Greeting,
		WidgetTitle:           w.Title,
		WidgetSubtitle:        w.Subtitle,
		ZIndex:                w.ZIndex,
		ShowNotificationBadge: w.ShowNotificationBadge,
		PaddingX:              w.PaddingX,
		PaddingY:              w.PaddingY,
		IsActive:              w.IsActive,
		DeployStatus:          w.DeployStatus,
		PausedMessage:         w.PausedMessage,
		LogoURL:               w.LogoURL,
		Version:               bot.Version,
	}, nil
}

// GetEnvelope returns the single-tenant configuration envelope. The default
// chatbot is the first one configured; with none yet, the envelope carries
// the hard-coded defaults so a fresh install still renders a widget.
func (s *WidgetService) GetEnvelope(ctx context.Context) (*domain.WidgetConfigEnvelope, error) {
	bots, err := s.chatbotRepo.List()
	if err != nil {
		return nil, err
	}

	envelope := &domain.WidgetConfigEnvelope{
		Settings:  widget.Defaults(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if len(bots) > 0 {
		bot := bots[len(bots)-1] // oldest, List orders newest first
		envelope.Settings = bot.WidgetSettings
		envelope.Version = bot.Version
	}
	return envelope, nil
}
