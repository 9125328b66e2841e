package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/chatforge/widgetd/internal/domain"
	"github.com/chatforge/widgetd/internal/events"
	"github.com/chatforge/widgetd/internal/repository"
	"github.com/chatforge/widgetd/internal/widget"
)

// AdminService handles admin operations
type AdminService struct {
	chatbotRepo  *repository.ChatbotRepository
	revisionRepo *repository.RevisionRepository
	hub          *events.Hub
}

// NewAdminService creates a new admin service
func NewAdminService(
	chatbotRepo *repository.ChatbotRepository,
	revisionRepo *repository.RevisionRepository,
	hub *events.Hub,
) *AdminService {
	return &AdminService{
		chatbotRepo:  chatbotRepo,
		revisionRepo: revisionRepo,
		hub:          hub,
	}
}

// Chatbot operations

func (s *AdminService) CreateChatbot(ctx context.Context, req *domain.CreateChatbotRequest) (*domain.Chatbot, error) {
	settings := widget.Defaults()
	if req.WidgetSettings != nil {
		settings = *req.WidgetSettings
	}

	bot := &domain.Chatbot{
		Name:           req.Name,
		Domain:         req.Domain,
		WidgetSettings: settings,
	}
	if err := s.chatbotRepo.Create(bot); err != nil {
		return nil, err
	}
	return bot, nil
}

func (s *AdminService) GetChatbot(ctx context.Context, id string) (*domain.Chatbot, error) {
	return s.chatbotRepo.Get(id)
}

func (s *AdminService) ListChatbots(ctx context.Context) ([]*domain.Chatbot, error) {
	return s.chatbotRepo.List()
}

func (s *AdminService) UpdateChatbot(ctx context.Context, id string, req *domain.UpdateChatbotRequest) (*domain.Chatbot, error) {
	bot, err := s.chatbotRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != "" {
		bot.Name = req.Name
	}
	if req.Domain != "" {
		bot.Domain = req.Domain
	}

	if err := s.chatbotRepo.Update(bot); err != nil {
		return nil, err
	}
	return bot, nil
}

func (s *AdminService) DeleteChatbot(ctx context.Context, id string) error {
	return s.chatbotRepo.Delete(id)
}

// Widget settings operations

// UpdateWidgetSettings merges a partial settings payload over the chatbot's
// current settings, bumps the version, records a revision, and broadcasts
// settings_updated so connected loaders re-fetch.
func (s *AdminService) UpdateWidgetSettings(ctx context.Context, id string, raw map[string]any) (*domain.Chatbot, error) {
	bot, err := s.chatbotRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, domain.ErrNotFound
	}

	bot.WidgetSettings = widget.Merge(bot.WidgetSettings, raw)
	bot.Version = uuid.New().String()

	if err := s.chatbotRepo.Update(bot); err != nil {
		return nil, err
	}

	if err := s.revisionRepo.Create(&domain.SettingsRevision{
		ChatbotID: bot.ID,
		Version:   bot.Version,
		Settings:  bot.WidgetSettings,
	}); err != nil {
		return nil, err
	}

	s.hub.Publish(events.Event{
		Name:      events.SettingsUpdated,
		ChatbotID: bot.ID,
		Version:   bot.Version,
	})

	return bot, nil
}

// SetDeployStatus transitions a chatbot's widget between deployed, paused,
// and draft. Pausing deactivates the widget and records the paused message;
// deploying reactivates it. Counts as a settings change for versioning.
func (s *AdminService) SetDeployStatus(ctx context.Context, id, status, pausedMessage string) (*domain.Chatbot, error) {
	switch status {
	case widget.DeployStatusDeployed, widget.DeployStatusPaused, widget.DeployStatusDraft:
	default:
		return nil, domain.ErrInvalidRequest
	}

	raw := map[string]any{
		"deploy_status": status,
		"is_active":     status == widget.DeployStatusDeployed,
	}
	if pausedMessage != "" {
		raw["paused_message"] = pausedMessage
	}
	return s.UpdateWidgetSettings(ctx, id, raw)
}

// ListRevisions returns a chatbot's settings history, newest first.
func (s *AdminService) ListRevisions(ctx context.Context, id string) ([]*domain.SettingsRevision, error) {
	bot, err := s.chatbotRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, domain.ErrNotFound
	}
	return s.revisionRepo.ListByChatbot(id)
}
