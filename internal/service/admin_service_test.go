package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatforge/widgetd/internal/domain"
	"github.com/chatforge/widgetd/internal/events"
	"github.com/chatforge/widgetd/internal/repository"
	"github.com/chatforge/widgetd/internal/widget"
)

func newTestAdminService(t *testing.T) (*AdminService, *events.Hub) {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hub := events.NewHub()
	svc := NewAdminService(
		repository.NewChatbotRepository(db),
		repository.NewRevisionRepository(db),
		hub,
	)
	return svc, hub
}

func TestCreateChatbotUsesDefaultSettings(t *testing.T) {
	svc, _ := newTestAdminService(t)

	bot, err := svc.CreateChatbot(context.Background(), &domain.CreateChatbotRequest{
		Name:   "Support Bot",
		Domain: "example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, bot.ID)
	assert.NotEmpty(t, bot.Version)
	assert.Equal(t, widget.Defaults(), bot.WidgetSettings)

	got, err := svc.GetChatbot(context.Background(), bot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Support Bot", got.Name)
	assert.Equal(t, "example.com", got.Domain)
}

func TestUpdateWidgetSettingsMergesPartialPayload(t *testing.T) {
	svc, _ := newTestAdminService(t)

	bot, err := svc.CreateChatbot(context.Background(), &domain.CreateChatbotRequest{Name: "bot"})
	require.NoError(t, err)
	firstVersion := bot.Version

	updated, err := svc.UpdateWidgetSettings(context.Background(), bot.ID, map[string]any{
		"primary_color": "#ff0000",
		"widgetTitle":   "Help Desk",
	})
	require.NoError(t, err)

	assert.Equal(t, "#ff0000", updated.WidgetSettings.PrimaryColor)
	assert.Equal(t, "Help Desk", updated.WidgetSettings.Title)
	// Untouched fields keep their current values.
	assert.Equal(t, widget.PositionBottomRight, updated.WidgetSettings.Position)
	assert.Equal(t, widget.SizeMedium, updated.WidgetSettings.ButtonSize)
	assert.NotEqual(t, firstVersion, updated.Version)
}

func TestUpdateWidgetSettingsRecordsRevisionAndPublishes(t *testing.T) {
	svc, hub := newTestAdminService(t)

	bot, err := svc.CreateChatbot(context.Background(), &domain.CreateChatbotRequest{Name: "bot"})
	require.NoError(t, err)

	sub, cancel := hub.Subscribe(bot.ID)
	defer cancel()

	updated, err := svc.UpdateWidgetSettings(context.Background(), bot.ID, map[string]any{
		"greeting_message": "Hello there",
	})
	require.NoError(t, err)

	select {
	case ev := <-sub:
		assert.Equal(t, events.SettingsUpdated, ev.Name)
		assert.Equal(t, bot.ID, ev.ChatbotID)
		assert.Equal(t, updated.Version, ev.Version)
	default:
		t.Fatal("no settings_updated event published")
	}

	revs, err := svc.ListRevisions(context.Background(), bot.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, updated.Version, revs[0].Version)
	assert.Equal(t, "Hello there", revs[0].Settings.Greeting)
}

func TestUpdateWidgetSettingsUnknownChatbot(t *testing.T) {
	svc, _ := newTestAdminService(t)

	_, err := svc.UpdateWidgetSettings(context.Background(), "nope", map[string]any{"widget_theme": "minimal"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetDeployStatusPauseDeactivatesWidget(t *testing.T) {
	svc, _ := newTestAdminService(t)

	bot, err := svc.CreateChatbot(context.Background(), &domain.CreateChatbotRequest{Name: "bot"})
	require.NoError(t, err)

	paused, err := svc.SetDeployStatus(context.Background(), bot.ID, widget.DeployStatusPaused, "Back on Monday")
	require.NoError(t, err)
	assert.Equal(t, widget.DeployStatusPaused, paused.WidgetSettings.DeployStatus)
	assert.False(t, paused.WidgetSettings.IsActive)
	assert.Equal(t, "Back on Monday", paused.WidgetSettings.PausedMessage)

	deployed, err := svc.SetDeployStatus(context.Background(), bot.ID, widget.DeployStatusDeployed, "")
	require.NoError(t, err)
	assert.Equal(t, widget.DeployStatusDeployed, deployed.WidgetSettings.DeployStatus)
	assert.True(t, deployed.WidgetSettings.IsActive)
}

func TestSetDeployStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestAdminService(t)

	bot, err := svc.CreateChatbot(context.Background(), &domain.CreateChatbotRequest{Name: "bot"})
	require.NoError(t, err)

	_, err = svc.SetDeployStatus(context.Background(), bot.ID, "archived", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRevisionsListedNewestFirst(t *testing.T) {
	svc, _ := newTestAdminService(t)

	bot, err := svc.CreateChatbot(context.Background(), &domain.CreateChatbotRequest{Name: "bot"})
	require.NoError(t, err)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := svc.UpdateWidgetSettings(context.Background(), bot.ID, map[string]any{"widget_title": title})
		require.NoError(t, err)
	}

	revs, err := svc.ListRevisions(context.Background(), bot.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, "Three", revs[0].Settings.Title)
	assert.Equal(t, "One", revs[2].Settings.Title)
}
