package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSnakeCaseFields(t *testing.T) {
	raw := map[string]any{
		"widget_position":         "top-left",
		"primary_color":           "#111111",
		"secondary_color":         "#222222",
		"button_size":             "large",
		"widget_theme":            "classic",
		"greeting_message":        "hello",
		"widget_title":            "Support",
		"widget_subtitle":         "Online now",
		"z_index":                 float64(1000),
		"show_notification_badge": false,
		"padding_x":               float64(8),
		"padding_y":               float64(12),
		"is_active":               false,
		"deploy_status":           "paused",
		"paused_message":          "back soon",
		"logo_url":                "https://example.com/logo.png",
		"chatbot_id":              "bot-1",
	}

	cfg := Normalize(raw)

	assert.Equal(t, "top-left", cfg.Position)
	assert.Equal(t, "#111111", cfg.PrimaryColor)
	assert.Equal(t, "#222222", cfg.AccentColor)
	assert.Equal(t, "large", cfg.ButtonSize)
	assert.Equal(t, "classic", cfg.Theme)
	assert.Equal(t, "hello", cfg.Greeting)
	assert.Equal(t, "Support", cfg.Title)
	assert.Equal(t, "Online now", cfg.Subtitle)
	assert.Equal(t, 1000, cfg.ZIndex)
	assert.False(t, cfg.ShowNotificationBadge)
	assert.Equal(t, 8, cfg.PaddingX)
	assert.Equal(t, 12, cfg.PaddingY)
	assert.False(t, cfg.IsActive)
	assert.Equal(t, "paused", cfg.DeployStatus)
	assert.Equal(t, "back soon", cfg.PausedMessage)
	assert.Equal(t, "https://example.com/logo.png", cfg.LogoURL)
	assert.Equal(t, "bot-1", cfg.ChatbotID)
}

func TestNormalizeCamelCaseFields(t *testing.T) {
	raw := map[string]any{
		"widgetPosition":        "bottom-left",
		"primaryColor":          "#aa0000",
		"secondaryColor":        "#00aa00",
		"buttonSize":            "small",
		"widgetTheme":           "minimal",
		"greetingMessage":       "hey",
		"widgetTitle":           "Help",
		"widgetSubtitle":        "Ask away",
		"zIndex":                float64(5),
		"showNotificationBadge": true,
		"paddingX":              float64(30),
		"paddingY":              float64(40),
		"isActive":              true,
		"deployStatus":          "deployed",
		"chatbotId":             "bot-2",
	}

	cfg := Normalize(raw)

	assert.Equal(t, "bottom-left", cfg.Position)
	assert.Equal(t, "#aa0000", cfg.PrimaryColor)
	assert.Equal(t, "#00aa00", cfg.AccentColor)
	assert.Equal(t, "small", cfg.ButtonSize)
	assert.Equal(t, "minimal", cfg.Theme)
	assert.Equal(t, "hey", cfg.Greeting)
	assert.Equal(t, "Help", cfg.Title)
	assert.Equal(t, "Ask away", cfg.Subtitle)
	assert.Equal(t, 5, cfg.ZIndex)
	assert.Equal(t, 30, cfg.PaddingX)
	assert.Equal(t, 40, cfg.PaddingY)
	assert.Equal(t, "bot-2", cfg.ChatbotID)
}

func TestNormalizeMissingFieldsFallBackToDefaults(t *testing.T) {
	cfg := Normalize(map[string]any{"widgetPosition": "top-left", "primaryColor": "#111111"})
	defaults := Defaults()

	assert.Equal(t, "top-left", cfg.Position)
	assert.Equal(t, "#111111", cfg.PrimaryColor)
	assert.Equal(t, defaults.AccentColor, cfg.AccentColor)
	assert.Equal(t, defaults.Greeting, cfg.Greeting)
	assert.Equal(t, defaults.Title, cfg.Title)
	assert.Equal(t, defaults.ZIndex, cfg.ZIndex)
	assert.Equal(t, defaults.ShowNotificationBadge, cfg.ShowNotificationBadge)
}

func TestNormalizeMistypedFieldsDoNotPanic(t *testing.T) {
	raw := map[string]any{
		"widget_position": 42,
		"primary_color":   true,
		"z_index":         "very high",
		"is_active":       "yes",
		"padding_x":       nil,
	}

	cfg := Normalize(raw)
	defaults := Defaults()

	assert.Equal(t, defaults.Position, cfg.Position)
	assert.Equal(t, defaults.PrimaryColor, cfg.PrimaryColor)
	assert.Equal(t, defaults.ZIndex, cfg.ZIndex)
	assert.Equal(t, defaults.IsActive, cfg.IsActive)
	assert.Equal(t, defaults.PaddingX, cfg.PaddingX)
}

func TestNormalizeNil(t *testing.T) {
	assert.Equal(t, Defaults(), Normalize(nil))
}

func TestMergeKeepsBaseForAbsentFields(t *testing.T) {
	base := Defaults()
	base.Title = "Existing"
	base.PrimaryColor = "#000000"

	merged := Merge(base, map[string]any{
		"primaryColor": "#ffffff",
		"z_index":      float64(42),
	})

	assert.Equal(t, "#ffffff", merged.PrimaryColor)
	assert.Equal(t, 42, merged.ZIndex)
	assert.Equal(t, "Existing", merged.Title)
	assert.Equal(t, base.Position, merged.Position)
}

func TestMergeIgnoresMistypedValues(t *testing.T) {
	base := Defaults()
	base.ZIndex = 7

	merged := Merge(base, map[string]any{"z_index": "very high"})
	assert.Equal(t, 7, merged.ZIndex)
}

func TestNormalizeJSON(t *testing.T) {
	cfg := NormalizeJSON([]byte(`{"widget_title": "Sales"}`))
	assert.Equal(t, "Sales", cfg.Title)

	// Malformed bodies yield the defaults
	assert.Equal(t, Defaults(), NormalizeJSON([]byte(`{"widget_title": `)))
	assert.Equal(t, Defaults(), NormalizeJSON([]byte(`[1,2,3]`)))
}

func TestDefaultsAreFullyPopulated(t *testing.T) {
	d := Defaults()
	require.NotEmpty(t, d.Position)
	require.NotEmpty(t, d.PrimaryColor)
	require.NotEmpty(t, d.AccentColor)
	require.NotEmpty(t, d.ButtonSize)
	require.NotEmpty(t, d.Theme)
	require.NotEmpty(t, d.Greeting)
	require.NotEmpty(t, d.Title)
	require.NotEmpty(t, d.Subtitle)
	require.NotZero(t, d.ZIndex)
	require.True(t, d.IsActive)
	require.Equal(t, DeployStatusDeployed, d.DeployStatus)
}
