package widget

import "encoding/json"

// Normalize remaps a raw server payload onto Config. Server and client
// naming differ, and during staged rollouts the server may emit either the
// snake_case or the camelCase convention, so every field is looked up under
// both names. Missing or mistyped fields fall back field-by-field to
// Defaults; Normalize never fails.
func Normalize(raw map[string]any) Config {
	return Merge(Defaults(), raw)
}

// Merge overlays a raw partial payload onto base. Only fields present in raw
// under either naming convention change; everything else keeps its base
// value. Normalize is Merge over Defaults.
func Merge(base Config, raw map[string]any) Config {
	cfg := base
	if raw == nil {
		return cfg
	}

	setString(&cfg.Position, raw, "widget_position", "widgetPosition", "position")
	setString(&cfg.PrimaryColor, raw, "primary_color", "primaryColor")
	setString(&cfg.AccentColor, raw, "secondary_color", "secondaryColor", "accent_color", "accentColor")
	setString(&cfg.ButtonSize, raw, "button_size", "buttonSize")
	setString(&cfg.Theme, raw, "widget_theme", "widgetTheme", "theme")
	setString(&cfg.Greeting, raw, "greeting_message", "greetingMessage", "greeting")
	setString(&cfg.Title, raw, "widget_title", "widgetTitle", "title")
	setString(&cfg.Subtitle, raw, "widget_subtitle", "widgetSubtitle", "subtitle")
	setInt(&cfg.ZIndex, raw, "z_index", "zIndex")
	setBool(&cfg.ShowNotificationBadge, raw, "show_notification_badge", "showNotificationBadge")
	setInt(&cfg.PaddingX, raw, "padding_x", "paddingX")
	setInt(&cfg.PaddingY, raw, "padding_y", "paddingY")
	setBool(&cfg.IsActive, raw, "is_active", "isActive")
	setString(&cfg.DeployStatus, raw, "deploy_status", "deployStatus")
	setString(&cfg.PausedMessage, raw, "paused_message", "pausedMessage")
	setString(&cfg.ChatbotID, raw, "chatbot_id", "chatbotId")
	setString(&cfg.LogoURL, raw, "logo_url", "logoUrl")

	return cfg
}

// NormalizeJSON decodes a JSON body and normalizes it. A body that is not a
// JSON object yields the defaults.
func NormalizeJSON(body []byte) Config {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Defaults()
	}
	return Normalize(raw)
}

func setString(dst *string, raw map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				*dst = s
				return
			}
		}
	}
}

func setInt(dst *int, raw map[string]any, keys ...string) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		// JSON numbers decode as float64; tolerate ints from other decoders.
		switch n := v.(type) {
		case float64:
			*dst = int(n)
			return
		case int:
			*dst = n
			return
		case json.Number:
			if i, err := n.Int64(); err == nil {
				*dst = int(i)
				return
			}
		}
	}
}

func setBool(dst *bool, raw map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if b, ok := v.(bool); ok {
				*dst = b
				return
			}
		}
	}
}
