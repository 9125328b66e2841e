package widget

import "time"

// Position anchors the widget to one corner of the host page.
const (
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
	PositionTopRight    = "top-right"
	PositionTopLeft     = "top-left"
)

// Button size names.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// Theme names.
const (
	ThemeModern  = "modern"
	ThemeMinimal = "minimal"
	ThemeClassic = "classic"
)

// Deploy status of a tenant's widget.
const (
	DeployStatusDeployed = "deployed"
	DeployStatusPaused   = "paused"
	DeployStatusDraft    = "draft"
)

// Config is the rendering contract for the embeddable widget. Every field
// has a default; an incomplete or malformed server payload still yields a
// fully populated Config via Normalize.
type Config struct {
	Position              string `json:"position"`
	PrimaryColor          string `json:"primaryColor"`
	AccentColor           string `json:"accentColor"`
	ButtonSize            string `json:"buttonSize"`
	Theme                 string `json:"theme"`
	Greeting              string `json:"greeting"`
	Title                 string `json:"title"`
	Subtitle              string `json:"subtitle"`
	ZIndex                int    `json:"zIndex"`
	ShowNotificationBadge bool   `json:"showNotificationBadge"`
	PaddingX              int    `json:"paddingX"`
	PaddingY              int    `json:"paddingY"`
	IsActive              bool   `json:"isActive"`
	DeployStatus          string `json:"deployStatus"`
	PausedMessage         string `json:"pausedMessage"`
	ChatbotID             string `json:"chatbotId,omitempty"`
	LogoURL               string `json:"logoUrl,omitempty"`
}

// Defaults returns the hard-coded default configuration. It is the last
// link of the fetch fallback chain and is annotated active/deployed so the
// widget still renders something when neither network nor cache can help.
func Defaults() Config {
	return Config{
		Position:              PositionBottomRight,
		PrimaryColor:          "#4f46e5",
		AccentColor:           "#7c3aed",
		ButtonSize:            SizeMedium,
		Theme:                 ThemeModern,
		Greeting:              "Hi! How can I help you today?",
		Title:                 "Chat with us",
		Subtitle:              "We typically reply in a few minutes",
		ZIndex:                999999,
		ShowNotificationBadge: true,
		PaddingX:              20,
		PaddingY:              20,
		IsActive:              true,
		DeployStatus:          DeployStatusDeployed,
	}
}

// CachedSettings is the record persisted by the loader's settings cache:
// the last-known configuration, the opaque version it was fetched under,
// and the write time. Staleness is resolved by the next successful fetch,
// not by a TTL.
type CachedSettings struct {
	Settings  Config `json:"settings"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

// NewCachedSettings stamps a cache record with the current time.
func NewCachedSettings(cfg Config, version string) CachedSettings {
	return CachedSettings{
		Settings:  cfg,
		Version:   version,
		Timestamp: time.Now().UnixMilli(),
	}
}
