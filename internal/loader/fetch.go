package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/loader/cache"
	"github.com/chatforge/widgetd/internal/widget"
)

// ConfigSource resolves the authoritative widget configuration and its
// opaque version identifier. The two host integration modes (legacy global
// config object vs data-chatbot-id tenant lookup) are two implementations
// resolving to the same shape.
type ConfigSource interface {
	Resolve(ctx context.Context) (widget.Config, string, error)
}

// StaticSource is the legacy single-tenant mode: the host page supplies the
// configuration object directly and the loader only asks the backend for the
// current version envelope.
type StaticSource struct {
	APIBase string
	Config  widget.Config
	Client  *http.Client
}

// Resolve fetches GET {apiBase}/widget/ and merges the server settings over
// the host-supplied configuration.
func (s *StaticSource) Resolve(ctx context.Context) (widget.Config, string, error) {
	body, err := getBody(ctx, s.Client, s.APIBase+"/widget/")
	if err != nil {
		return widget.Config{}, "", err
	}

	var envelope struct {
		Settings  map[string]any `json:"settings"`
		Version   string         `json:"version"`
		Timestamp string         `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return widget.Config{}, "", fmt.Errorf("decode widget settings: %w", err)
	}

	base := s.Config
	if base == (widget.Config{}) {
		base = widget.Defaults()
	}
	return widget.Merge(base, envelope.Settings), envelope.Version, nil
}

// TenantSource is the multi-tenant mode: configuration is looked up by an
// opaque chatbot id taken from the hosting script tag.
type TenantSource struct {
	BackendBase string
	ChatbotID   string
	Client      *http.Client
}

// Resolve fetches GET {backendBase}/api/v1/chatbots/{id}/widget-config. The
// response is a flat object in server naming; the version rides in the same
// payload.
func (s *TenantSource) Resolve(ctx context.Context) (widget.Config, string, error) {
	url := fmt.Sprintf("%s/api/v1/chatbots/%s/widget-config", s.BackendBase, s.ChatbotID)
	body, err := getBody(ctx, s.Client, url)
	if err != nil {
		return widget.Config{}, "", err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return widget.Config{}, "", fmt.Errorf("decode widget config: %w", err)
	}

	version, _ := raw["version"].(string)
	cfg := widget.Normalize(raw)
	if cfg.ChatbotID == "" {
		cfg.ChatbotID = s.ChatbotID
	}
	return cfg, version, nil
}

// Fetcher wraps a ConfigSource with the fallback chain: source, then the
// persistent cache, then hard-coded defaults. Fetch never fails.
type Fetcher struct {
	source ConfigSource
	store  *cache.Store
	logger *zap.Logger
}

// NewFetcher creates a fetcher over source backed by store.
func NewFetcher(source ConfigSource, store *cache.Store, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{source: source, store: store, logger: logger}
}

// Fetch resolves the current configuration and version. On success the
// result is written through to the cache. On any failure it returns the
// cached configuration if one exists, otherwise the defaults annotated as
// active and deployed.
func (f *Fetcher) Fetch(ctx context.Context) (widget.Config, string) {
	cfg, version, err := f.source.Resolve(ctx)
	if err == nil {
		f.store.Set(cfg, version)
		return cfg, version
	}

	f.logger.Warn("widget config fetch failed, falling back", zap.Error(err))

	if cached := f.store.Get(); cached != nil {
		return cached.Settings, cached.Version
	}

	defaults := widget.Defaults()
	defaults.IsActive = true
	defaults.DeployStatus = widget.DeployStatusDeployed
	return defaults, ""
}

func getBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
