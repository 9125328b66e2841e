// Package loader implements the embeddable widget loader: instant paint
// from the persistent settings cache, an authoritative configuration fetch
// with a cache-then-defaults fallback chain, a server-push update channel
// with reconnect backoff, an idempotent widget mounter, and the cross-frame
// message bridge. No failure inside the loader ever escapes to the
// embedding caller; everything degrades and logs.
package loader

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/loader/cache"
	"github.com/chatforge/widgetd/internal/widget"
)

// Options configures a Loader instance.
type Options struct {
	// Source resolves the authoritative configuration. Required.
	Source ConfigSource

	// EventsURL is the server-push events endpoint. Empty disables the
	// live update channel.
	EventsURL string

	// FrontendBase serves the embed route; BackendBase is forwarded to the
	// framed document.
	FrontendBase string
	BackendBase  string

	// CacheDir roots the persistent settings cache. Empty uses the OS
	// cache directory.
	CacheDir string

	// Page is the host surface to mount into. Nil creates a fresh ready
	// page.
	Page *Page

	// MaxRetries overrides the update channel's reconnect limit.
	MaxRetries int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Loader owns all mutable state for one widget instance: the applied
// version, the renderer's open/closed state, and the live connection
// handle. Update notifications are serialized through a single goroutine so
// two notifications in quick succession each run their fetch-then-render
// cycle to completion in order.
type Loader struct {
	store    *cache.Store
	fetcher  *Fetcher
	channel  *UpdateChannel
	renderer *Renderer
	bridge   *Bridge
	logger   *zap.Logger

	mu      sync.Mutex
	version string
	started bool

	updates chan string
	done    chan struct{}
}

// New assembles a loader from opts.
func New(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	page := opts.Page
	if page == nil {
		page = NewPage()
		page.SetReady()
	}

	store := cache.NewStore(opts.CacheDir, logger)
	renderer := NewRenderer(page, opts.FrontendBase, opts.BackendBase, logger)

	l := &Loader{
		store:    store,
		fetcher:  NewFetcher(opts.Source, store, logger),
		renderer: renderer,
		bridge:   NewBridge(renderer, logger),
		logger:   logger,
		updates:  make(chan string, 16),
		done:     make(chan struct{}),
	}

	if opts.EventsURL != "" {
		l.channel = &UpdateChannel{
			URL:        opts.EventsURL,
			Client:     opts.HTTPClient,
			MaxRetries: opts.MaxRetries,
			OnUpdate:   l.notify,
			Logger:     logger,
		}
	}

	return l
}

// Start runs the loader sequence: cached paint, authoritative fetch and
// render, then the live update channel. Start never returns an error; every
// failure degrades to the previous link of the fallback chain.
func (l *Loader) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	// Instant paint from the last-known settings, if any.
	if cached := l.store.Get(); cached != nil {
		l.setVersion(cached.Version)
		l.renderer.Render(cached.Settings)
		l.bridge.Mounted()
	}

	cfg, version := l.fetcher.Fetch(ctx)
	l.apply(cfg, version)

	if l.channel != nil {
		l.channel.Open(ctx)
	}

	go l.loop(ctx)
}

// Close tears the loader down: the live connection is closed and pending
// timers cancelled. The mounted widget stays on the page.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.done != nil {
		select {
		case <-l.done:
		default:
			close(l.done)
		}
	}
	l.mu.Unlock()

	if l.channel != nil {
		l.channel.Close()
	}
	l.bridge.Close()
}

// Renderer exposes the widget's visual state, for the host page to wire
// clicks and for tests.
func (l *Loader) Renderer() *Renderer {
	return l.renderer
}

// Bridge exposes the cross-frame message entry point.
func (l *Loader) Bridge() *Bridge {
	return l.bridge
}

// Version returns the currently applied configuration version.
func (l *Loader) Version() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

func (l *Loader) setVersion(v string) {
	l.mu.Lock()
	l.version = v
	l.mu.Unlock()
}

// notify is the update channel callback. It only enqueues; the loop owns
// the fetch-then-render cycle.
func (l *Loader) notify(version string) {
	select {
	case l.updates <- version:
	default:
		l.logger.Warn("dropping update notification, queue full",
			zap.String("version", version))
	}
}

func (l *Loader) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case version := <-l.updates:
			if version == l.Version() {
				continue
			}
			cfg, fetched := l.fetcher.Fetch(ctx)
			l.apply(cfg, fetched)
		}
	}
}

// apply renders cfg unless the fetch is stale: a response carrying the
// version that is already applied arrived after a newer one and is
// discarded.
func (l *Loader) apply(cfg widget.Config, version string) {
	l.mu.Lock()
	if l.version != "" && version == l.version {
		l.mu.Unlock()
		return
	}
	l.version = version
	l.mu.Unlock()

	l.renderer.Render(cfg)
	l.bridge.Mounted()
}
