package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/widget"
)

// configServer is a scriptable backend: a mutable tenant config plus an SSE
// events endpoint fed by a channel.
type configServer struct {
	t *testing.T

	mu      sync.Mutex
	payload map[string]any

	events chan string
	hits   atomic.Int32

	srv *httptest.Server
}

func newConfigServer(t *testing.T) *configServer {
	cs := &configServer{
		t:      t,
		events: make(chan string, 8),
		payload: map[string]any{
			"widget_title": "Initial",
			"is_active":    true,
			"version":      "v1",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/chatbots/bot-1/widget-config", func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		cs.mu.Lock()
		body, _ := json.Marshal(cs.payload)
		cs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})
	mux.HandleFunc("/api/widget/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
		flusher.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case version := <-cs.events:
				fmt.Fprintf(w, "event: settings_updated\ndata: {\"version\":%q}\n\n", version)
				flusher.Flush()
			}
		}
	})

	cs.srv = httptest.NewServer(mux)
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *configServer) setPayload(title, version string) {
	cs.mu.Lock()
	cs.payload = map[string]any{
		"widget_title": title,
		"is_active":    true,
		"version":      version,
	}
	cs.mu.Unlock()
}

func newTestLoader(t *testing.T, cs *configServer, page *Page) *Loader {
	t.Helper()
	l := New(Options{
		Source: &TenantSource{
			BackendBase: cs.srv.URL,
			ChatbotID:   "bot-1",
			Client:      cs.srv.Client(),
		},
		EventsURL:    cs.srv.URL + "/api/widget/events",
		FrontendBase: cs.srv.URL,
		BackendBase:  cs.srv.URL,
		CacheDir:     t.TempDir(),
		Page:         page,
		HTTPClient:   cs.srv.Client(),
		Logger:       zap.NewNop(),
	})
	t.Cleanup(l.Close)
	return l
}

func TestLoaderStartFetchesAndRenders(t *testing.T) {
	cs := newConfigServer(t)
	page := newReadyPage()
	l := newTestLoader(t, cs, page)

	l.Start(context.Background())

	require.Eventually(t, func() bool {
		markup, ok := page.Element(RootElementID)
		return ok && strings.Contains(markup, "Initial")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "v1", l.Version())
}

func TestLoaderAppliesLiveUpdate(t *testing.T) {
	cs := newConfigServer(t)
	page := newReadyPage()
	l := newTestLoader(t, cs, page)
	l.Start(context.Background())

	require.Eventually(t, func() bool { return l.Version() == "v1" },
		2*time.Second, 10*time.Millisecond)

	cs.setPayload("Updated", "v2")
	cs.events <- "v2"

	require.Eventually(t, func() bool { return l.Version() == "v2" },
		3*time.Second, 10*time.Millisecond)
	markup, _ := page.Element(RootElementID)
	assert.Contains(t, markup, "Updated")
}

func TestLoaderIgnoresUpdateForCurrentVersion(t *testing.T) {
	cs := newConfigServer(t)
	l := newTestLoader(t, cs, newReadyPage())
	l.Start(context.Background())

	require.Eventually(t, func() bool { return l.Version() == "v1" },
		2*time.Second, 10*time.Millisecond)
	fetchesAfterStart := cs.hits.Load()

	// An event carrying the already-applied version must not re-fetch.
	cs.events <- "v1"
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, fetchesAfterStart, cs.hits.Load())
}

func TestLoaderDiscardsStaleFetch(t *testing.T) {
	cs := newConfigServer(t)
	page := newReadyPage()
	l := newTestLoader(t, cs, page)
	l.Start(context.Background())

	require.Eventually(t, func() bool { return l.Version() == "v1" },
		2*time.Second, 10*time.Millisecond)

	// The notification names a new version but the fetch races and returns
	// the currently-applied one; the result must be discarded.
	renderedBefore, _ := page.Element(RootElementID)
	cs.events <- "v-newer"
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, "v1", l.Version())
	renderedAfter, _ := page.Element(RootElementID)
	assert.Equal(t, renderedBefore, renderedAfter)
}

func TestLoaderPaintsFromCacheWhenBackendIsDown(t *testing.T) {
	cacheDir := t.TempDir()
	page := newReadyPage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	// Seed the cache as a previous successful run would have.
	seeded := widget.Defaults()
	seeded.Title = "LastKnown"
	l := New(Options{
		Source:     &TenantSource{BackendBase: srv.URL, ChatbotID: "bot-1", Client: srv.Client()},
		CacheDir:   cacheDir,
		Page:       page,
		Logger:     zap.NewNop(),
		HTTPClient: srv.Client(),
	})
	l.store.Set(seeded, "v-cached")

	l.Start(context.Background())
	defer l.Close()

	require.Eventually(t, func() bool {
		markup, ok := page.Element(RootElementID)
		return ok && strings.Contains(markup, "LastKnown")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "v-cached", l.Version())
}

func TestLoaderRendersDefaultsWhenAllElseFails(t *testing.T) {
	page := newReadyPage()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	l := New(Options{
		Source:     &TenantSource{BackendBase: srv.URL, ChatbotID: "bot-1", Client: srv.Client()},
		CacheDir:   t.TempDir(),
		Page:       page,
		Logger:     zap.NewNop(),
		HTTPClient: srv.Client(),
	})
	l.Start(context.Background())
	defer l.Close()

	require.Eventually(t, func() bool {
		markup, ok := page.Element(RootElementID)
		return ok && strings.Contains(markup, widget.Defaults().Title)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLoaderStartIsIdempotent(t *testing.T) {
	cs := newConfigServer(t)
	page := newReadyPage()
	l := newTestLoader(t, cs, page)

	l.Start(context.Background())
	l.Start(context.Background())

	require.Eventually(t, func() bool { return l.Version() == "v1" },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, page.ElementCount())
}
