package loader

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Channel states.
type ChannelState int

const (
	StateIdle ChannelState = iota
	StateConnecting
	StateConnected
	StateBackingOff
	StateDormant
	StateClosed
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackingOff:
		return "backing-off"
	case StateDormant:
		return "dormant"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// Server-push event names.
const (
	EventConnected       = "connected"
	EventSettingsUpdated = "settings_updated"
	EventPing            = "ping"
)

// DefaultMaxRetries is how many reconnect attempts the channel makes before
// going dormant.
const DefaultMaxRetries = 5

const maxBackoff = 30 * time.Second

// BackoffDelay returns the reconnect delay for a retry attempt:
// min(1000 * 2^retry, 30000) milliseconds.
func BackoffDelay(retry int) time.Duration {
	d := time.Second << uint(retry)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// UpdateChannel is a long-lived server-push subscription to the widget
// events endpoint. On each settings_updated event it hands the new version
// to the update callback; version gating happens in the loader, not here.
// Transport errors trigger exponential backoff; once MaxRetries is reached
// the channel goes dormant and the widget keeps operating on the last-known
// configuration.
type UpdateChannel struct {
	URL        string
	Client     *http.Client
	MaxRetries int
	OnUpdate   func(version string)
	Logger     *zap.Logger

	mu         sync.Mutex
	ctx        context.Context
	state      ChannelState
	retryCount int
	cancel     context.CancelFunc
	timer      *time.Timer
}

// Open starts the subscription. Opening while a connection is live first
// closes the existing one; there is at most one live connection per channel.
func (c *UpdateChannel) Open(ctx context.Context) {
	c.mu.Lock()
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	c.stopLocked()
	c.ctx = ctx
	c.retryCount = 0
	c.connectLocked()
	c.mu.Unlock()
}

// Close tears the channel down: the live connection is closed and any
// pending reconnect timer is cancelled. The channel does not reconnect
// after Close.
func (c *UpdateChannel) Close() {
	c.mu.Lock()
	c.stopLocked()
	c.state = StateClosed
	c.mu.Unlock()
}

// State reports the current channel state.
func (c *UpdateChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryCount reports how many consecutive reconnects have been attempted.
func (c *UpdateChannel) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

func (c *UpdateChannel) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// connectLocked starts one connection attempt. Each attempt's context
// derives from the Open context, so a failed connection's context never
// becomes the parent of the next one.
func (c *UpdateChannel) connectLocked() {
	connCtx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.state = StateConnecting
	go c.run(connCtx)
}

func (c *UpdateChannel) run(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		c.scheduleReconnect(ctx, err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		c.scheduleReconnect(ctx, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.scheduleReconnect(ctx, nil)
		return
	}

	c.mu.Lock()
	c.state = StateConnected
	c.retryCount = 0
	c.mu.Unlock()
	c.Logger.Info("widget update channel connected", zap.String("url", c.URL))

	c.readEvents(ctx, resp.Body)

	// Stream ended: either a transport error or a deliberate close.
	if ctx.Err() != nil {
		return
	}
	c.scheduleReconnect(ctx, nil)
}

func (c *UpdateChannel) readEvents(ctx context.Context, body io.Reader) {
	scanner := bufio.NewScanner(body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			c.dispatch(event, data)
			event, data = "", ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *UpdateChannel) dispatch(event, data string) {
	switch event {
	case EventSettingsUpdated:
		var payload struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			c.Logger.Warn("malformed settings_updated event", zap.String("data", data))
			return
		}
		if c.OnUpdate != nil {
			c.OnUpdate(payload.Version)
		}
	case EventConnected, EventPing, "":
		// Keepalive and greeting events carry no action.
	default:
		c.Logger.Debug("ignoring unknown event", zap.String("event", event))
	}
}

func (c *UpdateChannel) scheduleReconnect(ctx context.Context, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed || ctx.Err() != nil {
		return
	}

	// Release the failed connection's context before replacing it.
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if c.retryCount >= c.MaxRetries {
		c.state = StateDormant
		c.Logger.Warn("widget update channel exhausted retries, going dormant",
			zap.Int("retries", c.retryCount))
		return
	}

	delay := BackoffDelay(c.retryCount)
	c.retryCount++
	c.state = StateBackingOff
	c.Logger.Info("widget update channel reconnecting",
		zap.Duration("delay", delay), zap.Int("attempt", c.retryCount), zap.Error(cause))

	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateBackingOff || c.ctx == nil || c.ctx.Err() != nil {
			return
		}
		c.connectLocked()
	})
}
