package loader

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cross-frame message protocol.
const (
	// MessageCloseChat asks the host to close the widget. It is accepted
	// both as the bare string payload and as {"type": "closeChat"}.
	MessageCloseChat = "closeChat"

	// MessageFrameLoaded is posted by the embedded document once it has
	// rendered, releasing the loading placeholder.
	MessageFrameLoaded = "chatforge-widget-loaded"
)

// Ready fallback delays: the frame is forced ready this long after its
// native load event, and unconditionally this long after mount, so a lost
// loaded message can never strand the widget on its placeholder.
const (
	frameLoadReadyDelay = 500 * time.Millisecond
	mountReadyCeiling   = 5 * time.Second
)

// Bridge receives the message protocol between the host page and the
// embedded content frame and applies it to the renderer. Unrecognized
// messages are ignored.
type Bridge struct {
	renderer *Renderer
	logger   *zap.Logger

	mu         sync.Mutex
	frameTimer *time.Timer
	mountTimer *time.Timer
}

// NewBridge creates a bridge driving renderer.
func NewBridge(renderer *Renderer, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{renderer: renderer, logger: logger}
}

// Handle processes one raw message payload. Payloads may be the bare
// protocol string, a decoded {"type": ...} object, or raw JSON bytes.
func (b *Bridge) Handle(payload any) {
	switch msg := payload.(type) {
	case string:
		b.handleType(msg)
	case []byte:
		b.handleRaw(msg)
	case map[string]any:
		if t, ok := msg["type"].(string); ok {
			b.handleType(t)
		}
	}
}

func (b *Bridge) handleRaw(data []byte) {
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Type != "" {
		b.handleType(obj.Type)
		return
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.handleType(s)
		return
	}
	b.handleType(string(data))
}

func (b *Bridge) handleType(messageType string) {
	switch messageType {
	case MessageCloseChat:
		b.renderer.Close()
	case MessageFrameLoaded:
		b.renderer.SetFrameReady()
	default:
		// Foreign pages broadcast all sorts of messages; stay quiet.
	}
}

// FrameLoaded reacts to the frame's native load event by scheduling the
// short ready fallback in case the loaded message never arrives.
func (b *Bridge) FrameLoaded() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameTimer = b.resetLocked(b.frameTimer, frameLoadReadyDelay)
}

// Mounted restarts the outer ready ceiling for a freshly mounted widget.
// At most one timer per kind is ever pending; re-renders replace the
// previous one instead of stacking.
func (b *Bridge) Mounted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mountTimer = b.resetLocked(b.mountTimer, mountReadyCeiling)
}

func (b *Bridge) resetLocked(t *time.Timer, d time.Duration) *time.Timer {
	if t != nil {
		t.Stop()
	}
	return time.AfterFunc(d, b.renderer.SetFrameReady)
}

// Close cancels any pending ready fallback timers.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameTimer != nil {
		b.frameTimer.Stop()
		b.frameTimer = nil
	}
	if b.mountTimer != nil {
		b.mountTimer.Stop()
		b.mountTimer = nil
	}
}
