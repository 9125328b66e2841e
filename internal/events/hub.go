// Package events is the in-process fan-out between admin settings writes
// and the widget event stream: every settings update is published once and
// delivered to each connected subscriber.
package events

import "sync"

// Event is one server-push event on the widget stream.
type Event struct {
	// Name is the SSE event name: settings_updated, connected, ping.
	Name string `json:"-"`

	// ChatbotID scopes the event to a tenant; empty targets the
	// single-tenant stream.
	ChatbotID string `json:"chatbot_id,omitempty"`

	// Version is the new opaque settings version.
	Version string `json:"version,omitempty"`
}

// SettingsUpdated is the event name emitted when a chatbot's widget
// settings change.
const SettingsUpdated = "settings_updated"

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block the publisher.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan Event]string
	bufSize int
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]string), bufSize: 16}
}

// Publish delivers ev to every subscriber interested in its chatbot. Sends
// stay under the mutex so an unsubscribing reader can never close a channel
// with a send in flight; the sends are non-blocking, so the lock is only
// held for the fan-out itself.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch, chatbotID := range h.subs {
		if chatbotID != "" && chatbotID != ev.ChatbotID {
			continue
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a subscriber. An empty chatbotID receives every
// event. The returned cancel func unregisters and closes the channel.
func (h *Hub) Subscribe(chatbotID string) (<-chan Event, func()) {
	ch := make(chan Event, h.bufSize)
	h.mu.Lock()
	h.subs[ch] = chatbotID
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

// SubscriberCount reports how many subscribers are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
