// Package events fans orchestration notifications out to connected
// frontends over server-sent events.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/sunzhuo/teatalk/chat"
)

// Event is one named notification with a JSON-encodable payload.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

// subscriberBufferSize bounds each subscriber's delivery queue. A
// subscriber that falls this far behind starts losing events; delivery is
// best-effort and must never block the orchestration engine.
const subscriberBufferSize = 64

// Hub broadcasts events to all subscribers. It implements chat.Notifier so
// it can be plugged straight into the orchestration service.
type Hub struct {
	mu          sync.Mutex
	nextID      int64
	subscribers map[int64]chan Event
}

var _ chat.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its id and channel. The
// channel is closed by Unsubscribe.
func (h *Hub) Subscribe() (int64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan Event, subscriberBufferSize)
	h.subscribers[h.nextID] = ch
	return h.nextID, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose queue is full.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			slog.Warn("dropping event for slow subscriber", "subscriber_id", id, "event", event.Name)
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) EmitMessage(messageID int64, content string) {
	h.Publish(Event{Name: chat.MessageEventName(messageID), Payload: content})
}

func (h *Hub) EmitMessageFinish(messageID int64) {
	h.Publish(Event{Name: chat.MessageEventName(messageID), Payload: chat.MessageFinishPayload})
}

func (h *Hub) EmitTitleChange(conversationID int64, title string) {
	h.Publish(Event{Name: chat.TitleChangeEvent, Payload: map[string]any{
		"conversation_id": conversationID,
		"title":           title,
	}})
}

func (h *Hub) EmitError(message string) {
	h.Publish(Event{Name: chat.ErrorNotificationEvent, Payload: message})
}

// Encode renders the event payload as JSON for the SSE data line.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e.Payload)
}
