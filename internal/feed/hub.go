package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one processed webhook, pushed to dashboard subscribers.
type Event struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Caller string    `json:"caller,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Hub fans processed webhook events out to websocket subscribers. Publishing
// never blocks: a subscriber that cannot keep up loses events rather than
// stalling webhook handling.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish stamps and delivers an event to every subscriber.
func (h *Hub) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a buffered event channel. The caller must
// Unsubscribe when done.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 64)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// SubscriberCount reports connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
