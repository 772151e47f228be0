package session

import "sync"

// EventType names what changed in a session.
type EventType string

const (
	// EventView: the effective tree changed; re-fetch the view.
	EventView EventType = "view"
	// EventNarration: a message for the supervising agent.
	EventNarration EventType = "narration"
	// EventChanges: the pending change log changed.
	EventChanges EventType = "changes"
)

// Event is a session update pushed to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Version   int64     `json:"version,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// subscriberBuffer is how many events a slow subscriber may lag before drops.
const subscriberBuffer = 16

// Hub fans session events out to subscribers. Delivery is best-effort: a full
// subscriber misses events rather than blocking the session.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of the session's events and a function that ends
// the subscription.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
		})
	}
}

// Publish delivers e to the session's subscribers without blocking.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[e.SessionID] {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close ends every subscription of the session.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
}
