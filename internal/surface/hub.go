package surface

import (
	"sync"
	"time"
)

// RenderEvent announces a freshly rendered surface.
type RenderEvent struct {
	SurfaceID string
	Payload   Payload
	Timestamp time.Time
}

// Hub fans render events out to subscribers. Sends never block; a subscriber
// that falls behind misses events rather than stalling the engine.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan RenderEvent]struct{}
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan RenderEvent]struct{})}
}

// Subscribe registers a listener for render events. The returned cancel
// function unregisters and closes the channel; calling it again is a no-op.
func (h *Hub) Subscribe() (chan RenderEvent, func()) {
	ch := make(chan RenderEvent, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers an event to all subscribers.
func (h *Hub) Broadcast(evt RenderEvent) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	h.mu.RLock()
	for ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
