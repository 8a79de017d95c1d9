package events

import (
	"sync"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/pkg/logger"
)

// Hub fans committed store events out to in-process subscribers. Publish is
// called after the owning transaction commits, so a subscriber never observes
// a half-applied mutation.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]chan model.Event
	nextID int64
	buffer int
	closed bool
}

type Subscription struct {
	ID     int64
	Events <-chan model.Event
	hub    *Hub
}

func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ID)
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[int64]chan model.Event),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan model.Event, h.buffer)
	if !h.closed {
		h.subs[h.nextID] = ch
	} else {
		close(ch)
	}

	return &Subscription{ID: h.nextID, Events: ch, hub: h}
}

func (h *Hub) unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking the caller.
// A subscriber whose buffer is full misses the event; slow consumers must not
// stall the purchase path.
func (h *Hub) Publish(event model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("subscriber buffer full, dropping event", "subscriber", id, "type", event.Type)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Further Publish calls are no-ops and
// further Subscribe calls return an already-closed subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
