// Package events fans note changes out to live subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"example.com/notes-api/internal/notes"
)

// Type is the kind of change.
type Type string

const (
	Created Type = "created"
	Updated Type = "updated"
	Deleted Type = "deleted"
)

// Event is one change to the note collection.
type Event struct {
	Type Type       `json:"type"`
	Note notes.Note `json:"note"`
	At   time.Time  `json:"at"`
}

// DefaultBuffer is how many events a subscriber may fall behind before it
// is dropped.
const DefaultBuffer = 64

// Hub is an in-process publish/subscribe fan-out. Publish never blocks: a
// subscriber whose buffer is full is unsubscribed and its channel closed.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	logger zerolog.Logger
}

// Subscription receives events on C until it is closed, dropped, or the
// hub shuts down.
type Subscription struct {
	C  <-chan Event
	ch chan Event
	h  *Hub
}

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a new subscriber. On a closed hub the returned
// subscription's channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, h: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Close unsubscribes s. It is safe to call more than once.
func (s *Subscription) Close() {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.removeLocked(s)
}

// Publish delivers e to every subscriber that has room for it.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.ch <- e:
		default:
			h.removeLocked(s)
			h.logger.Warn().Str("event", string(e.Type)).Msg("dropped slow subscriber")
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s := range h.subs {
		h.removeLocked(s)
	}
}

func (h *Hub) removeLocked(s *Subscription) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}
