// Package feed fans appointment change events out to in-process subscribers.
// Delivery is at-least-once from the writer's point of view and lossy under
// back-pressure; subscribers re-fetch state instead of applying events.
package feed

import (
	"sync"
	"time"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Change struct {
	Op            Op        `json:"op"`
	AppointmentID uint      `json:"appointment_id"`
	ProviderKeys  []string  `json:"provider_keys"`
	At            time.Time `json:"at"`
}

// Touches reports whether the change concerns the provider identified by key.
func (c Change) Touches(key string) bool {
	for _, k := range c.ProviderKeys {
		if k == key {
			return true
		}
	}
	return false
}

type Subscription struct {
	C <-chan Change

	hub *Hub
	id  uint64
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.hub.unsubscribe(s.id)
}

type subscriber struct {
	filter func(Change) bool
	ch     chan Change
}

type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]subscriber)}
}

// Subscribe registers a filtered listener. A nil filter receives everything.
func (h *Hub) Subscribe(filter func(Change) bool) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan Change, 16)
	h.subs[h.nextID] = subscriber{filter: filter, ch: ch}
	return &Subscription{C: ch, hub: h, id: h.nextID}
}

// SubscribeProvider filters on one provider key.
func (h *Hub) SubscribeProvider(key string) *Subscription {
	return h.Subscribe(func(c Change) bool { return c.Touches(key) })
}

func (h *Hub) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if s.filter != nil && !s.filter(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			// buffer full: the subscriber already has a refresh pending
		}
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}
