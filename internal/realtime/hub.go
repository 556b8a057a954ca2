// Package realtime serves the WebSocket surfaces. Each connection is one
// independent surface with its own slot session and watches; surfaces share
// nothing but the store and the broadcast channel.
package realtime

import (
	"sync"

	"go.uber.org/zap"
)

type Hub struct {
	mu       sync.RWMutex
	surfaces map[*Surface]struct{}
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		surfaces: make(map[*Surface]struct{}),
		log:      log.With(zap.String("component", "ws_hub")),
	}
}

func (h *Hub) register(s *Surface) {
	h.mu.Lock()
	h.surfaces[s] = struct{}{}
	n := len(h.surfaces)
	h.mu.Unlock()

	h.log.Debug("surface connected", zap.Uint("user_id", s.who.UserID), zap.Int("surfaces", n))
}

func (h *Hub) unregister(s *Surface) {
	h.mu.Lock()
	_, ok := h.surfaces[s]
	delete(h.surfaces, s)
	n := len(h.surfaces)
	h.mu.Unlock()

	if ok {
		h.log.Debug("surface disconnected", zap.Uint("user_id", s.who.UserID), zap.Int("surfaces", n))
	}
}

// Count returns the number of connected surfaces.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.surfaces)
}

// CloseAll disconnects every surface, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Surface, 0, len(h.surfaces))
	for s := range h.surfaces {
		all = append(all, s)
	}
	h.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
}
