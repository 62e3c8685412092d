package ws

import (
	"context"
	"encoding/json"
	"sync"

	"stellarcade/internal/domain"
	"stellarcade/internal/logger"
)

// Hub fans committed events out to connected websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	logger.Debug("ws client registered", "client", c.ID, "clients", len(h.clients))
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.closeSend()
	logger.Debug("ws client unregistered", "client", c.ID, "clients", len(h.clients))
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers events to every matching client. A client whose send
// buffer is full is dropped rather than stalling the commit path.
func (h *Hub) Publish(_ context.Context, evs []domain.Event) error {
	if len(evs) == 0 {
		return nil
	}
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		for i := range evs {
			if !c.deliver(evs[i]) {
				slow = append(slow, c)
				break
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws client too slow, dropping", "client", c.ID)
		h.Unregister(c)
	}
	return nil
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.closeSend()
	}
}

func encode(msg Outbound) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		// Outbound holds only JSON-safe fields.
		return []byte(`{"type":"error","message":"encode failed"}`)
	}
	return b
}
