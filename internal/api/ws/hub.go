package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spatialdeck/backend/internal/infrastructure/monitoring"
)

// Hub fans restore progress and window lifecycle events out to every
// connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex // per-conn write lock
	metrics *monitoring.Metrics
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// WithMetrics adds metrics tracking to the hub.
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Add registers a connection for broadcasts.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
}

// Drop removes a connection.
func (h *Hub) Drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok && h.metrics != nil {
		h.metrics.DecWSConnections()
	}
}

// Broadcast sends an event to every connected client. Write failures drop
// the offending client; a slow UI never blocks a restore permanently.
func (h *Hub) Broadcast(eventType string, payload map[string]interface{}) {
	msg := map[string]interface{}{
		"type":      eventType,
		"timestamp": time.Now().Unix(),
	}
	for k, v := range payload {
		msg[k] = v
	}

	h.mu.RLock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, lock := range h.clients {
		conns[conn] = lock
	}
	h.mu.RUnlock()

	var failed []*websocket.Conn
	for conn, lock := range conns {
		lock.Lock()
		err := conn.WriteJSON(msg)
		lock.Unlock()
		if err != nil {
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		conn.Close()
		h.Drop(conn)
	}

	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", eventType)
	}
}
