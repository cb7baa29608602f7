package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spatialdeck/backend/internal/infrastructure/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler manages WebSocket connections for the event stream.
type Handler struct {
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{hub: hub, logger: logger}
}

// HandleConnection upgrades the request and streams events until the client
// disconnects. The read loop exists only to answer pings and observe the
// close; all payload flows server to client.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Add(conn)
	defer func() {
		h.hub.Drop(conn)
		conn.Close()
	}()

	h.hub.Broadcast("system", map[string]interface{}{
		"message": "connected to workspace event stream",
	})

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if t, _ := msg["type"].(string); t == "ping" {
			lock, ok := h.lockFor(conn)
			if !ok {
				return
			}
			lock.Lock()
			err := conn.WriteJSON(map[string]interface{}{"type": "pong"})
			lock.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handler) lockFor(conn *websocket.Conn) (*sync.Mutex, bool) {
	h.hub.mu.RLock()
	defer h.hub.mu.RUnlock()
	lock, ok := h.hub.clients[conn]
	return lock, ok
}
