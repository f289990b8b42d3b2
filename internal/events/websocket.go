package events

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"cortex/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect from other origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHub broadcasts emitted events to connected dashboard clients.
type WebSocketHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     *logger.Logger
}

// NewWebSocketHub creates a websocket broadcast hub.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients: make(map[*websocket.Conn]struct{}),
		log:     logger.Get().With("component", "websocket_hub"),
	}
}

// ServeWS upgrades an HTTP request and registers the client.
func (h *WebSocketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("WebSocket client connected", "clients", count)

	// Drain reads to detect disconnects; inbound messages are ignored
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *WebSocketHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

// Broadcast sends the event to every connected client, dropping clients
// whose writes fail.
func (h *WebSocketHub) Broadcast(event Event) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug("Dropping websocket client after write failure", "error", err)
			h.remove(conn)
		}
	}
}

// Run consumes the subscription channel, broadcasting each event until ctx
// is cancelled or the channel closes.
func (h *WebSocketHub) Run(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(event)
		}
	}
}

// Close disconnects all clients.
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}
