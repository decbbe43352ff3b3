package devserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types sent to hot-reload clients.
const (
	MessageConnected = "connected"
	MessageReload    = "reload"
)

// Message is the JSON frame pushed to hot-reload clients.
type Message struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

const writeWait = 5 * time.Second

// Hub fans reload messages out to every connected hot-reload client.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[chan Message]struct{}
}

// NewHub creates a hub. Clients on any origin may connect since the dev
// server binds all interfaces while the client itself dials localhost.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[chan Message]struct{}),
	}
}

// ServeHTTP upgrades the request and streams messages until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("hmr upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch := make(chan Message, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	// Reads only exist to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, Message{Type: MessageConnected}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if err := h.write(conn, msg); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// Broadcast queues msg for every client. Clients with a full buffer miss
// the message rather than block the sender.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
