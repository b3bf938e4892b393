package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Hub maintains the set of connected viewer sockets and broadcasts
// live-reload messages to all of them.
type Hub struct {
	logger *log.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan string
}

// NewHub creates an empty hub. Call Run to start the event loop.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:     logger,
		conns:      make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn, 8),
		unregister: make(chan *websocket.Conn, 8),
		broadcast:  make(chan string, 8),
	}
}

// Run processes register/unregister/broadcast events until ctx is
// canceled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = true
			n := len(h.conns)
			h.mu.Unlock()
			h.logger.Debug("viewer connected", "clients", n)
		case conn := <-h.unregister:
			h.drop(conn)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Register hands a new connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister <- conn
}

// Broadcast queues a text message for every connected viewer. The message
// is dropped when the hub is not draining the queue; the next source
// change broadcasts again.
func (h *Hub) Broadcast(msg string) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

func (h *Hub) send(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.logger.Debug("dropping viewer after write error", "err", err)
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		_ = conn.Close()
		delete(h.conns, conn)
		h.logger.Debug("viewer disconnected", "clients", len(h.conns))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
	}
	h.conns = make(map[*websocket.Conn]bool)
}
