package web

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/server"
)

// Hub tracks live browser connections and binds each to a session on the
// shared session server.
type Hub struct {
	sessions server.GameServer
	store    *leaderboard.Store // nil disables the leaderboard
	logger   *log.Logger
	upgrader websocket.Upgrader

	conns      map[*Conn]bool
	register   chan *Conn
	unregister chan *Conn
	done       chan struct{} // Closed when Run returns
	mu         sync.Mutex
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLeaderboard enables score submission and renaming.
func WithLeaderboard(store *leaderboard.Store) HubOption {
	return func(h *Hub) { h.store = store }
}

// WithHubLogger sets the hub logger.
func WithHubLogger(l *log.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates a hub serving sessions from gs.
func NewHub(gs server.GameServer, opts ...HubOption) *Hub {
	h := &Hub{
		sessions:   gs,
		logger:     log.New(io.Discard),
		conns:      make(map[*Conn]bool),
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			Subprotocols:    subprotocols(),
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run handles connection bookkeeping until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub shutting down")
			return
		case c := <-h.register:
			h.mu.Lock()
			h.conns[c] = true
			h.mu.Unlock()
			h.logger.Info("websocket client connected", "session", c.handle.ID, "codec", c.codec.Name())
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[c]; ok {
				delete(h.conns, c)
				h.sessions.UnregisterClient(c.handle.ID)
				h.logger.Info("websocket client disconnected", "session", c.handle.ID)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) leave(c *Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeWS upgrades the request and runs the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket connection", "err", err)
		return
	}

	name := "web-" + uuid.NewString()[:8]
	c := newConn(h, ws, CodecFor(ws.Subprotocol()), h.sessions.RegisterClient(name))
	select {
	case h.register <- c:
	case <-h.done:
		h.sessions.UnregisterClient(c.handle.ID)
		ws.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go c.writePump()
	go c.readPump()
}
