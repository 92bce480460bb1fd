// Package server hosts many independent game sessions on a single tick loop.
package server

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/engine"
)

// GameServer is what a frontend needs from the session server. The ANSI
// client and the web hub depend on it rather than on *Server.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	SendInput(clientID int, cmd Command)
	GetSnapshot(clientID int) *engine.Snapshot
}

// Server runs one engine per client and advances all of them at a fixed rate.
type Server struct {
	clients      map[int]*ClientHandle
	nextClientID int
	inputChan    chan ClientInput
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex

	newEngine func() *engine.Engine
	logger    *log.Logger

	// Clients whose engine changed outside Advance this tick.
	dirty map[int]struct{}
}

var _ GameServer = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithEngineFactory overrides how per-client engines are created.
func WithEngineFactory(f func() *engine.Engine) Option {
	return func(s *Server) { s.newEngine = f }
}

// NewServer creates a session server with no clients.
func NewServer(opts ...Option) *Server {
	s := &Server{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		inputChan:    make(chan ClientInput, 256),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		dirty:        make(map[int]struct{}),
		newEngine:    func() *engine.Engine { return engine.New() },
		logger:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks at config.ServerTickTime until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.logger.Info("session server running", "tick", config.ServerTickTime)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session server stopped")
			return
		default:
		}

		tickStart := time.Now()
		s.Tick()
		if spent := time.Since(tickStart); spent < config.ServerTickTime {
			time.Sleep(config.ServerTickTime - spent)
		}
	}
}

// Tick processes pending (un)registrations and commands, advances every
// engine by one frame and publishes fresh snapshots. Run calls it at the
// server tick rate; tests may call it directly.
func (s *Server) Tick() {
	s.processRegistrations()
	s.collectInputs()
	s.updateSessions()
}

// Shutdown tells every client the server is going away and waits up to
// timeout for them to unregister. Cancel the Run context afterwards.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	s.logger.Info("notifying clients of shutdown", "clients", len(s.clients))
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			s.logger.Warn("shutdown timeout reached", "remaining", s.ClientCount())
			return
		case <-ticker.C:
			if s.ClientCount() == 0 {
				return
			}
		}
	}
}

// ClientCount returns the number of registered clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// RegisterClient registers a new client with the given username and returns
// its handle. The handle already carries an initial snapshot.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
		engine:   s.newEngine(),
	}
	handle.publish()

	s.registerCh <- handle
	return handle
}

// UnregisterClient drops a client and its engine on the next tick.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// SendInput queues a command for a client. Drops the command when the
// input queue is full.
func (s *Server) SendInput(clientID int, cmd Command) {
	select {
	case s.inputChan <- ClientInput{ClientID: clientID, Command: cmd}:
	default:
		s.logger.Debug("input queue full, dropping command", "client", clientID)
	}
}

// GetSnapshot returns the latest snapshot for a client, or nil if the
// client is not registered.
func (s *Server) GetSnapshot(clientID int) *engine.Snapshot {
	s.mu.RLock()
	handle, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return handle.Snapshot()
}

// processRegistrations applies queued joins and leaves.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.logger.Info("client registered", "id", handle.ID, "user", handle.Username)
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
				delete(s.dirty, clientID)
				s.logger.Info("client unregistered", "id", clientID, "user", handle.Username)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// collectInputs applies all pending commands in arrival order.
func (s *Server) collectInputs() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		select {
		case ci := <-s.inputChan:
			if handle, ok := s.clients[ci.ClientID]; ok {
				handle.apply(ci.Command)
				s.dirty[ci.ClientID] = struct{}{}
			}
		default:
			return
		}
	}
}

// updateSessions advances every engine and publishes snapshots for the
// ones that changed.
func (s *Server) updateSessions() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, handle := range s.clients {
		res := handle.engine.Advance()

		if res.Outcome == engine.OutcomeGameOver {
			s.logger.Debug("game over", "id", id, "user", handle.Username,
				"seconds", res.Score.Elapsed, "dodges", res.Score.Dodges)
			select {
			case handle.EventsCh <- ClientEvent{Type: EventGameOver, Score: res.Score}:
			default:
			}
		}

		_, changed := s.dirty[id]
		if res.Outcome != engine.OutcomeIdle || changed {
			handle.publish()
		}
	}
	clear(s.dirty)
}
