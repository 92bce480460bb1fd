package server

import (
	"sync/atomic"

	"github.com/tomz197/evade/internal/loop/engine"
)

// CommandType identifies a client command.
type CommandType int

const (
	CommandStart     CommandType = iota // Begin a fresh run
	CommandSetTarget                    // Steer toward (X, Y)
	CommandStop                         // Stop moving
)

// Command is an input forwarded from a client to its engine. Commands are
// applied in arrival order on the tick goroutine, between frames.
type Command struct {
	Type CommandType
	X, Y float64 // Arena coordinates, for CommandSetTarget
}

// ClientInput is a command tagged with the client that sent it.
type ClientInput struct {
	ClientID int
	Command  Command
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventGameOver ClientEventType = iota
	EventServerShutdown
)

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type  ClientEventType
	Score engine.Score // Final score, for EventGameOver
}

// ClientHandle represents a client's session on the server. Each handle owns
// one engine; sessions never interact.
type ClientHandle struct {
	ID       int
	Username string
	EventsCh chan ClientEvent // Events sent to client (game over, shutdown)

	engine   *engine.Engine // Touched only by the tick goroutine once registered
	snapshot atomic.Pointer[engine.Snapshot]
}

// Snapshot returns the most recently published frame for this client.
func (h *ClientHandle) Snapshot() *engine.Snapshot {
	return h.snapshot.Load()
}

func (h *ClientHandle) publish() {
	snap := h.engine.Snapshot()
	h.snapshot.Store(&snap)
}

// apply runs a command against the handle's engine.
func (h *ClientHandle) apply(cmd Command) {
	switch cmd.Type {
	case CommandStart:
		h.engine.Start()
	case CommandSetTarget:
		h.engine.SetTarget(cmd.X, cmd.Y)
	case CommandStop:
		h.engine.StopMoving()
	}
}
