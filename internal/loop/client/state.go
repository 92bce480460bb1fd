package client

import (
	"time"

	"github.com/tomz197/evade/internal/input"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/engine"
)

// GameState represents the current game phase for a client.
type GameState int

const (
	GameStateStart    GameState = iota // Title screen
	GameStatePlaying                   // Active run
	GameStateDead                      // Run ended, show score and restart prompt
	GameStateRanking                   // Leaderboard table
	GameStateRename                    // Editing the display name
	GameStateShutdown                  // Server is shutting down
)

// ClientState holds per-connection UI state. The simulation itself lives on
// the server; this is only what the terminal needs to draw menus and HUD.
type ClientState struct {
	Input         input.Input
	GameState     GameState
	prevGameState GameState
	Running       bool
	delta         time.Duration

	FinalScore engine.Score // Score reported with the last game over
	BestTime   float64      // Best survival time this connection

	mouseDown bool // Left button held over the canvas
	steering  bool // Keyboard steering sent a target last frame

	submitStatus string // Result line for the last score submission

	ranking        []leaderboard.Entry
	rankingErr     error
	rankingLoading bool
	rankingReturn  GameState // State to go back to from the ranking screen

	displayName string
	nameBuf     []rune
	renameErr   error

	shutdownTimer float64
	isInactive    bool
	wasInactive   bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState:     GameStateStart,
		prevGameState: GameStateStart,
		Running:       true,
	}
}

// lbKind identifies which leaderboard request finished.
type lbKind int

const (
	lbLogin lbKind = iota
	lbSubmit
	lbRanking
	lbRename
)

// lbResult carries a leaderboard response back onto the client loop.
type lbResult struct {
	kind    lbKind
	name    string
	entries []leaderboard.Entry
	err     error
}
