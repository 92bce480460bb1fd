// Package desktop renders the game in a window with ebiten. The window
// letterboxes the arena with white bars and steers with the mouse or a
// finger.
package desktop

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/local"
)

// Game implements ebiten.Game. ebiten calls Update at 60 TPS, the same rate
// the engine is tuned for, so every Update advances one frame.
type Game struct {
	session *local.Session
	snap    *engine.Snapshot
	box     draw.Letterbox

	pressed bool
	touches []ebiten.TouchID
}

// NewGame creates a window game.
func NewGame(opts local.Options) *Game {
	g := &Game{session: local.New(opts)}
	g.snap = g.session.Tick()
	g.Layout(config.ArenaWidth, config.ArenaHeight)
	g.session.Login()
	return g
}

// Close releases the session.
func (g *Game) Close() {
	g.session.Close()
}

// Layout uses the full window and letterboxes the arena inside it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.box = draw.NewLetterbox(float64(outsideWidth), float64(outsideHeight), config.ArenaWidth, config.ArenaHeight)
	return outsideWidth, outsideHeight
}

// Update reads input and advances one frame.
func (g *Game) Update() error {
	if !g.handleKeys() {
		return ebiten.Termination
	}
	g.handlePointer()
	g.snap = g.session.Tick()
	return nil
}

// handleKeys returns false when the player asked to quit.
func (g *Game) handleKeys() bool {
	s := g.session
	if s.Screen() == local.ScreenPlaying {
		if dx, dy, ok := heldDirection(ebiten.IsKeyPressed); ok {
			s.Steer(dx, dy)
		}
		return true
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return s.Back()
	case inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return false
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		s.OpenRanking()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace), inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		if s.Screen() == local.ScreenRanking {
			s.Back()
		} else {
			s.Start()
		}
	}
	return true
}

// heldDirection combines held arrow and WASD keys into a unit direction.
func heldDirection(pressed func(ebiten.Key) bool) (dx, dy float64, ok bool) {
	if pressed(ebiten.KeyArrowLeft) || pressed(ebiten.KeyA) {
		dx--
	}
	if pressed(ebiten.KeyArrowRight) || pressed(ebiten.KeyD) {
		dx++
	}
	if pressed(ebiten.KeyArrowUp) || pressed(ebiten.KeyW) {
		dy--
	}
	if pressed(ebiten.KeyArrowDown) || pressed(ebiten.KeyS) {
		dy++
	}
	n := math.Hypot(dx, dy)
	if n == 0 {
		return 0, 0, false
	}
	return dx / n, dy / n, true
}

// handlePointer steers with the first touch, or the left mouse button.
func (g *Game) handlePointer() {
	g.touches = ebiten.AppendTouchIDs(g.touches[:0])

	var sx, sy int
	switch {
	case len(g.touches) > 0:
		sx, sy = ebiten.TouchPosition(g.touches[0])
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		sx, sy = ebiten.CursorPosition()
	default:
		if g.pressed {
			g.pressed = false
			g.session.PointerUp()
		}
		return
	}

	g.pressed = true
	g.session.PointerDown(g.box.ToArena(float64(sx), float64(sy)))
}
