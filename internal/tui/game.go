// Package tui runs the game in-process on a tcell screen, with mouse
// steering and sound.
package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/local"
)

// Game is the tcell frontend.
type Game struct {
	screen  tcell.Screen
	session *local.Session
	canvas  *draw.Canvas
	done    chan struct{}
}

// NewGame creates a game on an initialized screen.
func NewGame(screen tcell.Screen, opts local.Options) *Game {
	w, h := screen.Size()
	g := &Game{
		screen:  screen,
		session: local.New(opts),
		canvas:  draw.NewScaledCanvas(w, h, config.ArenaWidth, config.ArenaHeight),
		done:    make(chan struct{}),
	}
	g.resize()
	return g
}

// Run drives the game until the player quits or ctx is cancelled. The
// caller owns the screen and finalizes it afterwards.
func (g *Game) Run(ctx context.Context) error {
	defer close(g.done)
	defer g.session.Close()

	g.screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	g.screen.HideCursor()
	defer g.screen.DisableMouse()

	g.session.Login()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-g.done:
				return
			}
		}
	}()

	ticker := time.NewTicker(config.ClientTargetFrameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !g.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			g.render(g.session.Tick())
		}
	}
}

func (g *Game) resize() {
	w, h := g.screen.Size()
	rw, rh := min(w, config.MaxTermWidth), min(h, config.MaxTermHeight)
	g.canvas.Resize(rw, rh)
	g.canvas.SetOffset((w-rw)/2, (h-rh)/2)
}
