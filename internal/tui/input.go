package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/evade/internal/loop/local"
)

// handleEvent applies one screen event and returns false when the game
// should exit.
func (g *Game) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		g.screen.Sync()
		g.resize()
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			g.session.PointerUp()
			return true
		}
		// tcell positions are 0-based; the canvas expects terminal positions.
		x, y := ev.Position()
		g.session.PointerDown(g.canvas.TerminalToLogical(x+1, y+1))
	case *tcell.EventKey:
		return g.handleKey(ev)
	}
	return true
}

func isRune(ev *tcell.EventKey, runes ...rune) bool {
	if ev.Key() != tcell.KeyRune {
		return false
	}
	for _, r := range runes {
		if ev.Rune() == r {
			return true
		}
	}
	return false
}

func (g *Game) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return false
	}

	s := g.session
	if s.Screen() == local.ScreenPlaying {
		if dx, dy, ok := keyDirection(ev); ok {
			s.Steer(dx, dy)
		}
		return true
	}

	switch {
	case ev.Key() == tcell.KeyEscape:
		return s.Back()
	case isRune(ev, 'q', 'Q'):
		return false
	case isRune(ev, 'r', 'R'):
		s.OpenRanking()
	case ev.Key() == tcell.KeyEnter, isRune(ev, ' '):
		if s.Screen() == local.ScreenRanking {
			s.Back()
		} else {
			s.Start()
		}
	}
	return true
}

// keyDirection maps arrows and WASD to a unit direction.
func keyDirection(ev *tcell.EventKey) (dx, dy float64, ok bool) {
	switch {
	case ev.Key() == tcell.KeyUp, isRune(ev, 'w', 'W'):
		return 0, -1, true
	case ev.Key() == tcell.KeyDown, isRune(ev, 's', 'S'):
		return 0, 1, true
	case ev.Key() == tcell.KeyLeft, isRune(ev, 'a', 'A'):
		return -1, 0, true
	case ev.Key() == tcell.KeyRight, isRune(ev, 'd', 'D'):
		return 1, 0, true
	}
	return 0, 0, false
}
