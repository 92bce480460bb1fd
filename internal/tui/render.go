package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/local"
	"github.com/tomz197/evade/internal/object"
)

var (
	styleText   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xe0, 0xe0, 0xe0)).Background(tcell.NewRGBColor(0x05, 0x05, 0x05))
	styleTitle  = styleText.Foreground(tcell.NewRGBColor(0x00, 0xff, 0xff)).Bold(true)
	styleDim    = styleText.Foreground(tcell.NewRGBColor(0x80, 0x80, 0x80))
	styleAccent = styleText.Foreground(tcell.NewRGBColor(0xff, 0xd7, 0x00)).Bold(true)
	styleDanger = styleText.Foreground(tcell.NewRGBColor(0xff, 0x33, 0x33)).Bold(true)
)

func tcellColor(c draw.Color) tcell.Color {
	r, g, b := c.RGB()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// cellContent picks the half-block glyph and style showing two stacked
// sub-pixels. Unset pixels show the terminal background.
func cellContent(top, bottom draw.Color) (rune, tcell.Style) {
	switch {
	case top.IsSet() && bottom.IsSet():
		return '▀', tcell.StyleDefault.Foreground(tcellColor(top)).Background(tcellColor(bottom))
	case top.IsSet():
		return '▀', tcell.StyleDefault.Foreground(tcellColor(top))
	case bottom.IsSet():
		return '▄', tcell.StyleDefault.Foreground(tcellColor(bottom))
	default:
		return ' ', tcell.StyleDefault
	}
}

func (g *Game) render(snap *engine.Snapshot) {
	g.screen.Clear()

	g.canvas.Clear()
	snap.Draw(object.DrawContext{Canvas: g.canvas})
	offCol, offRow := g.canvas.OffsetCol(), g.canvas.OffsetRow()
	g.canvas.Cells(func(col, row int, top, bottom draw.Color) {
		r, st := cellContent(top, bottom)
		g.screen.SetContent(offCol+col, offRow+row, r, nil, st)
	})

	switch g.session.Screen() {
	case local.ScreenTitle:
		g.drawTitle()
	case local.ScreenPlaying:
		g.drawHUD(snap)
	case local.ScreenOver:
		g.drawGameOver()
	case local.ScreenRanking:
		g.drawRanking()
	}
	g.screen.Show()
}

// text writes s at a 0-based canvas position.
func (g *Game) text(col, row int, style tcell.Style, s string) {
	x := g.canvas.OffsetCol() + col
	y := g.canvas.OffsetRow() + row
	for _, r := range s {
		g.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (g *Game) centered(row int, style tcell.Style, s string) {
	col := (g.canvas.TerminalWidth() - len([]rune(s))) / 2
	g.text(max(col, 0), row, style, s)
}

func (g *Game) drawTitle() {
	mid := g.canvas.TerminalHeight() / 2
	g.centered(mid-4, styleTitle, " E V A D E ")
	g.centered(mid-2, styleText, " Dodge the red circles for as long as you can ")
	g.centered(mid, styleDim, " Mouse: hold to steer   Arrows/WASD: steer ")
	if best := g.session.Best(); best > 0 {
		g.centered(mid+2, styleAccent, fmt.Sprintf(" Best: %.2fs ", best))
	}
	g.centered(mid+4, styleAccent, " SPACE or click to play ")
	g.centered(mid+5, styleDim, " R ranking   Q quit ")
}

func (g *Game) drawHUD(snap *engine.Snapshot) {
	w := g.canvas.TerminalWidth()
	g.text(1, 0, styleTitle, fmt.Sprintf(" Time: %.2fs ", snap.Score.Elapsed))
	g.centered(0, styleTitle, fmt.Sprintf(" Level %d ", snap.Difficulty))
	dodged := fmt.Sprintf(" Dodged: %d ", snap.Score.Dodges)
	g.text(max(w-len(dodged)-1, 0), 0, styleTitle, dodged)
}

func (g *Game) drawGameOver() {
	mid := g.canvas.TerminalHeight() / 2
	final := g.session.Final()
	g.centered(mid-3, styleDanger, " GAME OVER ")
	g.centered(mid-1, styleText, fmt.Sprintf(" You survived %.2fs and dodged %d ", final.Elapsed, final.Dodges))
	if status := g.session.Status(); status != "" {
		g.centered(mid, styleDim, " "+status+" ")
	}
	g.centered(mid+2, styleAccent, " SPACE or click to play again ")
	g.centered(mid+3, styleDim, " R ranking   ESC menu   Q quit ")
}

func (g *Game) drawRanking() {
	top := max(g.canvas.TerminalHeight()/2-config.LeaderboardSize/2-3, 0)
	g.centered(top, styleTitle, " LEADERBOARD ")

	row := top + 2
	entries, loading, err := g.session.Ranking()
	switch {
	case loading:
		g.centered(row, styleDim, " Loading... ")
	case err != nil:
		g.centered(row, styleDanger, " "+err.Error()+" ")
	case len(entries) == 0:
		g.centered(row, styleDim, " No scores yet ")
	default:
		g.centered(row, styleDim, rankingRow("#", "Name", "Time"))
		for _, e := range entries {
			row++
			g.centered(row, styleText, rankingRow(fmt.Sprint(e.Position+1), e.Name(), e.Time()))
		}
	}
	g.centered(row+2, styleDim, " ESC back   R refresh ")
}

func rankingRow(pos, name, elapsed string) string {
	return fmt.Sprintf(" %3s  %-*s %9s ", pos, config.MaxDisplayNameLength, name, elapsed)
}
