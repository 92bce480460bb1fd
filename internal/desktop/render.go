package desktop

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/local"
	"github.com/tomz197/evade/internal/object"
)

// Debug font glyph size in pixels.
const (
	glyphWidth  = 6
	glyphHeight = 16
)

var (
	letterboxColor = rgba(draw.MustParseHex(config.LetterboxColor), 1)
	arenaColor     = rgba(draw.MustParseHex(config.ArenaColor), 1)
	borderColor    = rgba(draw.MustParseHex(config.BorderColor), 1)
	enemyColor     = rgba(draw.MustParseHex(config.EnemyColor), 1)
	panelColor     = color.NRGBA{R: 5, G: 5, B: 5, A: 220}
)

// rgba converts a canvas color with an alpha in [0, 1].
func rgba(c draw.Color, alpha float64) color.NRGBA {
	r, g, b := c.RGB()
	alpha = min(max(alpha, 0), 1)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha * 255)}
}

// Draw paints the latest frame and the menu overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(letterboxColor)
	if g.snap == nil {
		return
	}
	snap := g.snap
	scale := float32(g.box.Scale)

	x0, y0 := g.box.ToSurface(0, 0)
	w, h := float32(snap.Arena.Width)*scale, float32(snap.Arena.Height)*scale
	vector.DrawFilledRect(screen, float32(x0), float32(y0), w, h, arenaColor, false)
	vector.StrokeRect(screen, float32(x0), float32(y0), w, h, 2, borderColor, false)

	p := snap.Player
	pc := object.ColorOf(p.Color)
	px, py := g.box.ToSurface(p.X, p.Y)
	vector.StrokeCircle(screen, float32(px), float32(py), float32(p.Radius+6)*scale, 3*scale, rgba(pc, 0.35), true)
	vector.DrawFilledCircle(screen, float32(px), float32(py), float32(p.Radius)*scale, rgba(pc, 1), true)

	for _, e := range snap.Enemies {
		ex, ey := g.box.ToSurface(e.X, e.Y)
		vector.DrawFilledCircle(screen, float32(ex), float32(ey), float32(e.Radius)*scale, enemyColor, true)
	}
	for _, pt := range snap.Particles {
		x, y := g.box.ToSurface(pt.X, pt.Y)
		vector.DrawFilledCircle(screen, float32(x), float32(y), config.ParticleDrawRadius*scale, rgba(object.ColorOf(pt.Color), pt.Life), true)
	}

	g.drawOverlay(screen)
}

func (g *Game) drawOverlay(screen *ebiten.Image) {
	s := g.session
	switch s.Screen() {
	case local.ScreenPlaying:
		g.drawHUD(screen)
	case local.ScreenTitle:
		lines := []string{
			"E V A D E",
			"",
			"Dodge the red circles for as long as you can",
			"Hold the mouse or a finger to steer, or use arrows/WASD",
		}
		if best := s.Best(); best > 0 {
			lines = append(lines, "", fmt.Sprintf("Best: %.2fs", best))
		}
		lines = append(lines, "", "Click or press SPACE to play", "R ranking   Q quit")
		g.panel(screen, lines)
	case local.ScreenOver:
		final := s.Final()
		lines := []string{
			"GAME OVER",
			"",
			fmt.Sprintf("You survived %.2fs and dodged %d", final.Elapsed, final.Dodges),
		}
		if status := s.Status(); status != "" {
			lines = append(lines, status)
		}
		lines = append(lines, "", "Click or press SPACE to play again", "R ranking   ESC menu")
		g.panel(screen, lines)
	case local.ScreenRanking:
		g.panel(screen, rankingLines(s))
	}
}

func rankingLines(s *local.Session) []string {
	lines := []string{"LEADERBOARD", ""}
	entries, loading, err := s.Ranking()
	switch {
	case loading:
		lines = append(lines, "Loading...")
	case err != nil:
		lines = append(lines, err.Error())
	case len(entries) == 0:
		lines = append(lines, "No scores yet")
	default:
		lines = append(lines, fmt.Sprintf("%3s  %-*s %9s", "#", config.MaxDisplayNameLength, "Name", "Time"))
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("%3d  %-*s %9s", e.Position+1, config.MaxDisplayNameLength, e.Name(), e.Time()))
		}
	}
	return append(lines, "", "ESC back   R refresh")
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	snap := g.snap
	x0, y0 := g.box.ToSurface(0, 0)
	x1, _ := g.box.ToSurface(snap.Arena.Width, 0)
	top := int(y0) + 8

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Time: %.2fs", snap.Score.Elapsed), int(x0)+10, top)
	level := fmt.Sprintf("Level %d", snap.Difficulty)
	ebitenutil.DebugPrintAt(screen, level, int(x0+x1)/2-len(level)*glyphWidth/2, top)
	dodged := fmt.Sprintf("Dodged: %d", snap.Score.Dodges)
	ebitenutil.DebugPrintAt(screen, dodged, int(x1)-10-len(dodged)*glyphWidth, top)
}

// panel draws centered lines on a dark box in the middle of the arena.
func (g *Game) panel(screen *ebiten.Image, lines []string) {
	width := 0
	for _, l := range lines {
		width = max(width, len(l)*glyphWidth)
	}
	height := len(lines) * glyphHeight

	cx, cy := g.box.ToSurface(config.ArenaWidth/2, config.ArenaHeight/2)
	left := int(cx) - width/2
	top := int(cy) - height/2
	vector.DrawFilledRect(screen, float32(left-16), float32(top-12), float32(width+32), float32(height+24), panelColor, false)
	vector.StrokeRect(screen, float32(left-16), float32(top-12), float32(width+32), float32(height+24), 1, borderColor, false)

	for i, l := range lines {
		x := int(cx) - len(l)*glyphWidth/2
		ebitenutil.DebugPrintAt(screen, l, x, top+i*glyphHeight)
	}
}
