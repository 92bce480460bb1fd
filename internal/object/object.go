// Package object defines the entities that live in the arena and how each
// of them moves and draws itself.
package object

import (
	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/config"
)

// Arena is the fixed rectangular play area in logical units.
type Arena struct {
	Width  float64
	Height float64
}

// Center returns the arena midpoint.
func (a Arena) Center() (float64, float64) {
	return a.Width / 2, a.Height / 2
}

// Outside reports whether (x, y) lies more than margin beyond any edge.
func (a Arena) Outside(x, y, margin float64) bool {
	return x < -margin || x > a.Width+margin || y < -margin || y > a.Height+margin
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas // Logical coordinates are arena coordinates
}

// Drawable is an entity that can paint itself onto a terminal canvas.
type Drawable interface {
	Draw(ctx DrawContext)
}

// knownColors holds the parsed entity colors. It is only read after init,
// so render goroutines can share it.
var knownColors = map[string]draw.Color{
	config.PlayerColor: draw.MustParseHex(config.PlayerColor),
	config.EnemyColor:  draw.MustParseHex(config.EnemyColor),
}

// ColorOf resolves a hex color string for rendering.
func ColorOf(hex string) draw.Color {
	if c, ok := knownColors[hex]; ok {
		return c
	}
	return draw.MustParseHex(hex)
}
