package draw

import "math"

// Letterbox maps arena coordinates onto a drawing surface of a different
// aspect ratio. The arena is scaled uniformly to fit and centered, leaving
// bars on the two sides that don't fit.
type Letterbox struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewLetterbox fits an arenaW x arenaH area into a surfaceW x surfaceH surface.
func NewLetterbox(surfaceW, surfaceH, arenaW, arenaH float64) Letterbox {
	if arenaW <= 0 || arenaH <= 0 || surfaceW <= 0 || surfaceH <= 0 {
		return Letterbox{Scale: 1}
	}
	scale := math.Min(surfaceW/arenaW, surfaceH/arenaH)
	return Letterbox{
		Scale:   scale,
		OffsetX: (surfaceW - arenaW*scale) / 2,
		OffsetY: (surfaceH - arenaH*scale) / 2,
	}
}

// ToSurface converts arena coordinates to surface coordinates.
func (l Letterbox) ToSurface(x, y float64) (float64, float64) {
	return x*l.Scale + l.OffsetX, y*l.Scale + l.OffsetY
}

// ToArena converts surface coordinates back to arena coordinates.
// Points in the bars map outside the arena; callers clamp as needed.
func (l Letterbox) ToArena(sx, sy float64) (float64, float64) {
	if l.Scale == 0 {
		return sx, sy
	}
	return (sx - l.OffsetX) / l.Scale, (sy - l.OffsetY) / l.Scale
}
