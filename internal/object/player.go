package object

import (
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/physics"
)

// Player is the pointer-steered avatar. It glides toward its target at a
// bounded speed and never leaves the reachable box of the arena.
type Player struct {
	X, Y             float64 // Position (center)
	TargetX, TargetY float64 // Where the input last pointed
	Radius           float64
	Speed            float64 // Max units per frame
	Moving           bool
	Color            string
}

// NewPlayer creates a player at rest at (x, y).
func NewPlayer(x, y float64) Player {
	return Player{
		X:       x,
		Y:       y,
		TargetX: x,
		TargetY: y,
		Radius:  config.PlayerRadius,
		Speed:   config.PlayerSpeed,
		Color:   config.PlayerColor,
	}
}

// Reset puts the player at rest at (x, y).
func (p *Player) Reset(x, y float64) {
	p.X, p.Y = x, y
	p.TargetX, p.TargetY = x, y
	p.Moving = false
}

// SetTarget clamps (x, y) into [r, W-r] x [r, H-r] and starts moving toward it.
func (p *Player) SetTarget(x, y float64, arena Arena) {
	p.TargetX = physics.Clamp(x, p.Radius, arena.Width-p.Radius)
	p.TargetY = physics.Clamp(y, p.Radius, arena.Height-p.Radius)
	p.Moving = true
}

// Stop halts movement without forgetting the target.
func (p *Player) Stop() {
	p.Moving = false
}

// Update steps toward the target when moving. Within the arrival
// tolerance the player rests where it is.
func (p *Player) Update() {
	if !p.Moving {
		return
	}
	p.X, p.Y, _ = physics.StepToward(p.X, p.Y, p.TargetX, p.TargetY, p.Speed, config.ArrivalTolerance)
}

// DistanceToTarget returns how far the player is from its target.
func (p Player) DistanceToTarget() float64 {
	return physics.Distance(p.X, p.Y, p.TargetX, p.TargetY)
}

// Draw renders the player with a dim halo ring.
func (p Player) Draw(ctx DrawContext) {
	c := ColorOf(p.Color)
	ctx.Canvas.StrokeCircle(p.X, p.Y, p.Radius+6, 2, c.Scale(0.35))
	ctx.Canvas.FillCircle(p.X, p.Y, p.Radius, c)
}

var _ Drawable = Player{}
