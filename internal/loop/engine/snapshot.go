package engine

import (
	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/object"
)

// Snapshot is an immutable copy of one engine frame.
type Snapshot struct {
	Arena      object.Arena
	Player     object.Player
	Enemies    []object.Enemy
	Particles  []object.Particle
	Run        RunState
	Score      Score
	Difficulty int
}

var (
	arenaColor  = draw.MustParseHex(config.ArenaColor)
	borderColor = draw.MustParseHex(config.BorderColor)
)

// Draw paints the frame onto ctx.Canvas: arena background and border, then
// the player, enemies and particles in that order.
func (s *Snapshot) Draw(ctx object.DrawContext) {
	ctx.Canvas.FillRect(0, 0, s.Arena.Width, s.Arena.Height, arenaColor)
	ctx.Canvas.StrokeRect(0, 0, s.Arena.Width, s.Arena.Height, borderColor)

	s.Player.Draw(ctx)
	for _, e := range s.Enemies {
		e.Draw(ctx)
	}
	for _, p := range s.Particles {
		p.Draw(ctx)
	}
}
