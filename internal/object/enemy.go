package object

import (
	"math"
	"math/rand"

	"github.com/tomz197/evade/internal/loop/config"
)

// Edge identifies the arena side an enemy enters from.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// Enemy is a hostile circle flying in a straight line. Its heading is fixed
// when it spawns and never re-aims.
type Enemy struct {
	X, Y   float64 // Position (center)
	VX, VY float64 // Velocity per frame
	Radius float64
}

// NewEnemyAtEdge spawns an enemy just outside a random arena edge, aimed at
// (targetX, targetY) with a speed that grows with difficulty.
func NewEnemyAtEdge(rng *rand.Rand, arena Arena, targetX, targetY float64, difficulty int) Enemy {
	r := config.EnemyMinRadius + rng.Float64()*config.EnemyRadiusJitter

	var x, y float64
	switch Edge(rng.Intn(4)) {
	case EdgeTop:
		x = rng.Float64() * arena.Width
		y = -config.SpawnMargin
	case EdgeRight:
		x = arena.Width + config.SpawnMargin
		y = rng.Float64() * arena.Height
	case EdgeBottom:
		x = rng.Float64() * arena.Width
		y = arena.Height + config.SpawnMargin
	case EdgeLeft:
		x = -config.SpawnMargin
		y = rng.Float64() * arena.Height
	}

	angle := math.Atan2(targetY-y, targetX-x)
	speed := config.EnemyBaseSpeed + float64(difficulty)*config.EnemySpeedPerLvl + rng.Float64()*config.EnemySpeedJitter

	return Enemy{
		X:      x,
		Y:      y,
		VX:     math.Cos(angle) * speed,
		VY:     math.Sin(angle) * speed,
		Radius: r,
	}
}

// Update moves the enemy by its velocity.
func (e *Enemy) Update() {
	e.X += e.VX
	e.Y += e.VY
}

// Speed returns the magnitude of the enemy's velocity.
func (e Enemy) Speed() float64 {
	return math.Hypot(e.VX, e.VY)
}

// Draw renders the enemy as a filled red circle.
func (e Enemy) Draw(ctx DrawContext) {
	ctx.Canvas.FillCircle(e.X, e.Y, e.Radius, ColorOf(config.EnemyColor))
}
