package object

import (
	"math"
	"math/rand"

	"github.com/tomz197/evade/internal/loop/config"
)

// Particle is a short-lived visual effect.
type Particle struct {
	X, Y   float64 // Position
	VX, VY float64 // Velocity per frame
	Life   float64 // 1.0 when spawned, removed at or below 0
	Color  string
}

// SpawnExplosion appends count particles bursting out of (x, y) in random
// directions and returns the extended slice.
func SpawnExplosion(rng *rand.Rand, particles []Particle, x, y float64, count int, color string) []Particle {
	for i := 0; i < count; i++ {
		angle := rng.Float64() * 2 * math.Pi
		speed := rng.Float64()*config.ParticleSpeedRange + config.ParticleMinSpeed
		particles = append(particles, Particle{
			X:     x,
			Y:     y,
			VX:    math.Cos(angle) * speed,
			VY:    math.Sin(angle) * speed,
			Life:  1.0,
			Color: color,
		})
	}
	return particles
}

// Update moves the particle and decays its life. Returns true once the
// particle has burned out and should be removed.
func (p *Particle) Update() bool {
	p.X += p.VX
	p.Y += p.VY
	p.Life -= config.ParticleDecay
	return p.Life <= 0
}

// Draw renders the particle as a small dot, fading with its life.
func (p Particle) Draw(ctx DrawContext) {
	// Skip faded particles (< 25% life)
	if p.Life < 0.25 {
		return
	}
	ctx.Canvas.FillCircle(p.X, p.Y, config.ParticleDrawRadius, ColorOf(p.Color).Scale(p.Life))
}
