package object

import (
	"math/rand"

	"github.com/tomz197/evade/internal/loop/config"
)

// ChanceFunc maps a difficulty level to a per-frame spawn probability.
type ChanceFunc func(difficulty int) float64

// DefaultSpawnChance ramps the per-frame spawn probability with difficulty.
func DefaultSpawnChance(difficulty int) float64 {
	return config.SpawnBaseChance + float64(difficulty)*config.SpawnChancePerLvl
}

// EnemySpawner rolls an independent Bernoulli trial every frame and spawns
// an enemy on success. There is no fixed interval between spawns.
type EnemySpawner struct {
	rng    *rand.Rand
	chance ChanceFunc
}

// NewEnemySpawner creates a spawner. A nil chance uses DefaultSpawnChance.
func NewEnemySpawner(rng *rand.Rand, chance ChanceFunc) *EnemySpawner {
	if chance == nil {
		chance = DefaultSpawnChance
	}
	return &EnemySpawner{rng: rng, chance: chance}
}

// Roll reports whether an enemy should spawn this frame.
func (s *EnemySpawner) Roll(difficulty int) bool {
	return s.rng.Float64() < s.chance(difficulty)
}

// Spawn creates an enemy aimed at the player's current position.
func (s *EnemySpawner) Spawn(arena Arena, player Player, difficulty int) Enemy {
	return NewEnemyAtEdge(s.rng, arena, player.X, player.Y, difficulty)
}
