// Package engine implements the per-frame survival simulation: the player
// glides toward an input-driven target, enemies spawn at the arena edges and
// fly straight, and the first collision ends the run.
//
// An Engine is not safe for concurrent use. Hosts either drive it from a
// single goroutine or funnel input through a channel onto the goroutine that
// calls Advance.
package engine

import (
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/object"
	"github.com/tomz197/evade/internal/physics"
)

// Outcome tags what a call to Advance did.
type Outcome int

const (
	OutcomeIdle       Outcome = iota // Nothing to simulate
	OutcomeContinuing                // A frame was simulated
	OutcomeGameOver                  // The run ended on this frame
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeContinuing:
		return "continuing"
	case OutcomeGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Score is the pair reported to score listeners: seconds survived and enemies dodged.
type Score struct {
	Elapsed float64
	Dodges  int
}

// Result is returned by every Advance call.
type Result struct {
	Outcome Outcome
	// Score holds the score tick on active frames and the final score on the
	// game-over frame.
	Score Score
	// ScoreTick is true when the run was active at the start of the frame.
	ScoreTick bool
}

// RunState is the mutable run bookkeeping owned by an Engine.
type RunState struct {
	Active     bool
	StartTime  time.Time
	DeathCount int // Enemies dodged during the active run
}

// Engine holds all simulation state for one player.
type Engine struct {
	arena       object.Arena
	clock       Clock
	rng         *rand.Rand
	spawnChance object.ChanceFunc
	spawner     *object.EnemySpawner

	player    object.Player
	enemies   []object.Enemy
	particles []object.Particle
	run       RunState
	last      Score // Most recent reported score, kept for display after game over
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand sets the random source used for spawning and explosions.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed seeds a fresh random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithSpawnChance overrides the per-frame spawn probability function.
func WithSpawnChance(f object.ChanceFunc) Option {
	return func(e *Engine) { e.spawnChance = f }
}

// WithArena overrides the arena size.
func WithArena(width, height float64) Option {
	return func(e *Engine) { e.arena = object.Arena{Width: width, Height: height} }
}

// New creates an idle engine with the player centered in the arena.
func New(opts ...Option) *Engine {
	e := &Engine{
		arena: object.Arena{Width: config.ArenaWidth, Height: config.ArenaHeight},
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.spawner = object.NewEnemySpawner(e.rng, e.spawnChance)

	cx, cy := e.arena.Center()
	e.player = object.NewPlayer(cx, cy)
	return e
}

// Start begins a fresh run. It may be called at any time, including in the
// middle of a run or while a previous explosion is still animating.
func (e *Engine) Start() {
	e.enemies = e.enemies[:0]
	e.particles = e.particles[:0]
	e.run = RunState{
		Active:    true,
		StartTime: e.clock.Now(),
	}
	e.last = Score{}
	cx, cy := e.arena.Center()
	e.player.Reset(cx, cy)
}

// SetTarget points the player at (x, y) in arena coordinates. The target is
// clamped so the player stays fully inside the arena.
func (e *Engine) SetTarget(x, y float64) {
	e.player.SetTarget(x, y, e.arena)
}

// StopMoving halts the player without clearing its target.
func (e *Engine) StopMoving() {
	e.player.Stop()
}

// SpawnEnemy adds an enemy at a random edge aimed at the player's current position.
func (e *Engine) SpawnEnemy(difficulty int) {
	e.enemies = append(e.enemies, e.spawner.Spawn(e.arena, e.player, difficulty))
}

// AddEnemy inserts a pre-built enemy, for replays and scripted scenarios.
func (e *Engine) AddEnemy(en object.Enemy) {
	e.enemies = append(e.enemies, en)
}

// CreateExplosion emits a burst of particles at (x, y).
func (e *Engine) CreateExplosion(x, y float64, color string) {
	e.particles = object.SpawnExplosion(e.rng, e.particles, x, y, config.ExplosionParticles, color)
}

// Difficulty returns the difficulty level after elapsed seconds. It starts
// at 1 and steps up every config.DifficultyStep.
func Difficulty(elapsed float64) int {
	if elapsed < 0 {
		elapsed = 0
	}
	return 1 + int(math.Floor(elapsed/config.DifficultyStep.Seconds()))
}

// Advance simulates one frame.
func (e *Engine) Advance() Result {
	if !e.run.Active && len(e.particles) == 0 {
		return Result{Outcome: OutcomeIdle}
	}

	res := Result{Outcome: OutcomeContinuing}
	elapsed := e.clock.Now().Sub(e.run.StartTime).Seconds()
	if e.run.Active {
		res.ScoreTick = true
		res.Score = Score{Elapsed: elapsed, Dodges: e.run.DeathCount}
		e.last = res.Score
	}

	difficulty := Difficulty(elapsed)

	e.player.Update()

	if e.run.Active && e.spawner.Roll(difficulty) {
		e.SpawnEnemy(difficulty)
	}

	// Enemies are visited in reverse index order, so an exit at a higher
	// index still counts as a dodge when a lower one collides this frame.
	// Once the run ends mid-pass, the remaining enemies still move and get
	// culled, but no further collisions or dodges are counted.
	w := len(e.enemies)
	for i := len(e.enemies) - 1; i >= 0; i-- {
		en := e.enemies[i]
		en.Update()

		if e.run.Active && physics.CirclesOverlapWithin(
			e.player.X, e.player.Y, e.player.Radius,
			en.X, en.Y, en.Radius, config.CollisionTolerance) {
			e.CreateExplosion(e.player.X, e.player.Y, e.player.Color)
			e.run.Active = false
			res.Outcome = OutcomeGameOver
			res.Score = Score{Elapsed: elapsed, Dodges: e.run.DeathCount}
			e.last = res.Score
		}

		if e.arena.Outside(en.X, en.Y, config.DestroyMargin) {
			if e.run.Active {
				e.run.DeathCount++
			}
			continue
		}
		w--
		e.enemies[w] = en
	}
	e.enemies = compactTail(e.enemies, w)

	w = len(e.particles)
	for i := len(e.particles) - 1; i >= 0; i-- {
		p := e.particles[i]
		if p.Update() {
			continue
		}
		w--
		e.particles[w] = p
	}
	e.particles = compactTail(e.particles, w)

	return res
}

// compactTail moves the survivors a reverse pass packed into s[from:] back
// to the front, keeping their insertion order. The write index never drops
// below the read index, so no unvisited entry is overwritten.
func compactTail[T any](s []T, from int) []T {
	n := copy(s, s[from:])
	return s[:n]
}

// Player returns a copy of the player.
func (e *Engine) Player() object.Player {
	return e.player
}

// Enemies returns the live enemies. The slice is owned by the engine and
// only valid until the next Advance or Start.
func (e *Engine) Enemies() []object.Enemy {
	return e.enemies
}

// Particles returns the live particles. The slice is owned by the engine and
// only valid until the next Advance or Start.
func (e *Engine) Particles() []object.Particle {
	return e.particles
}

// Run returns the current run state.
func (e *Engine) Run() RunState {
	return e.run
}

// Arena returns the arena bounds.
func (e *Engine) Arena() object.Arena {
	return e.arena
}

// Score returns the live score while a run is active, otherwise the last
// reported score (the final score after a game over).
func (e *Engine) Score() Score {
	if e.run.Active {
		return Score{
			Elapsed: e.clock.Now().Sub(e.run.StartTime).Seconds(),
			Dodges:  e.run.DeathCount,
		}
	}
	return e.last
}

// Snapshot returns a deep copy of the engine state, safe to hand to
// another goroutine for rendering.
func (e *Engine) Snapshot() Snapshot {
	score := e.Score()
	return Snapshot{
		Arena:      e.arena,
		Player:     e.player,
		Enemies:    slices.Clone(e.enemies),
		Particles:  slices.Clone(e.particles),
		Run:        e.run,
		Score:      score,
		Difficulty: Difficulty(score.Elapsed),
	}
}
