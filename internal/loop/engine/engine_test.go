package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/object"
	"github.com/tomz197/evade/internal/physics"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func noSpawn(int) float64 { return 0 }

// newTestEngine returns a deterministic engine that never spawns on its own.
func newTestEngine(t *testing.T) (*Engine, *MockClock) {
	t.Helper()
	clock := NewMockClock(t0)
	e := New(
		WithClock(clock),
		WithRand(rand.New(rand.NewSource(42))),
		WithSpawnChance(noSpawn),
	)
	return e, clock
}

func TestNewEngine(t *testing.T) {
	e, _ := newTestEngine(t)
	p := e.Player()
	if p.X != 400 || p.Y != 300 {
		t.Fatalf("player at (%f,%f), want (400,300)", p.X, p.Y)
	}
	if p.Radius != 16 || p.Speed != 8 || p.Color != "#00ffff" {
		t.Fatalf("unexpected player %+v", p)
	}
	if e.Run().Active || e.Run().DeathCount != 0 {
		t.Fatalf("unexpected run state %+v", e.Run())
	}
	if len(e.Enemies()) != 0 || len(e.Particles()) != 0 {
		t.Fatal("expected empty collections")
	}
	if res := e.Advance(); res.Outcome != OutcomeIdle || res.ScoreTick {
		t.Fatalf("idle engine advanced: %+v", res)
	}
}

func TestSetTargetAlwaysInsideReachableBox(t *testing.T) {
	e, _ := newTestEngine(t)
	rng := rand.New(rand.NewSource(9))
	r := e.Player().Radius
	for i := 0; i < 1000; i++ {
		x := (rng.Float64() - 0.5) * 4000
		y := (rng.Float64() - 0.5) * 4000
		e.SetTarget(x, y)
		p := e.Player()
		if p.TargetX < r || p.TargetX > 800-r || p.TargetY < r || p.TargetY > 600-r {
			t.Fatalf("SetTarget(%f,%f) stored (%f,%f)", x, y, p.TargetX, p.TargetY)
		}
		if !p.Moving {
			t.Fatal("Expected SetTarget to set Moving")
		}
	}
}

func TestStartResetsEverything(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Start()
	e.SetTarget(700, 500)
	for i := 0; i < 20; i++ {
		clock.Advance(16 * time.Millisecond)
		e.Advance()
	}
	e.SpawnEnemy(3)
	e.CreateExplosion(10, 10, "#ffffff")
	e.AddEnemy(object.Enemy{X: -99, Y: 50, VX: -5, Radius: 30})
	e.Advance()
	if e.Run().DeathCount == 0 {
		t.Fatal("setup should have produced a dodge")
	}

	clock.Advance(time.Second)
	e.Start()

	run := e.Run()
	if !run.Active || run.DeathCount != 0 || !run.StartTime.Equal(clock.Now()) {
		t.Fatalf("unexpected run state after Start: %+v", run)
	}
	if len(e.Enemies()) != 0 || len(e.Particles()) != 0 {
		t.Fatal("Start should clear enemies and particles")
	}
	p := e.Player()
	if p.X != 400 || p.Y != 300 || p.TargetX != 400 || p.TargetY != 300 || p.Moving {
		t.Fatalf("Start should center the player at rest, got %+v", p)
	}
}

func TestAdvanceMovesPlayerMonotonically(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Start()
	e.SetTarget(50, 580)

	p := e.Player()
	prev := physics.Distance(p.X, p.Y, p.TargetX, p.TargetY)
	frames := 0
	for prev > config.ArrivalTolerance {
		clock.Advance(16 * time.Millisecond)
		e.Advance()
		p = e.Player()
		d := physics.Distance(p.X, p.Y, p.TargetX, p.TargetY)
		if d >= prev {
			t.Fatalf("frame %d: distance %f did not decrease from %f", frames, d, prev)
		}
		prev = d
		frames++
		if frames > 100 {
			t.Fatal("player never arrived")
		}
	}

	// At rest within tolerance.
	x, y := p.X, p.Y
	e.Advance()
	if p = e.Player(); p.X != x || p.Y != y {
		t.Fatal("player moved after arriving")
	}
}

func TestStopMovingFreezesPlayer(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Start()
	e.SetTarget(700, 300)
	e.Advance()
	e.StopMoving()
	x := e.Player().X
	e.Advance()
	if e.Player().X != x {
		t.Fatal("player moved after StopMoving")
	}
	if e.Player().TargetX != 700 {
		t.Fatal("StopMoving should keep the target")
	}
}

func TestThousandQuietFrames(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Start()
	e.SetTarget(400, 300)

	last := -1.0
	for i := 0; i < 1000; i++ {
		clock.Advance(16 * time.Millisecond)
		res := e.Advance()
		if res.Outcome == OutcomeGameOver {
			t.Fatalf("frame %d: unexpected game over", i)
		}
		if !res.ScoreTick {
			t.Fatalf("frame %d: missing score tick", i)
		}
		if res.Score.Elapsed <= last {
			t.Fatalf("frame %d: elapsed %f not increasing from %f", i, res.Score.Elapsed, last)
		}
		last = res.Score.Elapsed
	}

	p := e.Player()
	if p.X != 400 || p.Y != 300 {
		t.Fatalf("player drifted to (%f,%f)", p.X, p.Y)
	}
	if len(e.Enemies()) != 0 {
		t.Fatalf("got %d enemies with spawning disabled", len(e.Enemies()))
	}
	if math.Abs(last-16.0) > 1e-9 {
		t.Fatalf("final elapsed %f, want 16", last)
	}
}

func TestAdjacentEnemyEndsRunOnce(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Start()
	clock.Advance(12500 * time.Millisecond)

	// 30 units away; collision threshold is 16 + 30 - 2 = 44.
	e.AddEnemy(object.Enemy{X: 430, Y: 300, Radius: 30})

	res := e.Advance()
	if res.Outcome != OutcomeGameOver {
		t.Fatalf("outcome %v, want game_over", res.Outcome)
	}
	if res.Score.Elapsed != 12.5 || res.Score.Dodges != 0 {
		t.Fatalf("final score %+v, want {12.5 0}", res.Score)
	}
	if e.Run().Active {
		t.Fatal("run should be inactive after collision")
	}
	if got := len(e.Particles()); got != 25 {
		t.Fatalf("got %d particles, want 25", got)
	}
	for _, p := range e.Particles() {
		if p.Color != "#00ffff" {
			t.Fatalf("particle color %s, want player color", p.Color)
		}
		// Particles were moved once on the frame they were created.
		if d := physics.Distance(400, 300, p.X, p.Y); d > 8+1e-9 || d < 2-1e-9 {
			t.Fatalf("particle %f away from the player after one frame", d)
		}
	}

	gameOvers := 1
	for i := 0; i < 100; i++ {
		clock.Advance(16 * time.Millisecond)
		res := e.Advance()
		if res.Outcome == OutcomeGameOver {
			gameOvers++
		}
		if res.ScoreTick {
			t.Fatal("no score ticks after the run ended")
		}
		if res.Outcome == OutcomeIdle {
			break
		}
	}
	if gameOvers != 1 {
		t.Fatalf("got %d game overs, want 1", gameOvers)
	}
	if len(e.Particles()) != 0 {
		t.Fatal("explosion should have burned out")
	}
	if e.Score().Elapsed != 12.5 {
		t.Fatalf("final score not retained: %+v", e.Score())
	}
}

func TestTwoSimultaneousCollisionsReportOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Start()
	e.AddEnemy(object.Enemy{X: 420, Y: 300, Radius: 30})
	e.AddEnemy(object.Enemy{X: 380, Y: 300, Radius: 30})

	res := e.Advance()
	if res.Outcome != OutcomeGameOver {
		t.Fatalf("outcome %v, want game_over", res.Outcome)
	}
	if got := len(e.Particles()); got != 25 {
		t.Fatalf("got %d particles, want exactly one explosion", got)
	}
	if got := len(e.Enemies()); got != 2 {
		t.Fatalf("got %d enemies, want both kept", got)
	}
}

func TestDodgeCountsOnlyWhileActive(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Start()
	e.AddEnemy(object.Enemy{X: -99, Y: 50, VX: -2, Radius: 30})
	e.AddEnemy(object.Enemy{X: 200, Y: 50, VX: -2, Radius: 30})

	e.Advance()
	if got := e.Run().DeathCount; got != 1 {
		t.Fatalf("DeathCount = %d, want 1", got)
	}
	if got := len(e.Enemies()); got != 1 || e.Enemies()[0].X != 198 {
		t.Fatalf("expected only the in-bounds enemy to remain, got %+v", e.Enemies())
	}

	res := e.Advance()
	if res.Score.Dodges != 1 {
		t.Fatalf("score tick reported %d dodges, want 1", res.Score.Dodges)
	}

	// After the run ends, exits are culled without counting. The exit sits
	// at a lower index, so the pass reaches it after the collision.
	e.AddEnemy(object.Enemy{X: 899, Y: 300, VX: 5, Radius: 30})
	e.AddEnemy(object.Enemy{X: 400, Y: 300, Radius: 30})
	res = e.Advance()
	if res.Outcome != OutcomeGameOver {
		t.Fatalf("outcome %v, want game_over", res.Outcome)
	}
	if got := e.Run().DeathCount; got != 1 {
		t.Fatalf("DeathCount = %d after game over, want 1", got)
	}
	for _, en := range e.Enemies() {
		if en.X > 900 {
			t.Fatal("out-of-bounds enemy was not removed after game over")
		}
	}
}

func TestExitAboveCollisionCountsAsDodge(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Start()
	e.AddEnemy(object.Enemy{X: 400, Y: 300, Radius: 30})
	e.AddEnemy(object.Enemy{X: -500, Y: 300, Radius: 30})

	res := e.Advance()
	if res.Outcome != OutcomeGameOver {
		t.Fatalf("outcome %v, want game_over", res.Outcome)
	}
	if res.Score.Dodges != 1 {
		t.Fatalf("game-over dodges = %d, want 1", res.Score.Dodges)
	}
	if got := len(e.Enemies()); got != 1 || e.Enemies()[0].X != 400 {
		t.Fatalf("expected only the colliding enemy to remain, got %+v", e.Enemies())
	}
}

func TestReversePassKeepsInsertionOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Start()
	for i := 0; i < 6; i++ {
		x := 100 + float64(i)*10
		if i%2 == 1 {
			x = -500 // Culled on the first frame
		}
		e.AddEnemy(object.Enemy{X: x, Y: 40, Radius: 10})
	}

	e.Advance()
	got := e.Enemies()
	want := []float64{100, 120, 140}
	if len(got) != len(want) {
		t.Fatalf("got %d enemies, want %d", len(got), len(want))
	}
	for i, en := range got {
		if en.X != want[i] {
			t.Fatalf("enemy %d at x=%v, want %v", i, en.X, want[i])
		}
	}
	if e.Run().DeathCount != 3 {
		t.Fatalf("DeathCount = %d, want 3", e.Run().DeathCount)
	}
}

func TestParticlesBurnOutAfter25Frames(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateExplosion(100, 100, "#ff3333")
	if got := len(e.Particles()); got != 25 {
		t.Fatalf("got %d particles, want 25", got)
	}

	for i := 1; i <= 24; i++ {
		if res := e.Advance(); res.Outcome != OutcomeContinuing {
			t.Fatalf("frame %d: outcome %v, want continuing", i, res.Outcome)
		}
		if got := len(e.Particles()); got != 25 {
			t.Fatalf("frame %d: %d particles left, want 25", i, got)
		}
		want := 1 - float64(i)*config.ParticleDecay
		if got := e.Particles()[0].Life; math.Abs(got-want) > 1e-9 {
			t.Fatalf("frame %d: life %f, want %f", i, got, want)
		}
	}

	e.Advance()
	if got := len(e.Particles()); got != 0 {
		t.Fatalf("%d particles survived the 25th frame", got)
	}
	if res := e.Advance(); res.Outcome != OutcomeIdle {
		t.Fatalf("outcome %v, want idle", res.Outcome)
	}
}

func TestSpawnRollUsesDifficulty(t *testing.T) {
	clock := NewMockClock(t0)
	var seen []int
	e := New(
		WithClock(clock),
		WithSeed(1),
		WithSpawnChance(func(d int) float64 {
			seen = append(seen, d)
			return 1
		}),
	)
	e.Start()
	e.Advance()
	clock.Advance(25 * time.Second)
	e.Advance()

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("spawn chance called with %v, want [1 3]", seen)
	}
	if got := len(e.Enemies()); got != 2 {
		t.Fatalf("got %d enemies, want 2", got)
	}
}

func TestSpawnEnemyAimsAtPlayer(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Start()
	e.SpawnEnemy(1)
	en := e.Enemies()[0]

	want := math.Atan2(300-en.Y, 400-en.X)
	if got := math.Atan2(en.VY, en.VX); math.Abs(got-want) > 1e-9 {
		t.Fatalf("heading %f, want %f", got, want)
	}
}

func TestDifficulty(t *testing.T) {
	cases := []struct {
		elapsed float64
		want    int
	}{
		{0, 1}, {9.99, 1}, {10, 2}, {59.5, 6}, {-3, 1},
	}
	for _, c := range cases {
		if got := Difficulty(c.elapsed); got != c.want {
			t.Errorf("Difficulty(%v) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Start()
	e.AddEnemy(object.Enemy{X: 100, Y: 100, Radius: 30})
	clock.Advance(11 * time.Second)

	snap := e.Snapshot()
	snap.Enemies[0].X = 999
	if e.Enemies()[0].X != 100 {
		t.Fatal("mutating the snapshot changed the engine")
	}
	if snap.Difficulty != 2 || snap.Score.Elapsed != 11 {
		t.Fatalf("snapshot score %+v difficulty %d", snap.Score, snap.Difficulty)
	}
	if !snap.Run.Active {
		t.Fatal("snapshot should carry the run state")
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeGameOver.String() != "game_over" || Outcome(99).String() != "unknown" {
		t.Fatal("unexpected Outcome strings")
	}
}
