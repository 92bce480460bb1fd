package loop

import (
	"testing"

	"github.com/tomz197/evade/internal/loop/engine"
)

func TestEngineOptionsFromEnv(t *testing.T) {
	t.Setenv("GAME_SEED", "")
	if opts := EngineOptionsFromEnv(); len(opts) != 0 {
		t.Fatalf("got %d options without a seed, want 0", len(opts))
	}

	t.Setenv("GAME_SEED", "not-a-number")
	if opts := EngineOptionsFromEnv(); len(opts) != 0 {
		t.Fatalf("got %d options for an invalid seed, want 0", len(opts))
	}

	t.Setenv("GAME_SEED", "42")
	opts := EngineOptionsFromEnv()
	if len(opts) != 1 {
		t.Fatalf("got %d options, want 1", len(opts))
	}

	// Same seed, same first spawn.
	a := engine.New(opts...)
	b := engine.New(EngineOptionsFromEnv()...)
	a.SpawnEnemy(0)
	b.SpawnEnemy(0)
	if a.Enemies()[0] != b.Enemies()[0] {
		t.Fatalf("seeded engines diverged: %+v vs %+v", a.Enemies()[0], b.Enemies()[0])
	}
}
