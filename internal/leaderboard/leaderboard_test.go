package leaderboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "lb.db"), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Deterministic, strictly increasing timestamps for tie-breaks.
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

var allowAll = Options{AllowCreate: true, AllowClientStats: true}

func TestLoginCreatesAndReusesPlayer(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, allowAll)

	p1, err := s.LoginWithCustomID(ctx, "device-1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if p1.ID == "" || p1.DisplayName != "" {
		t.Fatalf("unexpected player %+v", p1)
	}

	p2, err := s.LoginWithCustomID(ctx, "device-1")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if p2.ID != p1.ID {
		t.Fatalf("got player %s, want %s", p2.ID, p1.ID)
	}

	if _, err := s.LoginWithCustomID(ctx, "  "); err == nil {
		t.Fatal("expected error for blank custom id")
	}
}

func TestLoginCreationDisabled(t *testing.T) {
	s := openTestStore(t, Options{AllowCreate: false, AllowClientStats: true})
	_, err := s.LoginWithCustomID(context.Background(), "new-device")
	if !errors.Is(err, ErrPlayerCreationDisabled) {
		t.Fatalf("got %v, want ErrPlayerCreationDisabled", err)
	}
}

func TestSubmitScoreKeepsBest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, allowAll)
	sess := NewSession(s, "device-1")

	if err := sess.SubmitScore(ctx, 10); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("got %v, want ErrNotLoggedIn", err)
	}
	if _, err := sess.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}

	for _, secs := range []float64{12.345, 30.999, 5} {
		if err := sess.SubmitScore(ctx, secs); err != nil {
			t.Fatalf("SubmitScore(%v): %v", secs, err)
		}
	}

	top, err := sess.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("got %d entries, want 1", len(top))
	}
	if top[0].StatValue != 3099 {
		t.Fatalf("stat value %d, want 3099", top[0].StatValue)
	}
	if top[0].Time() != "30.99s" {
		t.Fatalf("Time() = %q, want 30.99s", top[0].Time())
	}
	if top[0].Name() != "Unknown" {
		t.Fatalf("Name() = %q, want Unknown", top[0].Name())
	}
}

func TestClientStatsDisabled(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, Options{AllowCreate: true})
	sess := NewSession(s, "device-1")
	if _, err := sess.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := sess.SubmitScore(ctx, 3); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("got %v, want ErrNotAuthorized", err)
	}
}

func TestTopOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, allowAll)

	// Twelve players; two share the best score, the earlier one wins.
	for i := 0; i < 12; i++ {
		sess := NewSession(s, "device-"+string(rune('a'+i)))
		if _, err := sess.Login(ctx); err != nil {
			t.Fatalf("Login: %v", err)
		}
		if err := sess.UpdateDisplayName(ctx, "p"+string(rune('a'+i))); err != nil {
			t.Fatalf("UpdateDisplayName: %v", err)
		}
		secs := float64(i)
		if i == 11 {
			secs = 10
		}
		if err := sess.SubmitScore(ctx, secs); err != nil {
			t.Fatalf("SubmitScore: %v", err)
		}
	}

	top, err := s.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 10 {
		t.Fatalf("got %d entries, want 10", len(top))
	}
	if top[0].DisplayName != "pk" || top[1].DisplayName != "pl" {
		t.Fatalf("tie-break order wrong: %s, %s", top[0].DisplayName, top[1].DisplayName)
	}
	for i, e := range top {
		if e.Position != i {
			t.Fatalf("entry %d has position %d", i, e.Position)
		}
		if i > 0 && e.StatValue > top[i-1].StatValue {
			t.Fatalf("entries not sorted: %d after %d", e.StatValue, top[i-1].StatValue)
		}
	}
}

func TestDisplayName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, allowAll)
	sess := NewSession(s, "device-1")

	if err := sess.UpdateDisplayName(ctx, "ace"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("got %v, want ErrNotLoggedIn", err)
	}
	if _, err := sess.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := sess.UpdateDisplayName(ctx, "   "); !errors.Is(err, ErrInvalidDisplayName) {
		t.Fatalf("got %v, want ErrInvalidDisplayName", err)
	}
	if err := sess.UpdateDisplayName(ctx, strings.Repeat("x", 17)); !errors.Is(err, ErrInvalidDisplayName) {
		t.Fatalf("got %v, want ErrInvalidDisplayName", err)
	}
	if err := sess.UpdateDisplayName(ctx, "  Ace Pilot "); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	if sess.DisplayName() != "Ace Pilot" {
		t.Fatalf("cached name %q", sess.DisplayName())
	}

	// A fresh session for the same device picks the name up on login.
	again := NewSession(s, "device-1")
	if _, err := again.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if again.DisplayName() != "Ace Pilot" {
		t.Fatalf("display name after re-login %q", again.DisplayName())
	}

	name, err := s.DisplayName(ctx, again.PlayerID())
	if err != nil || name != "Ace Pilot" {
		t.Fatalf("store DisplayName = %q, %v", name, err)
	}
	if _, err := s.DisplayName(ctx, "missing"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("got %v, want ErrPlayerNotFound", err)
	}
}

func TestFormatTimeAndScoreValue(t *testing.T) {
	if got := FormatTime(1234); got != "12.34s" {
		t.Errorf("FormatTime(1234) = %q", got)
	}
	if got := FormatTime(0); got != "0.00s" {
		t.Errorf("FormatTime(0) = %q", got)
	}
	if got := ScoreValue(12.349); got != 1234 {
		t.Errorf("ScoreValue(12.349) = %d, want 1234", got)
	}
}

func TestLeaderboardLogsInWhenNeeded(t *testing.T) {
	s := openTestStore(t, allowAll)
	sess := NewSession(s, "lazy")
	top, err := sess.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("got %d entries on an empty board", len(top))
	}
	if !sess.IsLoggedIn() {
		t.Fatal("Leaderboard should have logged the session in")
	}
}

func TestLocalCustomID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "player-id")

	first, err := LocalCustomID(path)
	if err != nil {
		t.Fatalf("LocalCustomID: %v", err)
	}
	if !strings.HasPrefix(first, "local:") {
		t.Fatalf("got %q, want a local: prefix", first)
	}

	second, err := LocalCustomID(path)
	if err != nil {
		t.Fatalf("LocalCustomID again: %v", err)
	}
	if second != first {
		t.Fatalf("got %q on second call, want %q", second, first)
	}
}

func TestLocalCustomIDRegeneratesBlankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player-id")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	id, err := LocalCustomID(path)
	if err != nil || id == "" {
		t.Fatalf("got %q, %v", id, err)
	}
}
