package client

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomz197/evade/internal/input"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/server"
)

type fakeBoard struct {
	mu        sync.Mutex
	name      string
	submitted []float64
	entries   []leaderboard.Entry
}

func (f *fakeBoard) Login(ctx context.Context) (string, error) { return "player-1", nil }

func (f *fakeBoard) DisplayName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

func (f *fakeBoard) UpdateDisplayName(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	return nil
}

func (f *fakeBoard) SubmitScore(ctx context.Context, seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, seconds)
	return nil
}

func (f *fakeBoard) Leaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	return f.entries, nil
}

type testRig struct {
	srv    *server.Server
	client *Client
	stream *input.Stream
	out    *bytes.Buffer
}

func newTestRig(t *testing.T, board Leaderboard) *testRig {
	t.Helper()
	clock := engine.NewMockClock(time.Unix(0, 0))
	srv := server.NewServer(server.WithEngineFactory(func() *engine.Engine {
		return engine.New(
			engine.WithClock(clock),
			engine.WithRand(rand.New(rand.NewSource(1))),
			engine.WithSpawnChance(func(int) float64 { return 0 }),
		)
	}))
	stream := input.NewStream()
	out := &bytes.Buffer{}
	c := NewClient(srv, nil, out, ClientOptions{
		TermSizeFunc: func() (int, int, error) { return 80, 24, nil },
		Username:     "tester",
		Leaderboard:  board,
		InputStream:  stream,
	})
	srv.Tick()
	return &testRig{srv: srv, client: c, stream: stream, out: out}
}

// frame feeds p and runs one client frame followed by one server tick.
func (r *testRig) frame(t *testing.T, p string) {
	t.Helper()
	r.stream.Feed([]byte(p))
	if err := r.client.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	r.srv.Tick()
}

// waitFor runs frames until cond holds or a second passes.
func (r *testRig) waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
		r.frame(t, "")
	}
}

func TestClampTermSize(t *testing.T) {
	w, h, col, row := clampTermSize(200, 80)
	if w != 160 || h != 60 {
		t.Fatalf("got %dx%d, want 160x60", w, h)
	}
	if col != 20 || row != 10 {
		t.Fatalf("got offset (%d,%d), want (20,10)", col, row)
	}

	w, h, col, row = clampTermSize(80, 24)
	if w != 80 || h != 24 || col != 0 || row != 0 {
		t.Fatalf("small terminal should not be clamped, got %d %d %d %d", w, h, col, row)
	}
}

func TestSpaceStartsRun(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(t, " ")

	if r.client.state.GameState != GameStatePlaying {
		t.Fatalf("got state %d, want playing", r.client.state.GameState)
	}
	if !r.client.handle.Snapshot().Run.Active {
		t.Fatal("expected the server session to be active")
	}
}

func TestMouseSteersAndReleaseStops(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(t, " ")

	wantX, wantY := r.client.canvas.TerminalToLogical(41, 12)
	r.frame(t, "\x1b[<0;41;12M")
	p := r.client.handle.Snapshot().Player
	if !p.Moving {
		t.Fatal("expected player to move after mouse press")
	}
	if p.TargetX != wantX || p.TargetY != wantY {
		t.Fatalf("got target (%f,%f), want (%f,%f)", p.TargetX, p.TargetY, wantX, wantY)
	}

	r.frame(t, "\x1b[<0;41;12m")
	if r.client.handle.Snapshot().Player.Moving {
		t.Fatal("expected player to stop after mouse release")
	}
}

func TestKeyboardSteering(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(t, " ")

	start := r.client.handle.Snapshot().Player
	r.frame(t, "d")
	p := r.client.handle.Snapshot().Player
	if !p.Moving || p.TargetX <= start.X || p.TargetY != start.Y {
		t.Fatalf("expected target to the right of (%f,%f), got (%f,%f)", start.X, start.Y, p.TargetX, p.TargetY)
	}
	if !r.client.state.steering {
		t.Fatal("expected keyboard steering to be tracked")
	}
}

func TestClickOnTitleStartsWithoutSteering(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(t, "\x1b[<0;41;12M")
	if r.client.state.GameState != GameStatePlaying {
		t.Fatalf("got state %d, want playing after click", r.client.state.GameState)
	}
	if r.client.handle.Snapshot().Player.Moving {
		t.Fatal("the click that starts a run must not also steer")
	}
}

func TestGameOverSubmitsScore(t *testing.T) {
	board := &fakeBoard{}
	r := newTestRig(t, board)
	r.frame(t, " ")

	r.client.handle.EventsCh <- server.ClientEvent{
		Type:  server.EventGameOver,
		Score: engine.Score{Elapsed: 12.5, Dodges: 3},
	}
	r.frame(t, "")

	if r.client.state.GameState != GameStateDead {
		t.Fatalf("got state %d, want dead", r.client.state.GameState)
	}
	if r.client.state.FinalScore.Dodges != 3 || r.client.state.BestTime != 12.5 {
		t.Fatalf("unexpected final score %+v best %f", r.client.state.FinalScore, r.client.state.BestTime)
	}

	r.waitFor(t, func() bool { return r.client.state.submitStatus == "Score saved" })
	board.mu.Lock()
	defer board.mu.Unlock()
	if len(board.submitted) != 1 || board.submitted[0] != 12.5 {
		t.Fatalf("got submissions %v, want [12.5]", board.submitted)
	}
}

func TestGameOverWithoutLeaderboard(t *testing.T) {
	r := newTestRig(t, nil)
	r.client.handle.EventsCh <- server.ClientEvent{Type: server.EventGameOver}
	r.frame(t, "")
	if r.client.state.submitStatus != "" {
		t.Fatalf("got status %q, want none", r.client.state.submitStatus)
	}
}

func TestRankingScreenShowsEntries(t *testing.T) {
	board := &fakeBoard{entries: []leaderboard.Entry{
		{Position: 0, DisplayName: "alice", StatValue: 4210},
		{Position: 1, StatValue: 1500},
	}}
	r := newTestRig(t, board)
	r.frame(t, "r")
	if r.client.state.GameState != GameStateRanking {
		t.Fatalf("got state %d, want ranking", r.client.state.GameState)
	}

	r.waitFor(t, func() bool { return !r.client.state.rankingLoading })
	r.out.Reset()
	r.frame(t, "")
	out := r.out.String()
	for _, want := range []string{"alice", "42.10s", "Unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected ranking output to contain %q", want)
		}
	}

	r.frame(t, "\x1b")
	if r.client.state.GameState != GameStateStart {
		t.Fatalf("got state %d, want start after escape", r.client.state.GameState)
	}
}

func TestRankingWithoutLeaderboard(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(t, "r")
	if r.client.state.rankingErr == nil {
		t.Fatal("expected an error when no leaderboard is configured")
	}
}

func TestRenameUpdatesDisplayName(t *testing.T) {
	board := &fakeBoard{}
	r := newTestRig(t, board)
	r.frame(t, "n")
	if r.client.state.GameState != GameStateRename {
		t.Fatalf("got state %d, want rename", r.client.state.GameState)
	}

	r.frame(t, "quix")
	if !r.client.state.Running {
		t.Fatal("typing q while renaming must not quit")
	}
	r.frame(t, "\x7f\r")

	r.waitFor(t, func() bool { return r.client.state.GameState == GameStateStart })
	if r.client.state.displayName != "qui" {
		t.Fatalf("got display name %q, want qui", r.client.state.displayName)
	}
	if board.DisplayName() != "qui" {
		t.Fatalf("leaderboard got %q, want qui", board.DisplayName())
	}
}

func TestRenameReturnsToTitleWithoutStarting(t *testing.T) {
	board := &fakeBoard{}
	r := newTestRig(t, board)
	r.frame(t, "n")
	r.frame(t, "ab")
	r.frame(t, "\r")

	seen := map[GameState]bool{}
	deadline := time.Now().Add(time.Second)
	for board.DisplayName() != "ab" || r.client.state.GameState == GameStateRename {
		if time.Now().After(deadline) {
			t.Fatal("rename never completed")
		}
		time.Sleep(2 * time.Millisecond)
		r.frame(t, "")
		seen[r.client.state.GameState] = true
	}
	for i := 0; i < 20; i++ {
		r.frame(t, "")
		seen[r.client.state.GameState] = true
	}

	if seen[GameStatePlaying] {
		t.Fatalf("Enter from the name editor started a run, states seen %v", seen)
	}
	if r.client.state.GameState != GameStateStart {
		t.Fatalf("got state %d, want title", r.client.state.GameState)
	}
	if !r.client.state.Running {
		t.Fatal("Expected the client to keep running")
	}
}

func TestSetStateDropsFrameInput(t *testing.T) {
	r := newTestRig(t, nil)
	r.client.state.Input = input.Input{Enter: true, Space: true}
	r.client.setState(GameStateStart)
	r.client.updateStartState()
	if r.client.state.GameState != GameStateStart {
		t.Fatalf("got state %d, want the title to ignore input from before the switch", r.client.state.GameState)
	}
}

func TestRenameRejectsBlankName(t *testing.T) {
	r := newTestRig(t, &fakeBoard{})
	r.frame(t, "n")
	r.frame(t, "   \r")
	if r.client.state.GameState != GameStateRename {
		t.Fatal("blank name should keep the editor open")
	}
	if r.client.state.renameErr == nil {
		t.Fatal("expected a validation error")
	}
}

func TestQuitStopsClient(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(t, "q")
	if r.client.state.Running {
		t.Fatal("expected q to stop the client")
	}
}

func TestShutdownEventCountsDown(t *testing.T) {
	r := newTestRig(t, nil)
	r.client.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	r.frame(t, "")
	if r.client.state.GameState != GameStateShutdown {
		t.Fatalf("got state %d, want shutdown", r.client.state.GameState)
	}
	if !strings.Contains(r.out.String(), "SERVER SHUTTING DOWN") {
		t.Error("Expected shutdown banner in output")
	}
}
