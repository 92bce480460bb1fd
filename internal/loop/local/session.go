// Package local runs a single-player game in-process for the window and
// tcell frontends: it owns the engine, the menu state, sound cues and the
// leaderboard calls. A Session is driven from one goroutine; leaderboard
// calls run in the background and their results are applied on Tick.
package local

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/evade/internal/audio"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/client"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/engine"
)

const (
	// keyboardSteerLead matches the ANSI client: far enough ahead that the
	// player never arrives between key repeats.
	keyboardSteerLead = config.PlayerSpeed * 6

	// KeySteerHold is how long one steering key press keeps the player
	// moving. Frontends that only see presses rely on repeats to extend it.
	KeySteerHold = 150 * time.Millisecond

	leaderboardTimeout = 5 * time.Second
)

// ErrLeaderboardDisabled is reported by the ranking screen when no
// leaderboard is configured.
var ErrLeaderboardDisabled = errors.New("leaderboard is not configured")

// Screen is the menu state shown around the arena.
type Screen int

const (
	ScreenTitle Screen = iota
	ScreenPlaying
	ScreenOver
	ScreenRanking
)

// Options configures a Session.
type Options struct {
	Engine      []engine.Option
	Sound       *audio.SoundManager // nil plays nothing
	Leaderboard client.Leaderboard  // nil disables scores
	Logger      *log.Logger
}

// Session is one local player.
type Session struct {
	engine  *engine.Engine
	sound   *audio.SoundManager
	tracker audio.Tracker
	board   client.Leaderboard
	logger  *log.Logger

	screen      Screen
	rankingFrom Screen
	final       engine.Score
	best        float64
	status      string

	pointerDown bool
	ignoreDrag  bool // The press that started the run does not steer
	keySteering bool
	keySteerEnd time.Time
	now         func() time.Time

	ranking        []leaderboard.Entry
	rankingErr     error
	rankingLoading bool

	pending chan func()
	done    chan struct{}
}

// New creates a session on the title screen.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		engine:  engine.New(opts.Engine...),
		sound:   opts.Sound,
		board:   opts.Leaderboard,
		logger:  logger,
		now:     time.Now,
		pending: make(chan func(), 8),
		done:    make(chan struct{}),
	}
}

// Close stops delivering background results.
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Login signs in to the leaderboard in the background.
func (s *Session) Login() {
	if s.board == nil {
		return
	}
	s.request(func(ctx context.Context) func() {
		if _, err := s.board.Login(ctx); err != nil {
			s.logger.Warn("leaderboard login failed", "err", err)
		}
		return nil
	})
}

// Screen returns the current menu state.
func (s *Session) Screen() Screen { return s.screen }

// Final returns the score of the last finished run.
func (s *Session) Final() engine.Score { return s.final }

// Best returns the longest survival time of this session.
func (s *Session) Best() float64 { return s.best }

// Status describes the last score submission.
func (s *Session) Status() string { return s.status }

// Ranking returns the loaded leaderboard.
func (s *Session) Ranking() (entries []leaderboard.Entry, loading bool, err error) {
	return s.ranking, s.rankingLoading, s.rankingErr
}

// Engine exposes the simulation for rendering and tests. Callers must stay
// on the session goroutine.
func (s *Session) Engine() *engine.Engine { return s.engine }

// Start begins a new run.
func (s *Session) Start() {
	s.engine.Start()
	s.screen = ScreenPlaying
	s.keySteering = false
}

// PointerDown handles a press or drag at arena coordinates. On the title
// and game-over screens the first press starts a run without steering.
func (s *Session) PointerDown(x, y float64) {
	switch s.screen {
	case ScreenPlaying:
		if s.ignoreDrag {
			return
		}
		s.pointerDown = true
		s.keySteering = false
		s.engine.SetTarget(x, y)
	case ScreenTitle, ScreenOver:
		if !s.pointerDown {
			s.pointerDown = true
			s.ignoreDrag = true
			s.Start()
		}
	}
}

// PointerUp handles a release.
func (s *Session) PointerUp() {
	if s.pointerDown && !s.ignoreDrag && s.screen == ScreenPlaying {
		s.engine.StopMoving()
	}
	s.pointerDown = false
	s.ignoreDrag = false
}

// Steer points the player one lead distance in direction (dx, dy) for
// KeySteerHold. Ignored while the pointer steers.
func (s *Session) Steer(dx, dy float64) {
	if s.screen != ScreenPlaying || s.pointerDown {
		return
	}
	p := s.engine.Player()
	s.engine.SetTarget(p.X+dx*keyboardSteerLead, p.Y+dy*keyboardSteerLead)
	s.keySteering = true
	s.keySteerEnd = s.now().Add(KeySteerHold)
}

// OpenRanking shows the leaderboard and fetches it in the background.
func (s *Session) OpenRanking() {
	if s.screen != ScreenRanking {
		s.rankingFrom = s.screen
	}
	s.screen = ScreenRanking
	s.ranking = nil
	s.rankingErr = nil
	if s.board == nil {
		s.rankingErr = ErrLeaderboardDisabled
		return
	}
	s.rankingLoading = true
	s.request(func(ctx context.Context) func() {
		entries, err := s.board.Leaderboard(ctx)
		return func() {
			s.rankingLoading = false
			s.ranking, s.rankingErr = entries, err
		}
	})
}

// Back leaves the ranking or game-over screen. It reports false on the
// title screen, where going back means quitting.
func (s *Session) Back() bool {
	switch s.screen {
	case ScreenRanking:
		s.screen = s.rankingFrom
	case ScreenOver:
		s.screen = ScreenTitle
	case ScreenTitle:
		return false
	}
	return true
}

// Tick applies finished background work, advances the engine one frame and
// returns the frame to draw.
func (s *Session) Tick() *engine.Snapshot {
	s.drainPending()

	if s.keySteering && s.now().After(s.keySteerEnd) {
		s.keySteering = false
		s.engine.StopMoving()
	}

	res := s.engine.Advance()
	if res.Outcome == engine.OutcomeGameOver {
		s.gameOver(res.Score)
	}

	snap := s.engine.Snapshot()
	if s.sound != nil {
		s.sound.PlayAll(s.tracker.Observe(&snap))
	}
	return &snap
}

func (s *Session) drainPending() {
	for {
		select {
		case fn := <-s.pending:
			fn()
		default:
			return
		}
	}
}

// request runs fn in the background and applies the closure it returns on
// a later Tick.
func (s *Session) request(fn func(ctx context.Context) func()) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()
		apply := fn(ctx)
		if apply == nil {
			return
		}
		select {
		case s.pending <- apply:
		case <-s.done:
		}
	}()
}

func (s *Session) gameOver(score engine.Score) {
	s.screen = ScreenOver
	s.final = score
	s.best = max(s.best, score.Elapsed)
	// A button still held from the run must be released before it can
	// start the next one.
	s.ignoreDrag = s.pointerDown
	s.keySteering = false
	s.status = ""
	if s.board == nil {
		return
	}

	s.status = "Saving score..."
	s.request(func(ctx context.Context) func() {
		// The startup login may still be in flight or may have failed.
		_, err := s.board.Login(ctx)
		if err == nil {
			err = s.board.SubmitScore(ctx, score.Elapsed)
		}
		return func() {
			if err != nil {
				s.logger.Warn("score submit failed", "err", err)
				s.status = "Could not save score"
				return
			}
			s.status = "Score saved"
		}
	})
}
