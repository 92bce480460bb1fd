package leaderboard

import (
	"context"
	"math"
	"sync"

	gameconfig "github.com/tomz197/evade/internal/loop/config"
)

// Session is one player's view of the leaderboard: it remembers the login
// and the cached display name between calls. Safe for concurrent use.
type Session struct {
	store    *Store
	customID string

	mu          sync.Mutex
	playerID    string
	displayName string
}

// NewSession creates a logged-out session bound to customID.
func NewSession(store *Store, customID string) *Session {
	return &Session{store: store, customID: customID}
}

// Login logs in (creating the player when allowed) and loads the display
// name. Logging in again is a no-op.
func (s *Session) Login(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked(ctx)
}

func (s *Session) loginLocked(ctx context.Context) (string, error) {
	if s.playerID != "" {
		return s.playerID, nil
	}
	p, err := s.store.LoginWithCustomID(ctx, s.customID)
	if err != nil {
		return "", err
	}
	s.playerID = p.ID
	s.displayName = p.DisplayName
	return s.playerID, nil
}

// IsLoggedIn reports whether Login has succeeded.
func (s *Session) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID != ""
}

// PlayerID returns the logged-in player's ID, or "".
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// DisplayName returns the cached display name ("" when unset).
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// UpdateDisplayName changes the display name of the logged-in player.
func (s *Session) UpdateDisplayName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID == "" {
		return ErrNotLoggedIn
	}
	stored, err := s.store.UpdateDisplayName(ctx, s.playerID, name)
	if err != nil {
		return err
	}
	s.displayName = stored
	return nil
}

// ScoreValue converts seconds survived to the stored statistic value.
func ScoreValue(seconds float64) int {
	return int(math.Floor(seconds * 100))
}

// SubmitScore records a survival time in seconds.
func (s *Session) SubmitScore(ctx context.Context, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID == "" {
		return ErrNotLoggedIn
	}
	return s.store.UpdateStatistic(ctx, s.playerID, ScoreValue(seconds))
}

// Leaderboard returns the top entries, logging in first if needed.
func (s *Session) Leaderboard(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	_, err := s.loginLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.store.Top(ctx, gameconfig.LeaderboardSize)
}
