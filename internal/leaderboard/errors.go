package leaderboard

import "errors"

var (
	// ErrNotLoggedIn is returned by session operations that need a player.
	ErrNotLoggedIn = errors.New("leaderboard: not logged in")
	// ErrPlayerCreationDisabled is returned when logging in with an unknown
	// custom ID while account creation is turned off.
	ErrPlayerCreationDisabled = errors.New("leaderboard: player creation is disabled")
	// ErrNotAuthorized is returned when clients may not post statistics.
	ErrNotAuthorized = errors.New("leaderboard: client statistic posting is not allowed")
	// ErrInvalidDisplayName is returned for empty or oversized names.
	ErrInvalidDisplayName = errors.New("leaderboard: invalid display name")
	// ErrPlayerNotFound is returned for unknown player IDs.
	ErrPlayerNotFound = errors.New("leaderboard: player not found")
)
