// Package leaderboard keeps player identities and best survival times, and
// serves the ranked top list.
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/tomz197/evade/internal/config"
	gameconfig "github.com/tomz197/evade/internal/loop/config"
)

// StatisticName is the statistic the survival time is stored under.
const StatisticName = "SurvivalTime"

// Options controls what clients are allowed to do.
type Options struct {
	AllowCreate      bool // Create players on first login
	AllowClientStats bool // Let clients post statistics
}

// OptionsFromEnv reads LEADERBOARD_ALLOW_CREATE and
// LEADERBOARD_ALLOW_CLIENT_STATS, both defaulting to true.
func OptionsFromEnv() Options {
	return Options{
		AllowCreate:      config.GetEnvBool("LEADERBOARD_ALLOW_CREATE", true),
		AllowClientStats: config.GetEnvBool("LEADERBOARD_ALLOW_CLIENT_STATS", true),
	}
}

// DefaultPath returns LEADERBOARD_DB or data/leaderboard.db.
func DefaultPath() string {
	return config.GetEnv("LEADERBOARD_DB", filepath.Join("data", "leaderboard.db"))
}

// Player is a leaderboard identity.
type Player struct {
	ID          string
	CustomID    string
	DisplayName string
}

// Entry is one row of the ranked list.
type Entry struct {
	Position    int // 0-based rank
	PlayerID    string
	DisplayName string
	StatValue   int // Hundredths of a second
}

// Name returns the display name, or "Unknown" for players without one.
func (e Entry) Name() string {
	if e.DisplayName == "" {
		return "Unknown"
	}
	return e.DisplayName
}

// Time formats the entry's statistic as seconds.
func (e Entry) Time() string {
	return FormatTime(e.StatValue)
}

// FormatTime renders a statistic value (hundredths of a second) as "12.34s".
func FormatTime(statValue int) string {
	return fmt.Sprintf("%.2fs", float64(statValue)/100)
}

// Store persists players and statistics in SQLite.
type Store struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, opts Options) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return &Store{db: db, opts: opts, now: time.Now}, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			custom_id TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS statistics (
			player_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (player_id, name),
			FOREIGN KEY (player_id) REFERENCES players(player_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_statistics_rank ON statistics(name, value DESC, updated_at ASC);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoginWithCustomID returns the player bound to customID, creating one when
// allowed.
func (s *Store) LoginWithCustomID(ctx context.Context, customID string) (Player, error) {
	if strings.TrimSpace(customID) == "" {
		return Player{}, fmt.Errorf("leaderboard: empty custom id")
	}

	p := Player{CustomID: customID}
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id, display_name FROM players WHERE custom_id = ?`, customID,
	).Scan(&p.ID, &p.DisplayName)
	switch {
	case err == nil:
		return p, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Player{}, fmt.Errorf("failed to look up player: %w", err)
	}

	if !s.opts.AllowCreate {
		return Player{}, ErrPlayerCreationDisabled
	}

	p.ID = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO players (player_id, custom_id, display_name, created_at) VALUES (?, ?, '', ?)`,
		p.ID, customID, s.now().UnixNano(),
	)
	if err != nil {
		return Player{}, fmt.Errorf("failed to create player: %w", err)
	}
	return p, nil
}

// DisplayName returns the player's display name ("" when unset).
func (s *Store) DisplayName(ctx context.Context, playerID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name FROM players WHERE player_id = ?`, playerID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPlayerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read display name: %w", err)
	}
	return name, nil
}

// ValidateDisplayName trims name and checks its length.
func ValidateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > gameconfig.MaxDisplayNameLength {
		return "", ErrInvalidDisplayName
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "", ErrInvalidDisplayName
		}
	}
	return name, nil
}

// UpdateDisplayName sets the player's display name.
func (s *Store) UpdateDisplayName(ctx context.Context, playerID, name string) (string, error) {
	name, err := ValidateDisplayName(name)
	if err != nil {
		return "", err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET display_name = ? WHERE player_id = ?`, name, playerID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update display name: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", ErrPlayerNotFound
	}
	return name, nil
}

// UpdateStatistic records value for the player, keeping the best value seen.
func (s *Store) UpdateStatistic(ctx context.Context, playerID string, value int) error {
	if !s.opts.AllowClientStats {
		return ErrNotAuthorized
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statistics (player_id, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id, name) DO UPDATE SET
			updated_at = CASE WHEN excluded.value > statistics.value THEN excluded.updated_at ELSE statistics.updated_at END,
			value = MAX(statistics.value, excluded.value)
	`, playerID, StatisticName, value, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to update statistic: %w", err)
	}
	return nil
}

// Top returns the n best players. Ties go to whoever reached the value first.
func (s *Store) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = gameconfig.LeaderboardSize
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.player_id, p.display_name, st.value
		FROM statistics st
		JOIN players p ON p.player_id = st.player_id
		WHERE st.name = ?
		ORDER BY st.value DESC, st.updated_at ASC, p.player_id ASC
		LIMIT ?
	`, StatisticName, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e := Entry{Position: len(entries)}
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.StatValue); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
