package leaderboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tomz197/evade/internal/config"
)

// LocalIDPath returns where a local install keeps its player identity: the
// user config directory, or the working directory when there is none.
func LocalIDPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".evade", "player-id")
	}
	return filepath.Join(dir, "evade", "player-id")
}

// LocalCustomID reads the custom ID stored at path, creating a new random
// one on first use.
func LocalCustomID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read player id: %w", err)
	}

	id := "local:" + uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create player id directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write player id: %w", err)
	}
	return id, nil
}

// LocalDBPath returns LEADERBOARD_DB, or a database next to the local
// player identity.
func LocalDBPath() string {
	return config.GetEnv("LEADERBOARD_DB", filepath.Join(filepath.Dir(LocalIDPath()), "leaderboard.db"))
}

// OpenLocal opens the single-player leaderboard and a session for the
// local identity. The caller closes the store.
func OpenLocal() (*Store, *Session, error) {
	id, err := LocalCustomID(LocalIDPath())
	if err != nil {
		return nil, nil, err
	}
	store, err := Open(LocalDBPath(), OptionsFromEnv())
	if err != nil {
		return nil, nil, err
	}
	return store, NewSession(store, id), nil
}
