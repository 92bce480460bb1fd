package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/tomz197/evade/internal/audio"
	"github.com/tomz197/evade/internal/config"
	"github.com/tomz197/evade/internal/desktop"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop"
	gameconfig "github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/local"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env: %v\n", err)
	}
	logger := config.NewLogger("desktop")

	sound := audio.NewSoundManager(audio.ConfigFromEnv(), logger.WithPrefix("audio"))
	if err := sound.Initialize(); err != nil {
		logger.Warn("sound disabled", "err", err)
	}
	defer sound.Cleanup()

	opts := local.Options{
		Engine: loop.EngineOptionsFromEnv(),
		Sound:  sound,
		Logger: logger,
	}
	store, session, err := leaderboard.OpenLocal()
	if err != nil {
		logger.Warn("leaderboard disabled", "err", err)
	} else {
		defer store.Close()
		opts.Leaderboard = session
	}

	ebiten.SetWindowSize(gameconfig.ArenaWidth, gameconfig.ArenaHeight)
	ebiten.SetWindowTitle("Evade")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := desktop.NewGame(opts)
	defer g.Close()

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error("game error", "err", err)
	}
}
