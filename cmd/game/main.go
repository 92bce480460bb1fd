package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/tomz197/evade/internal/audio"
	"github.com/tomz197/evade/internal/config"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop"
	"github.com/tomz197/evade/internal/loop/client"
	"github.com/tomz197/evade/internal/loop/local"
	"github.com/tomz197/evade/internal/tui"
)

func main() {
	ansi := flag.Bool("ansi", false, "draw with raw ANSI escapes instead of tcell (no sound)")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env: %v\n", err)
	}

	// The game owns the terminal, so logs only go to LOG_FILE.
	logOut := io.Discard
	if path := config.GetEnv("LOG_FILE", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLoggerTo(logOut, "game")

	var board client.Leaderboard
	store, session, err := leaderboard.OpenLocal()
	if err != nil {
		logger.Warn("leaderboard disabled", "err", err)
	} else {
		defer store.Close()
		board = session
	}

	if *ansi {
		err = runANSI(board, logger)
	} else {
		err = runTUI(board, logger, *mute)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(board client.Leaderboard, logger *log.Logger, mute bool) error {
	cfg := audio.ConfigFromEnv()
	if mute {
		cfg.Enabled = false
	}
	sound := audio.NewSoundManager(cfg, logger.WithPrefix("audio"))
	if err := sound.Initialize(); err != nil {
		logger.Warn("sound disabled", "err", err)
	}
	defer sound.Cleanup()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := tui.NewGame(screen, local.Options{
		Engine:      loop.EngineOptionsFromEnv(),
		Sound:       sound,
		Leaderboard: board,
		Logger:      logger,
	})
	if err := g.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runANSI(board client.Leaderboard, logger *log.Logger) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	return loop.Run(bufio.NewReader(os.Stdin), os.Stdout, loop.Options{
		Username:    os.Getenv("USER"),
		Leaderboard: board,
		Logger:      logger,
		Engine:      loop.EngineOptionsFromEnv(),
	})
}
