// Package loop runs a single local game: a private session server plus one
// ANSI client on the given reader and writer.
package loop

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tomz197/evade/internal/config"
	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/loop/client"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/server"
)

// Options configures a local run.
type Options struct {
	Username    string
	Leaderboard client.Leaderboard // Optional
	Logger      *log.Logger        // Optional
	Engine      []engine.Option
	SizeFunc    draw.TermSizeFunc  // Optional, defaults to stdout
}

// Run starts the main game loop. Blocks until the player quits.
func Run(r *bufio.Reader, w io.Writer, opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srvOpts := []server.Option{
		server.WithEngineFactory(func() *engine.Engine { return engine.New(opts.Engine...) }),
	}
	if opts.Logger != nil {
		srvOpts = append(srvOpts, server.WithLogger(opts.Logger))
	}
	srv := server.NewServer(srvOpts...)
	go srv.Run(ctx)

	c := client.NewClient(srv, r, w, client.ClientOptions{
		TermSizeFunc: opts.SizeFunc,
		Username:     opts.Username,
		Leaderboard:  opts.Leaderboard,
		Logger:       opts.Logger,
	})
	return c.Run()
}

// EngineOptionsFromEnv returns engine options from the environment.
// GAME_SEED fixes the random seed, which makes runs reproducible.
func EngineOptionsFromEnv() []engine.Option {
	seed := strings.TrimSpace(config.GetEnv("GAME_SEED", ""))
	if seed == "" {
		return nil
	}
	n, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return nil
	}
	return []engine.Option{engine.WithSeed(n)}
}
