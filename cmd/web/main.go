package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomz197/evade/internal/config"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/server"
	"github.com/tomz197/evade/internal/web"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env: %v\n", err)
	}
	logger := config.NewLogger("web")

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineOpts := loop.EngineOptionsFromEnv()
	srv := server.NewServer(
		server.WithEngineFactory(func() *engine.Engine { return engine.New(engineOpts...) }),
		server.WithLogger(logger.WithPrefix("server")),
	)
	go srv.Run(ctx)

	hubOpts := []web.HubOption{web.WithHubLogger(logger)}
	store, err := leaderboard.Open(leaderboard.DefaultPath(), leaderboard.OptionsFromEnv())
	if err != nil {
		logger.Warn("leaderboard disabled", "err", err)
	} else {
		defer store.Close()
		hubOpts = append(hubOpts, web.WithLeaderboard(store))
	}
	hub := web.NewHub(srv, hubOpts...)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           web.NewHandler(hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	logger.Info("starting web server", "addr", "http://"+httpServer.Addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	srv.Shutdown(10 * time.Second)
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
