package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"

	"github.com/tomz197/evade/internal/config"
	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop"
	"github.com/tomz197/evade/internal/loop/client"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/server"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env: %v\n", err)
	}
	logger := config.NewLogger("ssh")

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	logger.Info("ssh config", "host", host, "port", port, "hostKey", hostKeyPath)

	store, err := leaderboard.Open(leaderboard.DefaultPath(), leaderboard.OptionsFromEnv())
	if err != nil {
		logger.Warn("leaderboard disabled", "err", err)
	} else {
		defer store.Close()
	}

	// One session server shared by every SSH client.
	engineOpts := loop.EngineOptionsFromEnv()
	gameServer := server.NewServer(
		server.WithEngineFactory(func() *engine.Engine { return engine.New(engineOpts...) }),
		server.WithLogger(logger.WithPrefix("server")),
	)
	serverCtx, cancelServer := context.WithCancel(context.Background())
	defer cancelServer()
	go gameServer.Run(serverCtx)

	app := &sshApp{server: gameServer, store: store, logger: logger}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		// Anyone may play. Offering both methods lets keyed clients be
		// recognised across connections.
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithKeyboardInteractiveAuth(func(ssh.Context, gossh.KeyboardInteractiveChallenge) bool { return true }),
		wish.WithMiddleware(
			app.gameMiddleware,
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	// Notify players and wait for them to disconnect.
	gameServer.Shutdown(15 * time.Second)
	cancelServer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

type sshApp struct {
	server *server.Server
	store  *leaderboard.Store // nil when the leaderboard is disabled
	logger *log.Logger
}

// customID identifies a player across connections: by key fingerprint when
// the client offered one, by user name otherwise.
func customID(sess ssh.Session) string {
	if key := sess.PublicKey(); key != nil {
		return "ssh:" + gossh.FingerprintSHA256(key)
	}
	return "ssh-user:" + sess.User()
}

// gameMiddleware handles SSH sessions and runs the game client.
func (a *sshApp) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		logger := a.logger.With("user", sess.User())
		logger.Info("new game session", "term", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)

		tracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				tracker.update(win.Width, win.Height)
			}
		}()

		clientOpts := client.ClientOptions{
			TermSizeFunc: tracker.getSize,
			Username:     sess.User(),
			Logger:       logger,
		}
		if a.store != nil {
			clientOpts.Leaderboard = leaderboard.NewSession(a.store, customID(sess))
		}

		c := client.NewClient(a.server, bufio.NewReader(sess), sess, clientOpts)
		if err := c.Run(); err != nil {
			logger.Error("game error", "err", err)
		}

		logger.Info("session ended")
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
