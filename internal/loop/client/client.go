// Package client renders one session onto an ANSI terminal and turns
// keyboard and mouse input into commands for the session server.
package client

import (
	"bufio"
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/tomz197/evade/internal/draw"
	"github.com/tomz197/evade/internal/input"
	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/server"
)

// keyboardSteerLead is how far ahead of the player keyboard steering puts
// the target. Far enough that the player never arrives between key repeats.
const keyboardSteerLead = config.PlayerSpeed * 6

// leaderboardTimeout bounds every leaderboard request.
const leaderboardTimeout = 5 * time.Second

// Leaderboard is the part of a leaderboard session the client needs.
// *leaderboard.Session implements it.
type Leaderboard interface {
	Login(ctx context.Context) (string, error)
	DisplayName() string
	UpdateDisplayName(ctx context.Context, name string) error
	SubmitScore(ctx context.Context, seconds float64) error
	Leaderboard(ctx context.Context) ([]leaderboard.Entry, error)
}

var _ Leaderboard = (*leaderboard.Session)(nil)

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	frame        *draw.FrameWriter // Buffers each frame for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	styles       styles
	logger       *log.Logger

	board     Leaderboard // nil when no leaderboard is configured
	lbResults chan lbResult
	done      chan struct{}
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Leaderboard  Leaderboard
	Logger       *log.Logger

	// InputStream replaces reading from r, for hosts that deliver input as
	// messages.
	InputStream *input.Stream
}

// NewClient creates a new client connected to the given server.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.StdoutSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	stream := opts.InputStream
	if stream == nil {
		stream = input.StartStream(r)
	}

	handle := gs.RegisterClient(opts.Username)

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ArenaWidth, config.ArenaHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	// The canvas already assumes truecolor; SSH sessions are not TTYs, so
	// detection would otherwise strip all styling.
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(termenv.TrueColor)

	return &Client{
		server:       gs,
		handle:       handle,
		state:        NewClientState(),
		canvas:       canvas,
		frame:        draw.NewFrameWriter(w, offsetCol, offsetRow),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  stream,
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
		styles:       newStyles(renderer),
		logger:       logger.With("client", handle.ID),
		board:        opts.Leaderboard,
		lbResults:    make(chan lbResult, 8),
		done:         make(chan struct{}),
	}
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	defer close(c.done)
	draw.ClearScreen(c.writer)

	if c.board != nil {
		c.request(lbLogin, func(ctx context.Context) lbResult {
			_, err := c.board.Login(ctx)
			return lbResult{name: c.board.DisplayName(), err: err}
		})
	}

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		if err := c.step(); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// step runs one client frame: input, events, state update and drawing.
func (c *Client) step() error {
	c.processInput()
	c.processServerEvents()
	c.processLeaderboardResults()
	c.updateScreen()

	switch c.state.GameState {
	case GameStateStart:
		c.updateStartState()
	case GameStatePlaying:
		c.updatePlayingState()
	case GameStateDead:
		c.updateDeadState()
	case GameStateRanking:
		c.updateRankingState()
	case GameStateRename:
		c.updateRenameState()
	case GameStateShutdown:
		c.updateShutdownState()
	}

	return c.drawFrame()
}

// processInput reads input and tracks inactivity.
func (c *Client) processInput() {
	in := input.ReadInput(c.inputStream)
	c.state.Input = in

	if len(in.Pressed) > 0 || len(in.Mouse) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Interrupt || in.Closed {
		c.state.Running = false
	}
	// 'q' is a letter while typing a name.
	if in.Quit && c.state.GameState != GameStateRename {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventGameOver:
				c.gameOver(event)
			case server.EventServerShutdown:
				c.setState(GameStateShutdown)
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// gameOver records the final score and submits it.
func (c *Client) gameOver(event server.ClientEvent) {
	c.state.FinalScore = event.Score
	c.state.BestTime = math.Max(c.state.BestTime, event.Score.Elapsed)
	c.state.mouseDown = false
	c.state.steering = false
	c.setState(GameStateDead)
	c.logger.Debug("game over", "elapsed", event.Score.Elapsed, "dodges", event.Score.Dodges)

	if c.board == nil {
		c.state.submitStatus = ""
		return
	}
	c.state.submitStatus = "Saving score..."
	seconds := event.Score.Elapsed
	c.request(lbSubmit, func(ctx context.Context) lbResult {
		if _, err := c.board.Login(ctx); err != nil {
			return lbResult{err: err}
		}
		return lbResult{err: c.board.SubmitScore(ctx, seconds)}
	})
}

// request runs fn off the frame loop and delivers its result to
// processLeaderboardResults. Results arriving after the client exits are dropped.
func (c *Client) request(kind lbKind, fn func(ctx context.Context) lbResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()
		res := fn(ctx)
		res.kind = kind
		select {
		case c.lbResults <- res:
		case <-c.done:
		}
	}()
}

// processLeaderboardResults applies finished leaderboard requests.
func (c *Client) processLeaderboardResults() {
	for {
		select {
		case res := <-c.lbResults:
			c.applyLeaderboardResult(res)
		default:
			return
		}
	}
}

func (c *Client) applyLeaderboardResult(res lbResult) {
	switch res.kind {
	case lbLogin:
		if res.err != nil {
			c.logger.Warn("leaderboard login failed", "err", res.err)
			return
		}
		c.state.displayName = res.name
	case lbSubmit:
		if res.err != nil {
			c.logger.Warn("score submit failed", "err", res.err)
			c.state.submitStatus = "Could not save score"
			return
		}
		c.state.submitStatus = "Score saved"
	case lbRanking:
		c.state.rankingLoading = false
		c.state.ranking = res.entries
		c.state.rankingErr = res.err
		if res.err != nil {
			c.logger.Warn("leaderboard fetch failed", "err", res.err)
		}
	case lbRename:
		if res.err != nil {
			c.state.renameErr = res.err
			return
		}
		c.state.displayName = res.name
		c.setState(GameStateStart)
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.frame.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, config.MaxTermWidth)
	renderHeight = min(termHeight, config.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// setState switches screens and forgets held keys so the key that caused
// the switch doesn't also act on the new screen. The frame's input is
// dropped too: a switch made while applying leaderboard results happens
// before the new screen reads it.
func (c *Client) setState(s GameState) {
	c.state.GameState = s
	c.state.Input = input.Input{}
	input.ResetKeyInput(c.inputStream)
}

// clicked reports whether the left button went down this frame.
func (c *Client) clicked() bool {
	for _, ev := range c.state.Input.Mouse {
		if ev.Action == input.MousePress && ev.Button == 0 {
			return true
		}
	}
	return false
}

// updateStartState handles the title screen.
func (c *Client) updateStartState() {
	in := c.state.Input
	switch {
	case in.Space || in.Enter || c.clicked():
		c.startGame()
	case in.Ranking:
		c.openRanking()
	case in.Rename && c.board != nil:
		c.state.nameBuf = []rune(c.state.displayName)
		c.state.renameErr = nil
		c.setState(GameStateRename)
	}
}

// updatePlayingState forwards mouse and keyboard steering to the server.
func (c *Client) updatePlayingState() {
	in := c.state.Input

	for _, ev := range in.Mouse {
		switch ev.Action {
		case input.MousePress, input.MouseDrag:
			if ev.Button != 0 {
				continue
			}
			x, y := c.canvas.TerminalToLogical(ev.Col, ev.Row)
			c.send(server.Command{Type: server.CommandSetTarget, X: x, Y: y})
			c.state.mouseDown = true
		case input.MouseRelease:
			if c.state.mouseDown {
				c.send(server.Command{Type: server.CommandStop})
				c.state.mouseDown = false
			}
		}
	}

	if in.Steering() {
		dx, dy := in.Direction()
		if n := math.Hypot(dx, dy); n > 0 {
			p := c.playerPosition()
			c.send(server.Command{
				Type: server.CommandSetTarget,
				X:    p.X + dx/n*keyboardSteerLead,
				Y:    p.Y + dy/n*keyboardSteerLead,
			})
			c.state.steering = true
		}
	} else if c.state.steering {
		c.send(server.Command{Type: server.CommandStop})
		c.state.steering = false
	}
}

type point struct{ X, Y float64 }

func (c *Client) playerPosition() point {
	snap := c.handle.Snapshot()
	if snap == nil {
		return point{config.ArenaWidth / 2, config.ArenaHeight / 2}
	}
	return point{snap.Player.X, snap.Player.Y}
}

func (c *Client) send(cmd server.Command) {
	c.server.SendInput(c.handle.ID, cmd)
}

// updateDeadState handles the game over screen.
func (c *Client) updateDeadState() {
	in := c.state.Input
	switch {
	case in.Space || in.Enter || c.clicked():
		c.startGame()
	case in.Ranking:
		c.openRanking()
	case in.Escape:
		c.setState(GameStateStart)
	}
}

// startGame starts or restarts a run.
func (c *Client) startGame() {
	c.state.submitStatus = ""
	c.state.mouseDown = false
	c.state.steering = false
	c.send(server.Command{Type: server.CommandStart})
	c.setState(GameStatePlaying)
}

// openRanking shows the leaderboard and fetches fresh entries.
func (c *Client) openRanking() {
	c.state.rankingReturn = c.state.GameState
	c.setState(GameStateRanking)
	if c.board == nil {
		c.state.rankingErr = errLeaderboardDisabled
		return
	}
	c.refreshRanking()
}

func (c *Client) refreshRanking() {
	c.state.rankingLoading = true
	c.state.rankingErr = nil
	c.request(lbRanking, func(ctx context.Context) lbResult {
		entries, err := c.board.Leaderboard(ctx)
		return lbResult{entries: entries, err: err}
	})
}

// updateRankingState handles the leaderboard screen.
func (c *Client) updateRankingState() {
	in := c.state.Input
	switch {
	case in.Escape || in.Space || in.Enter:
		c.setState(c.state.rankingReturn)
	case in.Ranking && c.board != nil && !c.state.rankingLoading:
		input.ResetKeyInput(c.inputStream)
		c.refreshRanking()
	}
}

// updateRenameState edits the display name. Bytes are read straight from
// Pressed so one keystroke edits exactly once.
func (c *Client) updateRenameState() {
	in := c.state.Input
	if in.Escape {
		c.setState(GameStateStart)
		return
	}

	for _, r := range in.Text {
		if len(c.state.nameBuf) < config.MaxDisplayNameLength {
			c.state.nameBuf = append(c.state.nameBuf, r)
		}
	}
	for _, b := range in.Pressed {
		switch b {
		case '\b', 0x7f:
			if n := len(c.state.nameBuf); n > 0 {
				c.state.nameBuf = c.state.nameBuf[:n-1]
			}
		case '\r', '\n':
			c.submitName()
			return
		}
	}
}

func (c *Client) submitName() {
	name, err := leaderboard.ValidateDisplayName(string(c.state.nameBuf))
	if err != nil {
		c.state.renameErr = err
		return
	}
	c.state.renameErr = nil
	c.request(lbRename, func(ctx context.Context) lbResult {
		if _, err := c.board.Login(ctx); err != nil {
			return lbResult{err: err}
		}
		if err := c.board.UpdateDisplayName(ctx, name); err != nil {
			return lbResult{err: err}
		}
		return lbResult{name: c.board.DisplayName()}
	})
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
