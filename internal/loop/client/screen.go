package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/object"
)

var errLeaderboardDisabled = errors.New("leaderboard is not available")

// styles are the lipgloss styles for text overlays.
type styles struct {
	title  lipgloss.Style
	text   lipgloss.Style
	dim    lipgloss.Style
	accent lipgloss.Style
	danger lipgloss.Style
	hud    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Foreground(lipgloss.Color(config.PlayerColor)).Bold(true),
		text:   r.NewStyle().Foreground(lipgloss.Color("#e0e0e0")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#808080")),
		accent: r.NewStyle().Foreground(lipgloss.Color("#ffd700")).Bold(true),
		danger: r.NewStyle().Foreground(lipgloss.Color(config.EnemyColor)).Bold(true),
		hud:    r.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color(config.ArenaColor)),
	}
}

var titleArt = []string{
	`  ___  __   __ _    ___   ___ `,
	` | __| \ \ / //_\  |   \ | __|`,
	` | _|   \ V // _ \ | |) || _| `,
	` |___|   \_//_/ \_\|___/ |___|`,
}

var gameOverArt = []string{
	`   ___   _   __  __ ___    _____   _____ ___  `,
	`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On game state or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		c.frame.ClearScreen()
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()

	snap := c.handle.Snapshot()
	if snap != nil {
		snap.Draw(object.DrawContext{Canvas: c.canvas})
	}

	// Render canvas to terminal
	c.canvas.Render(c.frame)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.frame)

	c.drawUI(snap)

	return c.frame.Flush()
}

// writeAt writes styled text at a 1-based canvas position and marks the
// cells dirty so the canvas repaints them once the text goes away.
func (c *Client) writeAt(col, row int, s string) {
	if row < 1 || row > c.canvas.TerminalHeight() {
		return
	}
	c.frame.WriteAt(col, row, s)
	c.canvas.MarkTextDirty(col, row, lipgloss.Width(s))
}

// writeCentered writes styled text centered on row.
func (c *Client) writeCentered(row int, s string) {
	if row < 1 || row > c.canvas.TerminalHeight() {
		return
	}
	w := lipgloss.Width(s)
	col := c.frame.WriteCentered(row, c.canvas.TerminalWidth(), w, s)
	c.canvas.MarkTextDirty(col, row, w)
}

func blinkOn() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

// drawUI draws the game UI overlay.
func (c *Client) drawUI(snap *engine.Snapshot) {
	centerY := c.canvas.TerminalHeight() / 2

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerY)
		return
	}

	switch c.state.GameState {
	case GameStatePlaying:
		c.drawPlayingHUD(snap)
	case GameStateStart:
		c.drawStartScreen(centerY)
	case GameStateDead:
		c.drawDeadScreen(centerY)
	case GameStateRanking:
		c.drawRankingScreen(centerY)
	case GameStateRename:
		c.drawRenameScreen(centerY)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerY int) {
	s := c.styles
	c.writeCentered(centerY-2, s.danger.Render("INACTIVITY WARNING"))

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.writeCentered(centerY, s.text.Render(msg))
	c.writeCentered(centerY+2, s.dim.Render("Press any key to continue"))
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerY int) {
	s := c.styles
	top := centerY - 8
	for i, line := range titleArt {
		c.writeCentered(top+i, s.title.Render(line))
	}

	row := top + len(titleArt) + 1
	c.writeCentered(row, s.text.Render("~ Survive the swarm ~"))

	if name := c.playerName(); name != "" {
		c.writeCentered(row+2, s.dim.Render("Playing as ")+s.accent.Render(name))
	}

	controls := []string{
		"Mouse  . . . . Move toward pointer",
		"WASD / arrows . . . . . . . . Steer",
		"R  . . . . . . . . . . . . . Ranking",
		"N  . . . . . . . . . . Change name",
		"Q  . . . . . . . . . . . . . . Quit",
	}
	controlsY := row + 4
	c.writeCentered(controlsY, s.text.Bold(true).Render("Controls"))
	for i, line := range controls {
		c.writeCentered(controlsY+1+i, s.dim.Render(line))
	}

	if blinkOn() {
		c.writeCentered(controlsY+len(controls)+2, s.accent.Render(">>  Press SPACE or click to Start  <<"))
	}
}

// playerName is the leaderboard name, falling back to the login name.
func (c *Client) playerName() string {
	if c.state.displayName != "" {
		return c.state.displayName
	}
	return c.username
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawPlayingHUD(snap *engine.Snapshot) {
	if snap == nil {
		return
	}
	s := c.styles
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()

	timeText := fmt.Sprintf(" Time: %-9s", fmt.Sprintf("%.2fs", snap.Score.Elapsed))
	c.writeAt(2, 1, s.hud.Render(timeText))

	levelText := fmt.Sprintf(" Level %-3d", snap.Difficulty)
	c.writeCentered(1, s.hud.Render(levelText))

	dodgeText := fmt.Sprintf(" Dodged: %-5d", snap.Score.Dodges)
	c.writeAt(termWidth-len(dodgeText), 1, s.hud.Render(dodgeText))

	hint := " Mouse / WASD to move  ·  Q to quit "
	c.writeCentered(termHeight, s.dim.Render(hint))
}

// drawDeadScreen draws the game over screen.
func (c *Client) drawDeadScreen(centerY int) {
	s := c.styles
	top := centerY - 6
	for i, line := range gameOverArt {
		c.writeCentered(top+i, s.danger.Render(line))
	}

	score := c.state.FinalScore
	row := top + len(gameOverArt) + 1
	c.writeCentered(row, s.text.Render("You survived ")+
		s.accent.Render(fmt.Sprintf("%.2fs", score.Elapsed))+
		s.text.Render(fmt.Sprintf(" and dodged %d enemies", score.Dodges)))
	c.writeCentered(row+1, s.dim.Render(fmt.Sprintf("Best this session: %.2fs", c.state.BestTime)))

	if c.state.submitStatus != "" {
		c.writeCentered(row+3, s.dim.Render(c.state.submitStatus))
	}

	if blinkOn() {
		c.writeCentered(row+5, s.accent.Render(">>  Press SPACE to Play Again  <<"))
	}
	c.writeCentered(row+7, s.dim.Render("R ranking  ·  ESC menu  ·  Q quit"))
}

// drawRankingScreen draws the leaderboard table.
func (c *Client) drawRankingScreen(centerY int) {
	s := c.styles
	top := centerY - config.LeaderboardSize/2 - 4
	c.writeCentered(top, s.title.Render("LEADERBOARD"))

	row := top + 2
	switch {
	case c.state.rankingLoading:
		c.writeCentered(row, s.dim.Render("Loading..."))
	case c.state.rankingErr != nil:
		c.writeCentered(row, s.danger.Render("Leaderboard unavailable"))
	case len(c.state.ranking) == 0:
		c.writeCentered(row, s.dim.Render("No scores yet. Be the first!"))
	default:
		c.writeCentered(row, s.dim.Render(formatRankingRow("#", "NAME", "TIME")))
		for i, e := range c.state.ranking {
			line := formatRankingRow(fmt.Sprint(e.Position+1), e.Name(), e.Time())
			style := s.text
			if i == 0 {
				style = s.accent
			}
			c.writeCentered(row+1+i, style.Render(line))
		}
	}

	c.writeCentered(top+config.LeaderboardSize+5, s.dim.Render("SPACE back  ·  R refresh"))
}

func formatRankingRow(pos, name, elapsed string) string {
	return fmt.Sprintf("%3s  %-*s  %9s", pos, config.MaxDisplayNameLength, name, elapsed)
}

// drawRenameScreen draws the display name editor.
func (c *Client) drawRenameScreen(centerY int) {
	s := c.styles
	c.writeCentered(centerY-3, s.title.Render("CHANGE NAME"))

	name := string(c.state.nameBuf)
	cursor := " "
	if blinkOn() && len(c.state.nameBuf) < config.MaxDisplayNameLength {
		cursor = "_"
	}
	pad := strings.Repeat(" ", max(0, config.MaxDisplayNameLength-len(c.state.nameBuf)-1))
	c.writeCentered(centerY-1, s.dim.Render("[ ")+s.accent.Render(name+cursor+pad)+s.dim.Render(" ]"))

	if err := c.state.renameErr; err != nil {
		msg := "Could not change name"
		if errors.Is(err, leaderboard.ErrInvalidDisplayName) {
			msg = fmt.Sprintf("Name must be 1-%d characters", config.MaxDisplayNameLength)
		}
		c.writeCentered(centerY+1, s.danger.Render(msg))
	}
	c.writeCentered(centerY+3, s.dim.Render("ENTER save  ·  ESC cancel"))
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerY int) {
	s := c.styles
	c.writeCentered(centerY-3, s.danger.Render("SERVER SHUTTING DOWN"))
	c.writeCentered(centerY-1, s.text.Render("The server is restarting for maintenance."))
	c.writeCentered(centerY, s.text.Render("Please reconnect in a moment."))

	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerY+2, s.dim.Render(fmt.Sprintf("Disconnecting in %d seconds...", remaining)))
	c.writeCentered(centerY+4, s.dim.Render("Press Q to disconnect now"))
}
