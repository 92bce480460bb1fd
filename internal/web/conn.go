package web

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/config"
	"github.com/tomz197/evade/internal/loop/engine"
	"github.com/tomz197/evade/internal/loop/server"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Upper bound for leaderboard calls made on behalf of a connection.
	leaderboardTimeout = 5 * time.Second
)

// Conn is one browser connection and its session.
type Conn struct {
	hub    *Hub
	ws     *websocket.Conn
	codec  Codec
	handle *server.ClientHandle
	logger *log.Logger

	send      chan ServerMessage
	done      chan struct{}
	closeOnce sync.Once

	// playing gates steering: input only reaches the engine during a run.
	playing atomic.Bool
	board   atomic.Pointer[leaderboard.Session]
}

func newConn(h *Hub, ws *websocket.Conn, codec Codec, handle *server.ClientHandle) *Conn {
	return &Conn{
		hub:    h,
		ws:     ws,
		codec:  codec,
		handle: handle,
		logger: h.logger.With("session", handle.ID),
		send:   make(chan ServerMessage, 16),
		done:   make(chan struct{}),
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue hands a reply to the write pump. Replies are dropped when the
// connection is gone or hopelessly behind.
func (c *Conn) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Debug("send queue full, dropping message", "type", msg.Type)
	}
}

// readPump pumps commands from the websocket connection to the session.
func (c *Conn) readPump() {
	defer func() {
		c.close()
		c.hub.leave(c)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", "err", err)
			}
			return
		}

		msg, err := decodeClientMessage(c.codec, data)
		if err != nil {
			c.logger.Warn("invalid client message", "err", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Conn) handleMessage(msg ClientMessage) {
	gs := c.hub.sessions
	switch msg.Type {
	case MsgHello:
		c.hello(msg.ID)
	case MsgStart:
		c.playing.Store(true)
		gs.SendInput(c.handle.ID, server.Command{Type: server.CommandStart})
	case MsgTarget:
		if !c.playing.Load() || !finite(msg.X) || !finite(msg.Y) {
			return
		}
		gs.SendInput(c.handle.ID, server.Command{Type: server.CommandSetTarget, X: msg.X, Y: msg.Y})
	case MsgStop:
		if c.playing.Load() {
			gs.SendInput(c.handle.ID, server.Command{Type: server.CommandStop})
		}
	case MsgRename:
		c.rename(msg.Name)
	default:
		c.logger.Warn("unknown client message", "type", msg.Type)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// hello binds the connection to a leaderboard player. The browser keeps id
// in local storage so the player survives reloads.
func (c *Conn) hello(id string) {
	if c.hub.store == nil || id == "" || len(id) > 64 {
		c.enqueue(ServerMessage{Type: MsgWelcome})
		return
	}
	board := leaderboard.NewSession(c.hub.store, "web:"+id)
	if !c.board.CompareAndSwap(nil, board) {
		board = c.board.Load()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()
		if _, err := board.Login(ctx); err != nil {
			c.logger.Warn("leaderboard login failed", "err", err)
			c.enqueue(ServerMessage{Type: MsgWelcome, Error: err.Error()})
			return
		}
		c.enqueue(ServerMessage{Type: MsgWelcome, Name: board.DisplayName()})
	}()
}

func (c *Conn) rename(name string) {
	board := c.board.Load()
	if board == nil {
		c.enqueue(ServerMessage{Type: MsgName, Error: "leaderboard is not available"})
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()
		if _, err := board.Login(ctx); err != nil {
			c.enqueue(ServerMessage{Type: MsgName, Error: err.Error()})
			return
		}
		if err := board.UpdateDisplayName(ctx, name); err != nil {
			c.enqueue(ServerMessage{Type: MsgName, Error: err.Error()})
			return
		}
		c.enqueue(ServerMessage{Type: MsgName, Name: board.DisplayName()})
	}()
}

// submit records a finished run and reports the outcome to the browser.
func (c *Conn) submit(score engine.Score) {
	board := c.board.Load()
	if board == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
		defer cancel()
		status := "Score saved"
		err := board.SubmitScore(ctx, score.Elapsed)
		if err != nil {
			c.logger.Warn("score submit failed", "err", err)
			status = "Could not save score"
		}
		c.enqueue(ServerMessage{Type: MsgGameOver, Status: status, Score: &ScoreView{score.Elapsed, score.Dodges}})
	}()
}

// writePump streams frames and events to the websocket connection. It is
// the only goroutine that writes to ws.
func (c *Conn) writePump() {
	frames := time.NewTicker(config.WebBroadcastTime)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		frames.Stop()
		ping.Stop()
		c.ws.Close()
	}()

	var last *engine.Snapshot
	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}
		case ev, ok := <-c.handle.EventsCh:
			if !ok {
				// The session server dropped this session.
				return
			}
			if err := c.handleEvent(ev); err != nil {
				return
			}
		case <-frames.C:
			snap := c.handle.Snapshot()
			if snap == nil || snap == last {
				continue
			}
			last = snap
			if err := c.write(ServerMessage{Type: MsgFrame, Frame: NewFrame(snap)}); err != nil {
				return
			}
		case <-ping.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) handleEvent(ev server.ClientEvent) error {
	switch ev.Type {
	case server.EventGameOver:
		c.playing.Store(false)
		score := &ScoreView{Elapsed: ev.Score.Elapsed, Dodges: ev.Score.Dodges}
		status := ""
		if c.board.Load() != nil {
			status = "Saving score..."
			c.submit(ev.Score)
		}
		// The final frame carries the explosion; send it before the result.
		if snap := c.handle.Snapshot(); snap != nil {
			if err := c.write(ServerMessage{Type: MsgFrame, Frame: NewFrame(snap)}); err != nil {
				return err
			}
		}
		return c.write(ServerMessage{Type: MsgGameOver, Score: score, Status: status})
	case server.EventServerShutdown:
		return c.write(ServerMessage{Type: MsgShutdown})
	}
	return nil
}

func (c *Conn) write(msg ServerMessage) error {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode message", "type", msg.Type, "err", err)
		return nil
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(c.codec.MessageType(), data)
}
