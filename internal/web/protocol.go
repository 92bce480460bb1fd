// Package web serves browser sessions over WebSocket. Each connection owns
// one session on the shared session server; the browser draws the frames it
// receives and sends pointer input back as commands.
package web

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tomz197/evade/internal/leaderboard"
	"github.com/tomz197/evade/internal/loop/engine"
)

// Client -> server message types.
const (
	MsgHello  = "hello"  // {id}: identify for the leaderboard
	MsgStart  = "start"  // Begin a run
	MsgTarget = "target" // {x, y}: steer toward an arena point
	MsgStop   = "stop"   // Stop moving
	MsgRename = "rename" // {name}
)

// Server -> client message types.
const (
	MsgWelcome  = "welcome"   // {name}
	MsgFrame    = "frame"     // {frame}
	MsgGameOver = "game_over" // {score, status}
	MsgName     = "name"      // {name} or {error}
	MsgShutdown = "shutdown"
)

// ClientMessage is a message from the browser.
type ClientMessage struct {
	Type string  `json:"t" msgpack:"t"`
	ID   string  `json:"id,omitempty" msgpack:"id,omitempty"`
	X    float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y    float64 `json:"y,omitempty" msgpack:"y,omitempty"`
	Name string  `json:"name,omitempty" msgpack:"name,omitempty"`
}

// ServerMessage is a message to the browser.
type ServerMessage struct {
	Type   string     `json:"t" msgpack:"t"`
	Frame  *Frame     `json:"frame,omitempty" msgpack:"frame,omitempty"`
	Score  *ScoreView `json:"score,omitempty" msgpack:"score,omitempty"`
	Name   string     `json:"name,omitempty" msgpack:"name,omitempty"`
	Status string     `json:"status,omitempty" msgpack:"status,omitempty"`
	Error  string     `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ScoreView is a score as sent to browsers.
type ScoreView struct {
	Elapsed float64 `json:"elapsed" msgpack:"elapsed"`
	Dodges  int     `json:"dodges" msgpack:"dodges"`
}

// CircleView is a drawable circle in arena coordinates.
type CircleView struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	R float64 `json:"r" msgpack:"r"`
}

// ParticleView is one explosion particle.
type ParticleView struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Life  float64 `json:"life" msgpack:"life"`
	Color string  `json:"color" msgpack:"color"`
}

// Frame is everything the browser needs to draw one frame.
type Frame struct {
	Width      float64        `json:"w" msgpack:"w"`
	Height     float64        `json:"h" msgpack:"h"`
	Active     bool           `json:"active" msgpack:"active"`
	Score      ScoreView      `json:"score" msgpack:"score"`
	Difficulty int            `json:"level" msgpack:"level"`
	Player     CircleView     `json:"player" msgpack:"player"`
	Color      string         `json:"color" msgpack:"color"`
	Enemies    []CircleView   `json:"enemies" msgpack:"enemies"`
	Particles  []ParticleView `json:"particles" msgpack:"particles"`
}

// NewFrame converts an engine snapshot to its wire form.
func NewFrame(s *engine.Snapshot) *Frame {
	f := &Frame{
		Width:      s.Arena.Width,
		Height:     s.Arena.Height,
		Active:     s.Run.Active,
		Score:      ScoreView{Elapsed: s.Score.Elapsed, Dodges: s.Score.Dodges},
		Difficulty: s.Difficulty,
		Player:     CircleView{X: s.Player.X, Y: s.Player.Y, R: s.Player.Radius},
		Color:      s.Player.Color,
		Enemies:    make([]CircleView, len(s.Enemies)),
		Particles:  make([]ParticleView, 0, len(s.Particles)),
	}
	for i, e := range s.Enemies {
		f.Enemies[i] = CircleView{X: e.X, Y: e.Y, R: e.Radius}
	}
	for _, p := range s.Particles {
		f.Particles = append(f.Particles, ParticleView{X: p.X, Y: p.Y, Life: p.Life, Color: p.Color})
	}
	return f
}

// EntryView is a leaderboard row as served by the HTTP API.
type EntryView struct {
	Position int    `json:"position"` // 1-based
	Name     string `json:"name"`
	Time     string `json:"time"`
	Value    int    `json:"value"`
}

// NewEntryViews converts leaderboard entries for the HTTP API.
func NewEntryViews(entries []leaderboard.Entry) []EntryView {
	views := make([]EntryView, len(entries))
	for i, e := range entries {
		views[i] = EntryView{Position: e.Position + 1, Name: e.Name(), Time: e.Time(), Value: e.StatValue}
	}
	return views
}

// Codec encodes messages for one WebSocket subprotocol.
type Codec interface {
	Name() string
	MessageType() int // websocket.TextMessage or websocket.BinaryMessage
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) MessageType() int                   { return websocket.TextMessage }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return "msgpack" }
func (msgpackCodec) MessageType() int                   { return websocket.BinaryMessage }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

// Codecs are the supported subprotocols in order of preference.
var Codecs = []Codec{msgpackCodec{}, jsonCodec{}}

// CodecFor returns the codec for a negotiated subprotocol. An empty or
// unknown subprotocol falls back to JSON.
func CodecFor(subprotocol string) Codec {
	for _, c := range Codecs {
		if c.Name() == subprotocol {
			return c
		}
	}
	return jsonCodec{}
}

func subprotocols() []string {
	names := make([]string, len(Codecs))
	for i, c := range Codecs {
		names[i] = c.Name()
	}
	return names
}

// decodeClientMessage decodes and validates a browser message.
func decodeClientMessage(c Codec, data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := c.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode %s message: %w", c.Name(), err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("message without type")
	}
	return msg, nil
}
