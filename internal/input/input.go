// Package input turns raw terminal bytes into per-frame key and mouse state.
package input

import (
	"bufio"
	"strconv"
	"time"
	"unicode/utf8"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
const keyHoldDuration = 30 * time.Millisecond

// steerHoldDuration bridges the gap between terminal key repeats so a held
// direction key steers continuously.
const steerHoldDuration = 120 * time.Millisecond

// MouseAction classifies a decoded mouse report.
type MouseAction int

const (
	MousePress   MouseAction = iota // Button went down
	MouseDrag                       // Motion with a button held
	MouseRelease                    // Button went up
	MouseMove                       // Motion with no button held
	MouseWheel
)

// MouseEvent is one SGR mouse report. Col and Row are 1-based terminal
// coordinates as sent by the terminal.
type MouseEvent struct {
	Col, Row int
	Button   int // 0 left, 1 middle, 2 right
	Action   MouseAction
}

// Input represents the current frame's input state.
type Input struct {
	Quit      bool
	Interrupt bool // Ctrl-C, honored even while typing
	Left      bool
	Right     bool
	Up        bool
	Down      bool
	Space     bool
	Enter     bool
	Backspace bool
	Escape    bool
	Ranking   bool // 'r'
	Rename    bool // 'n'
	Closed    bool // The underlying reader hit EOF or failed

	Mouse   []MouseEvent // Mouse reports received this frame, in order
	Text    []rune       // Printable characters typed this frame
	Pressed []byte
}

// Steering reports whether any direction key is held.
func (in Input) Steering() bool {
	return in.Left || in.Right || in.Up || in.Down
}

// Direction returns the held direction as a unit-free (dx, dy) in {-1,0,1}.
func (in Input) Direction() (dx, dy float64) {
	if in.Left {
		dx--
	}
	if in.Right {
		dx++
	}
	if in.Up {
		dy--
	}
	if in.Down {
		dy++
	}
	return dx, dy
}

// keyState tracks the last time each key was pressed.
type keyState struct {
	quit      time.Time
	interrupt time.Time
	left      time.Time
	right     time.Time
	up        time.Time
	down      time.Time
	space     time.Time
	enter     time.Time
	backspace time.Time
	escape    time.Time
	ranking   time.Time
	rename    time.Time
}

// Stream delivers input bytes via a channel and tracks key state for combinations.
type Stream struct {
	ch      chan byte
	state   keyState
	pending []byte // Incomplete escape sequence carried to the next frame
	closed  bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := NewStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// NewStream creates a stream that is fed through Feed instead of a reader.
func NewStream() *Stream {
	return &Stream{ch: make(chan byte, 256)}
}

// Feed pushes bytes into the stream without blocking; bytes that don't fit
// in the buffer are dropped. Used by hosts that receive input as messages.
func (s *Stream) Feed(p []byte) {
	for _, b := range p {
		select {
		case s.ch <- b:
		default:
			return
		}
	}
}

// ResetKeyInput forgets all held keys, so a key that started a game
// doesn't also count as pressed in the next state.
func ResetKeyInput(s *Stream) {
	s.state = keyState{}
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys and mouse reports and accumulates
// all pressed keys. Uses key state persistence to allow detecting
// simultaneous key combinations.
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return s.process(buf, time.Now())
}

// process parses buf and builds the frame input as of now.
func (s *Stream) process(buf []byte, now time.Time) Input {
	var in Input
	in.Pressed = buf

	for i := 0; i < len(buf); {
		b := buf[i]

		if b == '\x1b' {
			n, complete := s.parseEscape(buf[i:], now, &in)
			if !complete {
				// Keep the partial sequence for the next frame.
				s.pending = append(s.pending, buf[i:]...)
				in.Pressed = buf[:i]
				break
			}
			i += n
			continue
		}

		if b >= 0x80 {
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && !utf8.FullRune(buf[i:]) {
				s.pending = append(s.pending, buf[i:]...)
				in.Pressed = buf[:i]
				break
			}
			if r != utf8.RuneError {
				in.Text = append(in.Text, r)
			}
			i += size
			continue
		}

		if b >= 0x20 && b < 0x7f {
			in.Text = append(in.Text, rune(b))
		}
		applyByteToState(&s.state, b, now)
		i++
	}

	in.Quit = now.Sub(s.state.quit) < keyHoldDuration || s.closed
	in.Interrupt = now.Sub(s.state.interrupt) < keyHoldDuration || s.closed
	in.Left = now.Sub(s.state.left) < steerHoldDuration
	in.Right = now.Sub(s.state.right) < steerHoldDuration
	in.Up = now.Sub(s.state.up) < steerHoldDuration
	in.Down = now.Sub(s.state.down) < steerHoldDuration
	in.Space = now.Sub(s.state.space) < keyHoldDuration
	in.Enter = now.Sub(s.state.enter) < keyHoldDuration
	in.Backspace = now.Sub(s.state.backspace) < keyHoldDuration
	in.Escape = now.Sub(s.state.escape) < keyHoldDuration
	in.Ranking = now.Sub(s.state.ranking) < keyHoldDuration
	in.Rename = now.Sub(s.state.rename) < keyHoldDuration
	in.Closed = s.closed
	return in
}

// parseEscape handles a sequence starting with ESC. It returns the number of
// bytes consumed, or complete=false when the sequence is cut off.
func (s *Stream) parseEscape(buf []byte, now time.Time, in *Input) (n int, complete bool) {
	if len(buf) == 1 {
		// A lone ESC at the end of a read is the Escape key; terminals send
		// whole sequences in one write.
		s.state.escape = now
		return 1, true
	}
	if buf[1] != '[' {
		s.state.escape = now
		return 1, true
	}
	if len(buf) < 3 {
		return 0, false
	}

	switch buf[2] {
	case 'A': // Up arrow
		s.state.up = now
		return 3, true
	case 'B': // Down arrow
		s.state.down = now
		return 3, true
	case 'C': // Right arrow
		s.state.right = now
		return 3, true
	case 'D': // Left arrow
		s.state.left = now
		return 3, true
	case '<':
		ev, n, ok := parseSGRMouse(buf)
		if n == 0 {
			return 0, false
		}
		if ok {
			in.Mouse = append(in.Mouse, ev)
		}
		return n, true
	}

	// Unknown CSI: skip to its final byte.
	for j := 2; j < len(buf); j++ {
		if buf[j] >= 0x40 && buf[j] <= 0x7e {
			return j + 1, true
		}
	}
	return 0, false
}

// parseSGRMouse decodes "ESC [ < b ; x ; y (M|m)". It returns n == 0 when
// the sequence is incomplete and ok == false when it is malformed.
func parseSGRMouse(buf []byte) (ev MouseEvent, n int, ok bool) {
	var fields [3]int
	field := 0
	start := 3
	for j := 3; j < len(buf); j++ {
		c := buf[j]
		switch {
		case c >= '0' && c <= '9':
			continue
		case c == ';' || c == 'M' || c == 'm':
			if field > 2 {
				return ev, j + 1, false
			}
			v, err := strconv.Atoi(string(buf[start:j]))
			if err != nil {
				return ev, j + 1, false
			}
			fields[field] = v
			field++
			start = j + 1
			if c == ';' {
				continue
			}
			if field != 3 {
				return ev, j + 1, false
			}
			return decodeMouse(fields[0], fields[1], fields[2], c == 'm'), j + 1, true
		default:
			return ev, j + 1, false
		}
	}
	return ev, 0, false
}

func decodeMouse(code, col, row int, release bool) MouseEvent {
	ev := MouseEvent{Col: col, Row: row, Button: code & 3}
	switch {
	case code&64 != 0:
		ev.Action = MouseWheel
	case release:
		ev.Action = MouseRelease
	case code&32 != 0 && code&3 == 3:
		ev.Action = MouseMove
	case code&32 != 0:
		ev.Action = MouseDrag
	case code&3 == 3:
		// Legacy release encoding.
		ev.Action = MouseRelease
	default:
		ev.Action = MousePress
	}
	return ev
}

// applyByteToState updates the key state timestamps based on the pressed byte.
func applyByteToState(state *keyState, b byte, now time.Time) {
	switch b {
	case 'q', 'Q':
		state.quit = now
	case '\x03':
		state.interrupt = now
	case 'a', 'A', 'h', 'H':
		state.left = now
	case 'd', 'D', 'l', 'L':
		state.right = now
	case 'w', 'W', 'k', 'K':
		state.up = now
	case 's', 'S', 'j', 'J':
		state.down = now
	case 'r', 'R':
		state.ranking = now
	case 'n', 'N':
		state.rename = now
	case ' ':
		state.space = now
	case '\n', '\r':
		state.enter = now
	case '\b', '\x7f':
		state.backspace = now
	}
}
