package draw

import (
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
)

// Terminal mode escapes.
const (
	escClear        = "\033[0m\033[H\033[2J"
	escHideCursor   = "\033[?25l"
	escShowCursor   = "\033[?25h"
	escEnableMouse  = "\033[?1003h\033[?1006h" // Any-motion tracking, SGR coordinates
	escDisableMouse = "\033[?1006l\033[?1003l"
)

// ClearScreen resets attributes, clears the terminal and homes the cursor.
func ClearScreen(w io.Writer) { io.WriteString(w, escClear) }

func HideCursor(w io.Writer)   { io.WriteString(w, escHideCursor) }
func ShowCursor(w io.Writer)   { io.WriteString(w, escShowCursor) }
func EnableMouse(w io.Writer)  { io.WriteString(w, escEnableMouse) }
func DisableMouse(w io.Writer) { io.WriteString(w, escDisableMouse) }

// appendCursor appends a cursor position escape for a 1-based cell.
func appendCursor(b []byte, col, row int) []byte {
	b = append(b, "\033["...)
	b = strconv.AppendInt(b, int64(row), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(col), 10)
	return append(b, 'H')
}

// maxChunkSize keeps each write within one typical network packet, which
// keeps SSH frames smooth.
const maxChunkSize = 1400

// FrameWriter collects one frame of terminal output (canvas cells and
// overlay text) and flushes it to the connection in packet-sized writes.
type FrameWriter struct {
	w      io.Writer
	buf    []byte
	offCol int
	offRow int
}

// NewFrameWriter creates a FrameWriter on w. The offset is added to every
// position passed to WriteAt, so callers address the centered render area.
func NewFrameWriter(w io.Writer, offsetCol, offsetRow int) *FrameWriter {
	return &FrameWriter{w: w, buf: make([]byte, 0, 8192), offCol: offsetCol, offRow: offsetRow}
}

// SetOffset moves the render area after a resize.
func (f *FrameWriter) SetOffset(offsetCol, offsetRow int) {
	f.offCol, f.offRow = offsetCol, offsetRow
}

// Write buffers p. Canvas.Render writes through it.
func (f *FrameWriter) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

// WriteString buffers s.
func (f *FrameWriter) WriteString(s string) {
	f.buf = append(f.buf, s...)
}

// ClearScreen queues a full terminal clear.
func (f *FrameWriter) ClearScreen() {
	f.WriteString(escClear)
}

// WriteAt buffers s at a 1-based position inside the render area.
func (f *FrameWriter) WriteAt(col, row int, s string) {
	f.buf = appendCursor(f.buf, col+f.offCol, row+f.offRow)
	f.buf = append(f.buf, s...)
}

// WriteCentered writes s centered within width columns on row and returns
// its start column. visibleLen is the printable width, which is less than
// len(s) when s carries styling escapes.
func (f *FrameWriter) WriteCentered(row, width, visibleLen int, s string) int {
	col := max((width-visibleLen)/2+1, 1)
	f.WriteAt(col, row, s)
	return col
}

// Pending returns the number of buffered bytes.
func (f *FrameWriter) Pending() int {
	return len(f.buf)
}

// Flush sends the buffered frame and empties the buffer.
func (f *FrameWriter) Flush() error {
	data := f.buf
	f.buf = f.buf[:0]
	for len(data) > 0 {
		n := min(len(data), maxChunkSize)
		if _, err := f.w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

var _ io.Writer = (*FrameWriter)(nil)

// TermSizeFunc reports the terminal size in cells.
type TermSizeFunc func() (width, height int, err error)

// StdoutSize reads the size of the terminal on stdout.
func StdoutSize() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}
