package draw

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// cell is one terminal character made of two stacked sub-pixels.
type cell struct {
	top, bottom Color
}

// Canvas is a drawing buffer with 2x vertical resolution using half-block characters.
// Game objects draw in logical (arena) coordinates; the canvas letterboxes the
// logical area onto its sub-pixel grid.
type Canvas struct {
	termWidth      int     // Actual terminal columns
	termHeight     int     // Actual terminal rows
	subPixelHeight int     // termHeight * 2
	pixels         []Color // Flat slice: [y * termWidth + x], zero means unset

	logicalWidth  float64
	logicalHeight float64
	box           Letterbox // Logical -> sub-pixel transform

	// Offset for centering the render area when terminal is larger than max resolution.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	// Previous frame, used to emit only the cells that changed.
	prev        []cell
	forceRedraw bool

	renderBuf strings.Builder
	numBuf    [20]byte
}

// NewCanvas creates a canvas for the given terminal dimensions with a 1:1
// logical mapping onto sub-pixels.
func NewCanvas(width, height int) *Canvas {
	return NewScaledCanvas(width, height, float64(width), float64(height*2))
}

// NewScaledCanvas creates a canvas that letterboxes a logicalWidth x
// logicalHeight area onto termWidth x termHeight terminal cells.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
	}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 0)
	termHeight = max(termHeight, 0)
	subPixelHeight := termHeight * 2

	if termWidth != c.termWidth || termHeight != c.termHeight || c.pixels == nil {
		c.pixels = make([]Color, subPixelHeight*termWidth)
		c.prev = make([]cell, termWidth*termHeight)
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = subPixelHeight
		c.forceRedraw = true
	}

	c.box = NewLetterbox(float64(termWidth), float64(subPixelHeight), c.logicalWidth, c.logicalHeight)
}

// SetOffset sets the column and row offset for centering the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.forceRedraw = true
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render emit every cell, e.g. after the
// terminal was cleared.
func (c *Canvas) ForceRedraw() {
	c.forceRedraw = true
}

// staleCell never matches a rendered cell, forcing it to be re-emitted.
var staleCell = cell{top: 1 << 31}

// MarkTextDirty marks width cells starting at the 1-based canvas position
// (col, row) as overwritten by text, so the next Render repaints them.
func (c *Canvas) MarkTextDirty(col, row, width int) {
	r := row - 1
	if r < 0 || r >= c.termHeight {
		return
	}
	for x := col - 1; x < col-1+width; x++ {
		if x >= 0 && x < c.termWidth {
			c.prev[r*c.termWidth+x] = staleCell
		}
	}
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// Letterbox returns the logical -> sub-pixel transform.
func (c *Canvas) Letterbox() Letterbox {
	return c.box
}

// setPixel sets a pixel at actual sub-pixel coordinates (no scaling).
func (c *Canvas) setPixel(x, y int, color Color) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = color
	}
}

// Pixel returns the color at sub-pixel coordinates, or 0 when out of range.
func (c *Canvas) Pixel(x, y int) Color {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		return c.pixels[y*c.termWidth+x]
	}
	return 0
}

// SetFloat sets a pixel using float logical coordinates (applies scaling).
func (c *Canvas) SetFloat(x, y float64, color Color) {
	px, py := c.box.ToSurface(x, y)
	c.setPixel(int(math.Floor(px)), int(math.Floor(py)), color)
}

// FillRect fills a logical rectangle.
func (c *Canvas) FillRect(x, y, w, h float64, color Color) {
	x1, y1 := c.box.ToSurface(x, y)
	x2, y2 := c.box.ToSurface(x+w, y+h)
	for py := int(math.Round(y1)); py < int(math.Round(y2)); py++ {
		for px := int(math.Round(x1)); px < int(math.Round(x2)); px++ {
			c.setPixel(px, py, color)
		}
	}
}

// StrokeRect draws the one-pixel outline of a logical rectangle.
func (c *Canvas) StrokeRect(x, y, w, h float64, color Color) {
	fx1, fy1 := c.box.ToSurface(x, y)
	fx2, fy2 := c.box.ToSurface(x+w, y+h)
	x1, y1 := int(math.Round(fx1)), int(math.Round(fy1))
	x2, y2 := int(math.Round(fx2))-1, int(math.Round(fy2))-1
	for px := x1; px <= x2; px++ {
		c.setPixel(px, y1, color)
		c.setPixel(px, y2, color)
	}
	for py := y1; py <= y2; py++ {
		c.setPixel(x1, py, color)
		c.setPixel(x2, py, color)
	}
}

// FillCircle fills a circle given in logical coordinates. Circles smaller
// than a sub-pixel still light the pixel under their center.
func (c *Canvas) FillCircle(cx, cy, r float64, color Color) {
	pcx, pcy := c.box.ToSurface(cx, cy)
	pr := r * c.box.Scale
	if pr < 0.5 {
		c.setPixel(int(math.Floor(pcx)), int(math.Floor(pcy)), color)
		return
	}

	r2 := pr * pr
	yStart := int(math.Floor(pcy - pr))
	yEnd := int(math.Ceil(pcy + pr))
	xStart := int(math.Floor(pcx - pr))
	xEnd := int(math.Ceil(pcx + pr))
	for y := yStart; y <= yEnd; y++ {
		dy := float64(y) + 0.5 - pcy
		for x := xStart; x <= xEnd; x++ {
			dx := float64(x) + 0.5 - pcx
			if dx*dx+dy*dy <= r2 {
				c.setPixel(x, y, color)
			}
		}
	}
}

// StrokeCircle draws a ring of the given logical thickness.
func (c *Canvas) StrokeCircle(cx, cy, r, thickness float64, color Color) {
	pcx, pcy := c.box.ToSurface(cx, cy)
	outer := r * c.box.Scale
	inner := math.Max(0, outer-math.Max(thickness*c.box.Scale, 1))
	o2, i2 := outer*outer, inner*inner
	for y := int(math.Floor(pcy - outer)); y <= int(math.Ceil(pcy+outer)); y++ {
		dy := float64(y) + 0.5 - pcy
		for x := int(math.Floor(pcx - outer)); x <= int(math.Ceil(pcx+outer)); x++ {
			dx := float64(x) + 0.5 - pcx
			d2 := dx*dx + dy*dy
			if d2 <= o2 && d2 >= i2 {
				c.setPixel(x, y, color)
			}
		}
	}
}

func (c *Canvas) cellAt(col, row int) cell {
	top := c.pixels[row*2*c.termWidth+col]
	var bottom Color
	if row*2+1 < c.subPixelHeight {
		bottom = c.pixels[(row*2+1)*c.termWidth+col]
	}
	return cell{top: top, bottom: bottom}
}

// Cells calls fn for every terminal cell with its top and bottom sub-pixel
// colors. col and row are 0-based and exclude the centering offset. This lets
// non-ANSI backends (tcell) blit the canvas themselves.
func (c *Canvas) Cells(fn func(col, row int, top, bottom Color)) {
	for row := 0; row < c.termHeight; row++ {
		for col := 0; col < c.termWidth; col++ {
			cl := c.cellAt(col, row)
			fn(col, row, cl.top, cl.bottom)
		}
	}
}

// Render outputs the canvas to the writer using truecolor half-block characters.
// Only cells that changed since the previous Render are emitted.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()

	lastCol, lastRow := -1, -1
	for row := 0; row < c.termHeight; row++ {
		for col := 0; col < c.termWidth; col++ {
			cl := c.cellAt(col, row)
			idx := row*c.termWidth + col
			if !c.forceRedraw && c.prev[idx] == cl {
				continue
			}
			c.prev[idx] = cl

			if row != lastRow || col != lastCol+1 {
				c.writeCursor(col+1+c.offsetCol, row+1+c.offsetRow)
			}
			c.writeCell(cl)
			lastCol, lastRow = col, row
		}
	}
	c.forceRedraw = false

	if c.renderBuf.Len() == 0 {
		return
	}
	c.renderBuf.WriteString("\033[0m")

	io.WriteString(w, c.renderBuf.String())
}

func (c *Canvas) writeCursor(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

func (c *Canvas) writeSGR(layer int, color Color) {
	r, g, b := color.RGB()
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(layer), 10))
	c.renderBuf.WriteString(";2;")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(r), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(g), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(b), 10))
	c.renderBuf.WriteByte('m')
}

func (c *Canvas) writeCell(cl cell) {
	switch {
	case !cl.top.IsSet() && !cl.bottom.IsSet():
		c.renderBuf.WriteString("\033[0m ")
	case cl.top == cl.bottom:
		c.renderBuf.WriteString("\033[49m")
		c.writeSGR(38, cl.top)
		c.renderBuf.WriteRune(BlockFull)
	case !cl.bottom.IsSet():
		c.renderBuf.WriteString("\033[49m")
		c.writeSGR(38, cl.top)
		c.renderBuf.WriteRune(BlockUpperHalf)
	case !cl.top.IsSet():
		c.renderBuf.WriteString("\033[49m")
		c.writeSGR(38, cl.bottom)
		c.renderBuf.WriteRune(BlockLowerHalf)
	default:
		c.writeSGR(38, cl.top)
		c.writeSGR(48, cl.bottom)
		c.renderBuf.WriteRune(BlockUpperHalf)
	}
}

// RenderBorder draws a box border around the canvas area when the terminal
// exceeds the max render resolution on either axis.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1 // Room for left/right vertical bars
	hasV := c.offsetRow >= 1 // Room for top/bottom horizontal bars
	if !hasH && !hasV {
		return
	}

	// Border positions (1-based terminal coordinates)
	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1

	var buf strings.Builder
	buf.WriteString("\033[0m")
	line := strings.Repeat("─", c.termWidth)
	if hasV {
		if hasH {
			fmt.Fprintf(&buf, "\033[%d;%dH┌%s┐", top, left, line)
			fmt.Fprintf(&buf, "\033[%d;%dH└%s┘", bottom, left, line)
		} else {
			fmt.Fprintf(&buf, "\033[%d;%dH%s", top, c.offsetCol+1, line)
			fmt.Fprintf(&buf, "\033[%d;%dH%s", bottom, c.offsetCol+1, line)
		}
	}
	if hasH {
		for row := c.offsetRow + 1; row < c.offsetRow+c.termHeight+1; row++ {
			fmt.Fprintf(&buf, "\033[%d;%dH│\033[%d;%dH│", row, left, row, right)
		}
	}

	io.WriteString(w, buf.String())
}

// LogicalWidth returns the logical width.
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height.
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts logical coordinates to a 1-based canvas
// position (col, row), without the centering offset. Useful for placing
// text overlays at positions matching canvas-drawn objects.
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px, py := c.box.ToSurface(x, y)
	return int(math.Floor(px)) + 1, int(math.Floor(py))/2 + 1
}

// TerminalToLogical converts a 1-based terminal position (as reported by
// mouse events, including the centering offset) to logical coordinates at
// the center of that cell.
func (c *Canvas) TerminalToLogical(col, row int) (x, y float64) {
	px := float64(col-1-c.offsetCol) + 0.5
	py := float64(row-1-c.offsetRow)*2 + 1
	return c.box.ToArena(px, py)
}
