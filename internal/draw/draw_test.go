package draw

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#00ffff")
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if r, g, b := c.RGB(); r != 0 || g != 0xff || b != 0xff {
		t.Fatalf("got (%d,%d,%d), want (0,255,255)", r, g, b)
	}
	if !c.IsSet() {
		t.Fatal("parsed color should be set")
	}
	if c.Hex() != "#00ffff" {
		t.Fatalf("Hex() = %q, want #00ffff", c.Hex())
	}

	short, err := ParseHex("#444")
	if err != nil || short.Hex() != "#444444" {
		t.Fatalf("short form: got %v %v", short.Hex(), err)
	}

	if _, err := ParseHex("#zzzzzz"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
	if MustParseHex("nope") != White {
		t.Fatal("MustParseHex should fall back to white")
	}
	if !Black.IsSet() {
		t.Fatal("black must still count as a drawn pixel")
	}
}

func TestLetterboxRoundTrip(t *testing.T) {
	// Wide surface: bars on the left and right.
	lb := NewLetterbox(1600, 600, 800, 600)
	if lb.Scale != 1 || lb.OffsetX != 400 || lb.OffsetY != 0 {
		t.Fatalf("unexpected letterbox %+v", lb)
	}

	// Tall surface: bars on top and bottom.
	lb = NewLetterbox(400, 600, 800, 600)
	if lb.Scale != 0.5 || lb.OffsetX != 0 || lb.OffsetY != 150 {
		t.Fatalf("unexpected letterbox %+v", lb)
	}

	sx, sy := lb.ToSurface(123, 456)
	x, y := lb.ToArena(sx, sy)
	if math.Abs(x-123) > 1e-9 || math.Abs(y-456) > 1e-9 {
		t.Fatalf("round trip got (%f,%f), want (123,456)", x, y)
	}
}

func TestCanvasFillCircle(t *testing.T) {
	// 80x30 terminal => 80x60 sub-pixels, arena 800x600 => scale 0.1
	c := NewScaledCanvas(80, 30, 800, 600)
	red := RGB(255, 0, 0)
	c.FillCircle(400, 300, 50, red)

	if got := c.Pixel(40, 30); got != red {
		t.Fatalf("center pixel = %v, want red", got)
	}
	if got := c.Pixel(0, 0); got.IsSet() {
		t.Fatal("corner pixel should be empty")
	}

	c.Clear()
	if c.Pixel(40, 30).IsSet() {
		t.Fatal("Clear should reset pixels")
	}
}

func TestCanvasTinyCircleStillVisible(t *testing.T) {
	c := NewScaledCanvas(80, 30, 800, 600)
	c.FillCircle(405, 305, 2, White)
	if !c.Pixel(40, 30).IsSet() {
		t.Fatal("sub-pixel circle should light its center pixel")
	}
}

func TestCanvasRenderOnlyChanges(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)
	c.FillRect(0, 0, 2, 2, RGB(1, 2, 3))

	var first bytes.Buffer
	c.Render(&first)
	if !strings.Contains(first.String(), "\033[38;2;1;2;3m") {
		t.Fatalf("expected truecolor foreground in %q", first.String())
	}

	var second bytes.Buffer
	c.Render(&second)
	if second.Len() != 0 {
		t.Fatalf("unchanged frame should emit nothing, got %q", second.String())
	}

	c.ForceRedraw()
	var third bytes.Buffer
	c.Render(&third)
	if third.Len() == 0 {
		t.Fatal("ForceRedraw should emit the full frame")
	}
}

func TestCanvasTerminalToLogical(t *testing.T) {
	c := NewScaledCanvas(80, 30, 800, 600)
	c.SetOffset(5, 2)

	x, y := c.TerminalToLogical(5+41, 2+16)
	if math.Abs(x-405) > 1e-9 || math.Abs(y-310) > 1e-9 {
		t.Fatalf("got (%f,%f), want (405,310)", x, y)
	}

	col, row := c.LogicalToTerminal(405, 310)
	if col != 41 || row != 16 {
		t.Fatalf("LogicalToTerminal got (%d,%d), want (41,16)", col, row)
	}
}

func TestCanvasCells(t *testing.T) {
	c := NewScaledCanvas(4, 2, 4, 4)
	c.FillRect(0, 1, 1, 1, White) // bottom half of cell (0,0)

	var seen int
	c.Cells(func(col, row int, top, bottom Color) {
		seen++
		if col == 0 && row == 0 {
			if top.IsSet() || bottom != White {
				t.Errorf("cell (0,0) = %v/%v, want empty/white", top, bottom)
			}
		}
	})
	if seen != 8 {
		t.Fatalf("visited %d cells, want 8", seen)
	}
}

func TestFrameWriterOffset(t *testing.T) {
	var out bytes.Buffer
	cw := NewFrameWriter(&out, 3, 1)
	cw.WriteAt(2, 2, "hi")
	if cw.Pending() == 0 {
		t.Fatal("expected pending bytes before flush")
	}
	if err := cw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := out.String(); got != "\033[3;5Hhi" {
		t.Fatalf("got %q", got)
	}
}

func TestCanvasMarkTextDirty(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)
	c.FillRect(0, 0, 10, 10, RGB(9, 9, 9))
	c.Render(&bytes.Buffer{})

	c.MarkTextDirty(3, 2, 2)
	var out bytes.Buffer
	c.Render(&out)
	if !strings.HasPrefix(out.String(), "\033[2;3H") {
		t.Fatalf("expected repaint to start at row 2 col 3, got %q", out.String())
	}
	if n := strings.Count(out.String(), string(BlockFull)); n != 2 {
		t.Fatalf("got %d repainted cells, want 2", n)
	}
}
