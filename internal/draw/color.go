package draw

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed 24-bit RGB value. The zero Color means "no pixel", so
// every color produced by RGB or ParseHex carries an opacity bit.
type Color uint32

const opaque Color = 1 << 24

// Common colors.
var (
	White = RGB(0xff, 0xff, 0xff)
	Black = RGB(0, 0, 0)
)

// RGB builds an opaque color.
func RGB(r, g, b uint8) Color {
	return opaque | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// ParseHex parses "#rrggbb", "rrggbb" or the short "#rgb" form.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return opaque | Color(v), nil
}

// MustParseHex is like ParseHex but falls back to white on malformed input.
// Entity colors come from constants, so a bad value is a programming error
// that should still render something visible.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		return White
	}
	return c
}

// IsSet reports whether c is a drawn pixel.
func (c Color) IsSet() bool {
	return c&opaque != 0
}

// RGB returns the color channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Scale multiplies each channel by f in [0,1], used for fading effects.
func (c Color) Scale(f float64) Color {
	if !c.IsSet() {
		return c
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	r, g, b := c.RGB()
	return RGB(uint8(float64(r)*f), uint8(float64(g)*f), uint8(float64(b)*f))
}
