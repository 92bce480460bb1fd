// Package draw renders letterboxed arena scenes onto terminals and exposes
// the coordinate transforms shared by every frontend.
package draw

// Half-block glyphs. Each terminal cell shows two vertically stacked pixels.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)
