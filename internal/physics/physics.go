// Package physics holds the circle geometry the simulation uses for
// movement and collision.
package physics

import "math"

// Distance returns the distance between (x1, y1) and (x2, y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// DistanceSquared is Distance without the square root, for comparisons.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// PointInCircle reports whether (px, py) lies within radius of (cx, cy).
func PointInCircle(px, py, cx, cy, radius float64) bool {
	return DistanceSquared(px, py, cx, cy) <= radius*radius
}

// CirclesOverlap reports whether two circles intersect.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	return CirclesOverlapWithin(x1, y1, r1, x2, y2, r2, 0)
}

// CirclesOverlapWithin checks if two circles overlap by more than tolerance.
// A positive tolerance lets circles graze each other without counting as a hit.
func CirclesOverlapWithin(x1, y1, r1, x2, y2, r2, tolerance float64) bool {
	minDist := r1 + r2 - tolerance
	if minDist <= 0 {
		return false
	}
	return DistanceSquared(x1, y1, x2, y2) < minDist*minDist
}

// Clamp restricts v to [lo, hi]. If lo > hi the range is empty and the
// midpoint is returned.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

// StepToward moves (x, y) toward (tx, ty) by at most maxStep. Points closer
// than tolerance are treated as arrived and returned unchanged.
func StepToward(x, y, tx, ty, maxStep, tolerance float64) (float64, float64, bool) {
	dx := tx - x
	dy := ty - y
	dist := math.Hypot(dx, dy)
	if dist <= tolerance {
		return x, y, false
	}
	step := math.Min(maxStep, dist)
	return x + dx/dist*step, y + dy/dist*step, true
}
