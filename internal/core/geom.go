// Package core provides fundamental types and utilities shared by the simulation
// kernel and its consumers. It contains no external dependencies (especially no
// Bubble Tea) to keep the kernel pure and testable.
package core

import "math"

// Rect is an integer cell rectangle used when drawing into a Screen.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// ScaleRect maps a world-space box (minX, minY, maxX, maxY) onto screen cells
// using independent x and y scale factors. The result is at least one cell wide
// and tall so that small objects stay visible.
func ScaleRect(minX, minY, maxX, maxY, sx, sy float64) Rect {
	x0 := int(math.Floor(minX * sx))
	y0 := int(math.Floor(minY * sy))
	x1 := int(math.Ceil(maxX * sx))
	y1 := int(math.Ceil(maxY * sy))
	return Rect{X: x0, Y: y0, W: max(1, x1-x0), H: max(1, y1-y0)}
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
