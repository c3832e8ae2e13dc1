// Package sim implements the rule-driven stepping kernel: objects living in a
// bounded context, per-type translation and interaction rules, the four-pass
// collision engine, the snapshot stream and the clock that gates stepping.
package sim

import (
	"math"

	"github.com/vovakirdan/causal-sim/internal/core"
)

// ObjectType tags an object kind and drives rule lookup.
type ObjectType string

// Built-in object kinds. The set is extensible: any non-empty tag works as
// long as the rule table covers it.
const (
	TypeWall        ObjectType = "wall"
	TypeCenterBlock ObjectType = "center_block"
	TypeRedBlock    ObjectType = "red_block"
	TypeBlueBlock   ObjectType = "blue_block"
)

// ObjectID is a stable identifier, unique within one simulation.
type ObjectID uint64

// Object is a square body. The engine owns every Object exclusively;
// consumers only ever see ObjectState copies inside snapshots.
type Object struct {
	ID         ObjectID
	Type       ObjectType
	Pos        core.Vec2 // center
	Vel        core.Vec2 // displacement per tick
	HalfExtent float64
	Static     bool
	Color      core.RGB
}

// Size returns the side length of the square.
func (o *Object) Size() float64 {
	return 2 * o.HalfExtent
}

// Bounds returns the AABB as (minX, minY, maxX, maxY).
func (o *Object) Bounds() (minX, minY, maxX, maxY float64) {
	h := o.HalfExtent
	return o.Pos.X - h, o.Pos.Y - h, o.Pos.X + h, o.Pos.Y + h
}

// State returns a read-only copy of the public fields.
func (o *Object) State() ObjectState {
	return ObjectState{
		ID:         o.ID,
		Type:       o.Type,
		Position:   o.Pos,
		Velocity:   o.Vel,
		HalfExtent: o.HalfExtent,
		Size:       o.Size(),
		IsStatic:   o.Static,
		Color:      o.Color,
	}
}

// Context is the bounded rectangle objects live in, origin at the top-left
// corner, both axes in grid units.
type Context struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate checks that both dimensions are positive and finite.
func (c Context) Validate() error {
	if !(c.Width > 0) || !(c.Height > 0) || !core.V(c.Width, c.Height).IsFinite() {
		return configErrorf("context must have positive finite dimensions, got %gx%g", c.Width, c.Height)
	}
	return nil
}

// Contains reports whether the object's AABB lies inside the context,
// allowing tol of floating point slack on every edge.
func (c Context) Contains(o *Object, tol float64) bool {
	minX, minY, maxX, maxY := o.Bounds()
	return minX >= -tol && minY >= -tol && maxX <= c.Width+tol && maxY <= c.Height+tol
}

// overlap returns the AABB penetration depth of a and b on each axis.
// Negative values mean the boxes are apart on that axis; zero means touching.
func overlap(a, b *Object) (ox, oy float64) {
	d := a.Pos.Sub(b.Pos)
	reach := a.HalfExtent + b.HalfExtent
	return reach - math.Abs(d.X), reach - math.Abs(d.Y)
}
