// Package geom provides the small amount of 2D vector math the routines need.
package geom

import "math"

// Vec2 is a point or direction in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for constructing a Vec2.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Length returns the Euclidean norm of v.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to itself.
func (v Vec2) Normalize() Vec2 {
	if v.IsZero() {
		return Vec2{}
	}
	l := v.Length()
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Round rounds both components half away from zero.
func (v Vec2) Round() (int, int) {
	return int(math.Round(v.X)), int(math.Round(v.Y))
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StepToward returns the single-axis step from "from" toward "to": at most
// one unit, never past the destination.
func StepToward(from, to float64) float64 {
	d := to - from
	switch {
	case d > 1:
		return 1
	case d < -1:
		return -1
	default:
		return d
	}
}
