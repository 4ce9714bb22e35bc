// Package geom provides the 2D primitives and quadratic Bézier math used to
// draw and edit diagram links.
package geom

import (
	"fmt"
	"math"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Add translates p by v.
func (p Point) Add(v Vec) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector from o to p.
func (p Point) Sub(o Point) Vec {
	return Vec{X: p.X - o.X, Y: p.Y - o.Y}
}

// Lerp linearly interpolates between two points.
func (p Point) Lerp(o Point, t float64) Point {
	return Point{
		X: p.X + (o.X-p.X)*t,
		Y: p.Y + (o.Y-p.Y)*t,
	}
}

// Midpoint returns the midpoint of two points.
func (p Point) Midpoint(o Point) Point {
	return Point{
		X: 0.5 * (p.X + o.X),
		Y: 0.5 * (p.Y + o.Y),
	}
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// DistanceSquared returns the squared euclidean distance between two points.
func (p Point) DistanceSquared(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Vec is a 2D displacement.
type Vec struct {
	X, Y float64
}

// V returns the vector ⟨x, y⟩.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

func (v Vec) String() string {
	return fmt.Sprintf("⟨%g, %g⟩", v.X, v.Y)
}

func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec) Mul(f float64) Vec { return Vec{X: v.X * f, Y: v.Y * f} }

// Dot returns the dot product of v and o.
func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Hypot returns the magnitude of the vector.
func (v Vec) Hypot() float64 {
	return math.Hypot(v.X, v.Y)
}

// Angle returns atan2(y, x). The zero vector has angle 0.
func (v Vec) Angle() float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return math.Atan2(v.Y, v.X)
}

// Perp returns v rotated by +90 degrees.
func (v Vec) Perp() Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// Normalize returns a unit vector with the same angle as v. The zero vector
// normalises to ⟨1, 0⟩, matching the angle-0 convention for degenerate links.
func (v Vec) Normalize() Vec {
	h := v.Hypot()
	if h == 0 {
		return Vec{X: 1}
	}
	return Vec{X: v.X / h, Y: v.Y / h}
}

// Clamp limits each component to [-limit, limit].
func (v Vec) Clamp(limit float64) Vec {
	return Vec{X: clamp(v.X, -limit, limit), Y: clamp(v.Y, -limit, limit)}
}

// FromAngle returns the unit vector at angle th, in radians.
func FromAngle(th float64) Vec {
	y, x := math.Sincos(th)
	return Vec{X: x, Y: y}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Rect represents an axis-aligned rectangle by its top-left corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

// Center returns the centre of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies within r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Bounds returns the bounding box of the given points.
func Bounds(points ...Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
