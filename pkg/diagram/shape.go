package diagram

import (
	"math"

	"github.com/ha1tch/linkgraph/pkg/geom"
)

// Shape model constants.
const (
	DefaultSize      = 60.0  // size hint used when a node has none
	DefaultRectWidth = 120.0 // rectangle width when no live size is known
	BoundaryInset    = 2.0   // links stop just outside the outline
)

// Measurer reports the live rendered size of a node, typically driven by its
// label width. Implementations return ok=false when no size is known.
type Measurer interface {
	NodeSize(id string) (w, h float64, ok bool)
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(id string) (w, h float64, ok bool)

func (f MeasureFunc) NodeSize(id string) (float64, float64, bool) { return f(id) }

// Dimensions returns a node's bounding box size. Circles and diamonds are
// square with side Size; rectangles take their width from m when available.
func Dimensions(n *Node, m Measurer) (w, h float64) {
	size := n.Size
	if size <= 0 {
		size = DefaultSize
	}
	switch n.Shape {
	case ShapeCircle, ShapeDiamond:
		return size, size
	}
	if m != nil {
		if mw, _, ok := m.NodeSize(n.ID); ok && mw > 0 {
			return mw, size
		}
	}
	return DefaultRectWidth, size
}

// Bounds returns the node's bounding box.
func Bounds(n *Node, m Measurer) geom.Rect {
	w, h := Dimensions(n, m)
	return geom.Rect{X: n.X, Y: n.Y, W: w, H: h}
}

// Center returns the visual centre of a node.
func Center(n *Node, m Measurer) geom.Point {
	return Bounds(n, m).Center()
}

// BoundaryPoint returns where a link leaving along angle meets the node's
// outline. angle is the source-to-target direction: sources exit along it,
// targets along its reverse.
func BoundaryPoint(n *Node, angle float64, isSource bool, m Measurer) geom.Point {
	w, h := Dimensions(n, m)
	dir := geom.FromAngle(angle)
	if !isSource {
		dir = dir.Mul(-1)
	}
	r := math.Max(radius(n.Shape, w, h, dir)-BoundaryInset, 0)
	return Center(n, m).Add(dir.Mul(r))
}

func radius(shape Shape, w, h float64, dir geom.Vec) float64 {
	c, s := math.Abs(dir.X), math.Abs(dir.Y)
	switch shape {
	case ShapeCircle:
		return w / 2
	case ShapeDiamond:
		// |x| + |y| = a for a square rotated 45 degrees.
		a := w / 2
		return a / (c + s)
	}
	hw, hh := w/2, h/2
	switch {
	case c < 1e-12:
		return hh
	case s < 1e-12:
		return hw
	}
	return math.Min(hw/c, hh/s)
}
