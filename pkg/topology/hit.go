package topology

import (
	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
)

// NodeAt returns the topmost node whose bounding box contains p.
func (e *Engine) NodeAt(p geom.Point) (*diagram.Node, bool) {
	nodes := e.d.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if diagram.Bounds(nodes[i], e.measure).Contains(p) {
			return nodes[i], true
		}
	}
	return nil, false
}

// ControlHandleAt returns the link whose control point lies within tolerance
// of p, nearest first.
func (e *Engine) ControlHandleAt(p geom.Point, tolerance float64) (*diagram.Link, bool) {
	var best *diagram.Link
	bestD := tolerance * tolerance
	for _, l := range e.d.Links() {
		c, ok := e.ResolveControlPoint(l)
		if !ok {
			continue
		}
		if d := c.DistanceSquared(p); d <= bestD {
			best, bestD = l, d
		}
	}
	return best, best != nil
}

// LinkAt returns the link whose curve passes within tolerance of p, with the
// projected point on it. samples trades precision for cost.
func (e *Engine) LinkAt(p geom.Point, tolerance float64, samples int) (*diagram.Link, geom.Projection, bool) {
	var best *diagram.Link
	var bestPr geom.Projection
	bestD := tolerance * tolerance
	for _, l := range e.d.Links() {
		q, ok := e.Curve(l)
		if !ok {
			continue
		}
		pr := geom.ProjectPointOntoCurve(q, p, samples)
		if pr.DistSq <= bestD {
			best, bestPr, bestD = l, pr, pr.DistSq
		}
	}
	return best, bestPr, best != nil
}
