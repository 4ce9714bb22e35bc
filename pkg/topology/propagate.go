package topology

import (
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
)

// Propagate re-anchors every branch of parent on parent's current curve,
// then recurses into their branches. Links owned by g are left untouched.
// It returns the number of branches moved.
//
// The parent's own control point is resolved first, so branches never land
// on a stale curve.
func (e *Engine) Propagate(parent *diagram.Link, g Guard) int {
	return e.propagate(parent, g, make(map[string]bool))
}

func (e *Engine) propagate(parent *diagram.Link, g Guard, seen map[string]bool) int {
	if seen[parent.ID] {
		return 0
	}
	seen[parent.ID] = true

	branches := e.d.Branches(parent.ID)
	if len(branches) == 0 {
		return 0
	}
	q, ok := e.Curve(parent)
	if !ok {
		// Branches keep their last resolved anchors.
		e.log.Debug("parent undrawable, branches left static", zap.String("link", parent.ID))
		return 0
	}

	moved := 0
	for _, b := range branches {
		if owns(g, b.ID) {
			continue
		}
		e.anchor(b, q)
		moved++
		moved += e.propagate(b, g, seen)
	}
	return moved
}

// anchor places branch b on curve q and refreshes b's own control point.
func (e *Engine) anchor(b *diagram.Link, q geom.QuadBez) {
	ca := b.Curve()
	e.ensureT(b, q)

	pos := q.Eval(ca.T)
	if ca.HasOffset {
		ca.Offset = ca.Offset.Clamp(e.offsetLimit)
		pos = pos.Add(ca.Offset)
	}
	ca.Position = pos

	b.Invalidate()
	e.ResolveControlPoint(b)
}

// ensureT derives a missing relative-t by projecting the last known anchor
// position onto q.
func (e *Engine) ensureT(b *diagram.Link, q geom.QuadBez) {
	ca := b.Curve()
	if ca.HasT {
		return
	}
	pr := geom.ProjectPointOntoCurve(q, ca.Position, geom.SamplesCreate)
	ca.T, ca.HasT = pr.T, true
	e.log.Debug("derived branch relative-t", zap.String("link", b.ID), zap.Float64("t", pr.T))
}

// DeriveMissingAnchors fixes the relative-t of every branch loaded without
// one, against the parent curves as they currently are. It returns how many
// were derived.
func (e *Engine) DeriveMissingAnchors() int {
	n := 0
	for _, l := range e.d.Links() {
		ca := l.Curve()
		if ca == nil || ca.HasT {
			continue
		}
		parent, ok := e.d.Link(ca.ParentID)
		if !ok {
			continue
		}
		if q, ok := e.Curve(parent); ok {
			e.ensureT(l, q)
			n++
		}
	}
	return n
}

// PropagateForNode refreshes everything that depends on a moved node: first
// the control points of the ordinary links touching it, then the branches
// hanging off those links. Branches ending at the node are refreshed the
// same way. It returns the number of branches moved.
func (e *Engine) PropagateForNode(nodeID string, g Guard) int {
	var parents []*diagram.Link
	for _, l := range e.d.Links() {
		if !l.Touches(nodeID) || owns(g, l.ID) {
			continue
		}
		l.Invalidate()
		if _, ok := e.ResolveControlPoint(l); !ok {
			continue
		}
		if len(e.d.Branches(l.ID)) > 0 {
			parents = append(parents, l)
		}
	}

	seen := make(map[string]bool)
	moved := 0
	for _, p := range parents {
		moved += e.propagate(p, g, seen)
	}
	return moved
}

// FrameQueue coalesces propagation requests so each link is propagated at
// most once per paint cycle.
type FrameQueue struct {
	e       *Engine
	pending []string
	queued  map[string]bool
}

// NewFrameQueue creates an empty queue bound to e.
func (e *Engine) NewFrameQueue() *FrameQueue {
	return &FrameQueue{e: e, queued: make(map[string]bool)}
}

// Request schedules linkID for propagation on the next Flush.
func (fq *FrameQueue) Request(linkID string) {
	if fq.queued[linkID] {
		return
	}
	fq.queued[linkID] = true
	fq.pending = append(fq.pending, linkID)
}

// Pending returns the number of queued links.
func (fq *FrameQueue) Pending() int { return len(fq.pending) }

// Flush propagates queued links in request order and empties the queue.
// Links deleted since they were queued are skipped.
func (fq *FrameQueue) Flush(g Guard) int {
	pending := fq.pending
	fq.Clear()

	moved := 0
	for _, id := range pending {
		if l, ok := fq.e.d.Link(id); ok {
			moved += fq.e.Propagate(l, g)
		}
	}
	return moved
}

// Clear drops all queued requests.
func (fq *FrameQueue) Clear() {
	fq.pending = nil
	clear(fq.queued)
}
