package topology

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
)

// CreateLink connects two nodes with a default-curved link. It fails when
// either node is missing or a node-anchored link (ordinary or Y-branch)
// already joins the pair in either direction.
func (e *Engine) CreateLink(sourceID, targetID string) (*diagram.Link, error) {
	if _, ok := e.d.Node(sourceID); !ok {
		return nil, fmt.Errorf("source %s: %w", sourceID, ErrNodeNotFound)
	}
	if _, ok := e.d.Node(targetID); !ok {
		return nil, fmt.Errorf("target %s: %w", targetID, ErrNodeNotFound)
	}
	if sourceID == targetID {
		return nil, ErrSelfLink
	}
	for _, l := range e.d.Links() {
		if l.IsBranch() {
			continue
		}
		if (l.SourceID == sourceID && l.TargetID == targetID) ||
			(l.SourceID == targetID && l.TargetID == sourceID) {
			return nil, fmt.Errorf("%s-%s: %w", sourceID, targetID, ErrDuplicateLink)
		}
	}

	l := &diagram.Link{
		ID:       e.newID(),
		SourceID: sourceID,
		TargetID: targetID,
		Control:  diagram.DefaultControl(),
		Anchor:   diagram.NodeAnchor{},
	}
	e.d.AddLink(l)
	e.ResolveControlPoint(l)
	e.log.Debug("link created", zap.String("link", l.ID),
		zap.String("source", sourceID), zap.String("target", targetID))
	return l, nil
}

// CreateBranch anchors a new link at anchor on parent's curve and runs it to
// targetID. The anchor's curve parameter is captured now so later parent
// changes keep the branch at the same relative place.
func (e *Engine) CreateBranch(parent *diagram.Link, targetID string, anchor geom.Point) (*diagram.Link, error) {
	if _, ok := e.d.Node(targetID); !ok {
		return nil, fmt.Errorf("target %s: %w", targetID, ErrNodeNotFound)
	}
	q, ok := e.Curve(parent)
	if !ok {
		return nil, fmt.Errorf("parent %s: %w", parent.ID, ErrUndrawable)
	}
	pr := geom.ProjectPointOntoCurve(q, anchor, geom.SamplesCreate)

	// The sampled projection rarely lands exactly on the click; keep the
	// remainder as the anchor offset so the first parent update does not
	// snap the branch onto the curve.
	on := q.Eval(pr.T)
	off, hasOff := e.anchorOffset(anchor, on)
	pos := anchor
	if hasOff && off != anchor.Sub(on) {
		pos = on.Add(off) // clamped
	}

	l := &diagram.Link{
		ID:       e.newID(),
		TargetID: targetID,
		Anchor: &diagram.CurveAnchor{
			ParentID:  parent.ID,
			T:         pr.T,
			HasT:      true,
			Position:  pos,
			Offset:    off,
			HasOffset: hasOff,
		},
	}

	// Bias the initial curve perpendicular to anchor->target and keep it as an
	// offset so it survives later re-anchoring.
	p0, p1, _ := e.Endpoints(l)
	c := e.params.DefaultControlPoint(p0, p1, true)
	l.Control = diagram.OffsetControl(c.Sub(p0.Midpoint(p1)))
	l.Cache = &c

	e.d.AddLink(l)
	e.log.Debug("branch created", zap.String("link", l.ID),
		zap.String("parent", parent.ID), zap.Float64("t", pr.T))
	return l, nil
}

// CreateYBranch fans a new link out of sibling's source node to targetID.
// Y-branches share a node anchor and are exempt from the duplicate rule.
func (e *Engine) CreateYBranch(sibling *diagram.Link, targetID string) (*diagram.Link, error) {
	if sibling.IsBranch() {
		return nil, fmt.Errorf("sibling %s: %w", sibling.ID, ErrUndrawable)
	}
	if _, ok := e.d.Node(sibling.SourceID); !ok {
		return nil, fmt.Errorf("source %s: %w", sibling.SourceID, ErrNodeNotFound)
	}
	if _, ok := e.d.Node(targetID); !ok {
		return nil, fmt.Errorf("target %s: %w", targetID, ErrNodeNotFound)
	}
	if targetID == sibling.SourceID {
		return nil, ErrSelfLink
	}

	l := &diagram.Link{
		ID:       e.newID(),
		SourceID: sibling.SourceID,
		TargetID: targetID,
		Control:  diagram.DefaultControl(),
		Anchor:   diagram.YAnchor{SiblingID: sibling.ID},
	}
	e.d.AddLink(l)
	e.ResolveControlPoint(l)
	return l, nil
}

// SetBranchOffset records a user displacement of a branch anchor, clamped to
// the offset limit, and re-anchors the branch.
func (e *Engine) SetBranchOffset(l *diagram.Link, v geom.Vec) error {
	ca := l.Curve()
	if ca == nil {
		return fmt.Errorf("%s: %w", l.ID, ErrNotCurveAnchor)
	}
	ca.Offset, ca.HasOffset = v.Clamp(e.offsetLimit), true
	if parent, ok := e.d.Link(ca.ParentID); ok {
		if q, ok := e.Curve(parent); ok {
			e.anchor(l, q)
		}
	}
	return nil
}

// RefreshBranchOffset re-expresses a branch's current anchor position as an
// offset from where its relative-t lands on the parent's current curve.
func (e *Engine) RefreshBranchOffset(l *diagram.Link) error {
	ca := l.Curve()
	if ca == nil {
		return fmt.Errorf("%s: %w", l.ID, ErrNotCurveAnchor)
	}
	parent, ok := e.d.Link(ca.ParentID)
	if !ok {
		return fmt.Errorf("parent %s: %w", ca.ParentID, ErrLinkNotFound)
	}
	q, ok := e.Curve(parent)
	if !ok {
		return fmt.Errorf("parent %s: %w", parent.ID, ErrUndrawable)
	}
	e.ensureT(l, q)
	ca.Offset, ca.HasOffset = e.anchorOffset(ca.Position, q.Eval(ca.T))
	return nil
}

// anchorEpsilon is the smallest anchor displacement kept as an offset.
const anchorEpsilon = 1e-9

// anchorOffset is the clamped displacement of pos from the curve point on.
// Displacements below anchorEpsilon count as none.
func (e *Engine) anchorOffset(pos, on geom.Point) (geom.Vec, bool) {
	off := pos.Sub(on).Clamp(e.offsetLimit)
	if off.Hypot() < anchorEpsilon {
		return geom.Vec{}, false
	}
	return off, true
}

// DeleteLink removes a link. Its branches stay where they are.
func (e *Engine) DeleteLink(id string) error {
	if !e.d.RemoveLink(id) {
		return fmt.Errorf("%s: %w", id, ErrLinkNotFound)
	}
	e.notifyRemoved(id)
	return nil
}

// DeleteNode removes a node and the links left dangling by it.
func (e *Engine) DeleteNode(id string) (Report, error) {
	if !e.d.RemoveNode(id) {
		return Report{}, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	return e.Cleanup(), nil
}

// MoveNode places a node at (x, y) and brings every dependent curve along.
func (e *Engine) MoveNode(id string, x, y float64, g Guard) error {
	n, ok := e.d.Node(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	// Capture relative-t against the curves as they are before the move.
	e.DeriveMissingAnchors()
	n.X, n.Y = x, y
	e.PropagateForNode(id, g)
	return nil
}

func (e *Engine) notifyRemoved(id string) {
	for _, fn := range e.onRemove {
		fn(id)
	}
}
