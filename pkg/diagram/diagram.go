// Package diagram holds the node and link model of a diagram together with
// the node shape model used to terminate links at node boundaries.
package diagram

import (
	"sort"

	"github.com/ha1tch/linkgraph/pkg/geom"
)

// Shape is the outline drawn for a node.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeRounded   Shape = "rounded"
	ShapeCircle    Shape = "circle"
	ShapeDiamond   Shape = "diamond"
)

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	switch s {
	case ShapeRectangle, ShapeRounded, ShapeCircle, ShapeDiamond:
		return true
	}
	return false
}

// Node is a diagram node. X, Y is the top-left of its bounding box.
type Node struct {
	ID    string
	X, Y  float64
	Shape Shape
	Size  float64 // size hint; see Dimensions
	Label string
}

// ControlKind selects how a link's control point is resolved.
type ControlKind int

const (
	ControlDefault  ControlKind = iota // derived from endpoint distance
	ControlExplicit                    // absolute point, converted to an offset on first resolve
	ControlOffset                      // relative to the chord midpoint; durable user intent
)

func (k ControlKind) String() string {
	switch k {
	case ControlExplicit:
		return "explicit"
	case ControlOffset:
		return "offset"
	}
	return "default"
}

// ControlSpec describes a link's control point.
type ControlSpec struct {
	Kind   ControlKind
	Point  geom.Point // ControlExplicit
	Offset geom.Vec   // ControlOffset
}

// DefaultControl returns the distance-derived control spec.
func DefaultControl() ControlSpec { return ControlSpec{Kind: ControlDefault} }

// ExplicitControl returns a control spec pinned at an absolute point.
func ExplicitControl(p geom.Point) ControlSpec {
	return ControlSpec{Kind: ControlExplicit, Point: p}
}

// OffsetControl returns a control spec relative to the chord midpoint.
func OffsetControl(v geom.Vec) ControlSpec {
	return ControlSpec{Kind: ControlOffset, Offset: v}
}

// Anchor says where a link starts. It is one of NodeAnchor, YAnchor or
// *CurveAnchor.
type Anchor interface {
	anchor()
}

// NodeAnchor starts the link at its source node.
type NodeAnchor struct{}

// YAnchor starts the link at its source node, like NodeAnchor, and records
// the sibling link it fans out from.
type YAnchor struct {
	SiblingID string
}

// CurveAnchor starts the link at a point on its parent's curve.
type CurveAnchor struct {
	ParentID  string
	T         float64 // parent-curve parameter; meaningful when HasT
	HasT      bool
	Position  geom.Point // last resolved absolute anchor
	Offset    geom.Vec   // user displacement from Eval(parent, T); meaningful when HasOffset
	HasOffset bool
}

func (NodeAnchor) anchor()   {}
func (YAnchor) anchor()      {}
func (*CurveAnchor) anchor() {}

// Link is a directed curve between two anchors.
type Link struct {
	ID       string
	SourceID string // empty for curve-anchored links
	TargetID string
	Control  ControlSpec
	Cache    *geom.Point // last resolved control point
	Anchor   Anchor
}

// Curve returns the link's curve anchor, or nil when it starts at a node.
func (l *Link) Curve() *CurveAnchor {
	ca, _ := l.Anchor.(*CurveAnchor)
	return ca
}

// IsBranch reports whether the link starts on another link's curve.
func (l *Link) IsBranch() bool {
	return l.Curve() != nil
}

// IsYBranch reports whether the link is a sibling fanned out from another link.
func (l *Link) IsYBranch() bool {
	_, ok := l.Anchor.(YAnchor)
	return ok
}

// Touches reports whether the link's node endpoints include nodeID.
func (l *Link) Touches(nodeID string) bool {
	return (l.SourceID != "" && l.SourceID == nodeID) || l.TargetID == nodeID
}

// Invalidate drops the cached control point.
func (l *Link) Invalidate() {
	l.Cache = nil
}

// Clone returns a deep copy of l.
func (l *Link) Clone() *Link {
	c := *l
	if l.Cache != nil {
		p := *l.Cache
		c.Cache = &p
	}
	if ca := l.Curve(); ca != nil {
		cc := *ca
		c.Anchor = &cc
	}
	return &c
}

// Diagram is the node and link collection. Iteration order is insertion order.
type Diagram struct {
	nodes     map[string]*Node
	links     map[string]*Link
	nodeOrder []string
	linkOrder []string
}

// New creates an empty diagram.
func New() *Diagram {
	return &Diagram{
		nodes: make(map[string]*Node),
		links: make(map[string]*Link),
	}
}

// AddNode inserts or replaces a node.
func (d *Diagram) AddNode(n *Node) {
	if _, exists := d.nodes[n.ID]; !exists {
		d.nodeOrder = append(d.nodeOrder, n.ID)
	}
	d.nodes[n.ID] = n
}

// Node looks up a node by ID.
func (d *Diagram) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// RemoveNode deletes a node. Links referring to it are left dangling for the
// validation pass to clean up.
func (d *Diagram) RemoveNode(id string) bool {
	if _, ok := d.nodes[id]; !ok {
		return false
	}
	delete(d.nodes, id)
	d.nodeOrder = removeID(d.nodeOrder, id)
	return true
}

// Nodes returns nodes in insertion order.
func (d *Diagram) Nodes() []*Node {
	out := make([]*Node, 0, len(d.nodeOrder))
	for _, id := range d.nodeOrder {
		out = append(out, d.nodes[id])
	}
	return out
}

// AddLink inserts or replaces a link.
func (d *Diagram) AddLink(l *Link) {
	if _, exists := d.links[l.ID]; !exists {
		d.linkOrder = append(d.linkOrder, l.ID)
	}
	d.links[l.ID] = l
}

// Link looks up a link by ID.
func (d *Diagram) Link(id string) (*Link, bool) {
	l, ok := d.links[id]
	return l, ok
}

// RemoveLink deletes a link. Branches anchored on it keep their last
// resolved position.
func (d *Diagram) RemoveLink(id string) bool {
	if _, ok := d.links[id]; !ok {
		return false
	}
	delete(d.links, id)
	d.linkOrder = removeID(d.linkOrder, id)
	return true
}

// Links returns links in insertion order.
func (d *Diagram) Links() []*Link {
	out := make([]*Link, 0, len(d.linkOrder))
	for _, id := range d.linkOrder {
		out = append(out, d.links[id])
	}
	return out
}

// Branches returns the links anchored on parentID's curve.
func (d *Diagram) Branches(parentID string) []*Link {
	var out []*Link
	for _, id := range d.linkOrder {
		l := d.links[id]
		if ca := l.Curve(); ca != nil && ca.ParentID == parentID {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Diagram) Clone() *Diagram {
	c := New()
	for _, n := range d.Nodes() {
		nc := *n
		c.AddNode(&nc)
	}
	for _, l := range d.Links() {
		c.AddLink(l.Clone())
	}
	return c
}

// NodeIDs returns the sorted node IDs.
func (d *Diagram) NodeIDs() []string {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
