// Package drag turns pointer gestures into diagram edits: reshaping a link by
// its control handle, spawning a branch from a point on a curve, and moving
// nodes. A Controller holds at most one gesture at a time and acts as the
// topology guard for the link it is editing.
package drag

import (
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

// State is the gesture a Controller is in.
type State int

const (
	Idle State = iota
	CurveDragging
	BranchDragging
	NodeDragging
)

func (s State) String() string {
	switch s {
	case CurveDragging:
		return "curve-dragging"
	case BranchDragging:
		return "branch-dragging"
	case NodeDragging:
		return "node-dragging"
	default:
		return "idle"
	}
}

// Modifiers are the keyboard modifiers held at pointer-down.
type Modifiers uint8

const (
	// ModBranch starts a branch drag even over a control handle or node.
	ModBranch Modifiers = 1 << iota
)

// History receives undo checkpoints. Record is called before a gesture may
// change the diagram; Discard drops the last checkpoint when it did not.
type History interface {
	Record(label string)
	Discard()
}

// Renderer is asked to repaint after live changes.
type Renderer interface {
	RequestRender()
}

type nopHistory struct{}

func (nopHistory) Record(string) {}
func (nopHistory) Discard()      {}

type nopRenderer struct{}

func (nopRenderer) RequestRender() {}

// Viewport maps screen coordinates to world coordinates.
type Viewport struct {
	Zoom       float64
	PanX, PanY float64
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToWorld converts a screen point to world space.
func (v Viewport) ToWorld(p geom.Point) geom.Point {
	z := v.zoom()
	return geom.Pt((p.X-v.PanX)/z, (p.Y-v.PanY)/z)
}

// ToScreen converts a world point to screen space.
func (v Viewport) ToScreen(p geom.Point) geom.Point {
	z := v.zoom()
	return geom.Pt(p.X*z+v.PanX, p.Y*z+v.PanY)
}

// Options configures a Controller.
type Options struct {
	Deadband     float64 // screen-space displacement below which a curve drag is a no-op
	HitTolerance float64 // world-space pick radius for handles and curves
	History      History
	Renderer     Renderer
	Logger       *zap.Logger
}

// DefaultOptions returns the standard gesture settings.
func DefaultOptions() Options {
	return Options{Deadband: 1, HitTolerance: 10}
}

type savedLink struct {
	live, saved *diagram.Link
}

// Controller runs pointer gestures against an engine. It must be driven from
// the same goroutine as the engine.
type Controller struct {
	e    *topology.Engine
	fq   *topology.FrameQueue
	opts Options
	log  *zap.Logger
	view Viewport

	state   State
	active  string // link owned by a curve drag
	link    *diagram.Link
	saved   *diagram.Link
	deps    []savedLink // branches below link, as at pointer-down
	flushed bool

	downScreen geom.Point
	initial    geom.Point // control point at pointer-down

	parent  *diagram.Link // branch drag origin
	anchor  geom.Point
	pointer geom.Point

	node       *diagram.Node
	nodeOrigin geom.Point
	downWorld  geom.Point
}

// New creates a Controller over e. Zero-valued options fall back to
// defaults.
func New(e *topology.Engine, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Deadband <= 0 {
		opts.Deadband = def.Deadband
	}
	if opts.HitTolerance <= 0 {
		opts.HitTolerance = def.HitTolerance
	}
	if opts.History == nil {
		opts.History = nopHistory{}
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		e:    e,
		fq:   e.NewFrameQueue(),
		opts: opts,
		log:  opts.Logger,
		view: Viewport{Zoom: 1},
	}
}

// State returns the current gesture.
func (c *Controller) State() State { return c.state }

// Viewport returns the current screen mapping.
func (c *Controller) Viewport() Viewport { return c.view }

// SetViewport changes the screen mapping. It takes effect on the next
// pointer-down.
func (c *Controller) SetViewport(v Viewport) { c.view = v }

// Owns reports whether linkID is held by the current gesture, so propagation
// leaves it alone.
func (c *Controller) Owns(linkID string) bool {
	return c.active != "" && c.active == linkID
}

// Active returns the link being reshaped, if any.
func (c *Controller) Active() (*diagram.Link, bool) {
	return c.link, c.link != nil
}

// PointerDown starts a gesture at screen point p. Control handles take
// priority, then nodes, then curves. It reports whether a gesture started.
func (c *Controller) PointerDown(p geom.Point, mods Modifiers) bool {
	if c.state != Idle {
		c.Cancel()
	}
	w := c.view.ToWorld(p)
	tol := c.opts.HitTolerance

	if mods&ModBranch == 0 {
		if l, ok := c.e.ControlHandleAt(w, tol); ok {
			c.beginCurve(l, p)
			return true
		}
		if n, ok := c.e.NodeAt(w); ok {
			c.state = NodeDragging
			c.node = n
			c.nodeOrigin = geom.Pt(n.X, n.Y)
			c.downWorld = w
			c.opts.History.Record("move node")
			return true
		}
	}
	if l, pr, ok := c.e.LinkAt(w, tol, geom.SamplesLive); ok {
		c.state = BranchDragging
		c.parent = l
		c.anchor = pr.Point
		c.pointer = w
		c.log.Debug("branch drag started", zap.String("parent", l.ID), zap.Float64("t", pr.T))
		c.opts.Renderer.RequestRender()
		return true
	}
	return false
}

func (c *Controller) beginCurve(l *diagram.Link, p geom.Point) {
	c.opts.History.Record("reshape link")
	c.saved = l.Clone()
	c.deps = c.snapshotBranches(l)
	c.link = l
	c.active = l.ID
	c.state = CurveDragging
	c.downScreen = p
	c.initial, _ = c.e.ResolveControlPoint(l)
	c.flushed = false
	c.log.Debug("curve drag started", zap.String("link", l.ID))
}

// PointerMove updates the gesture for the pointer at screen point p.
func (c *Controller) PointerMove(p geom.Point) {
	switch c.state {
	case CurveDragging:
		live := c.initial.Add(p.Sub(c.downScreen).Mul(1 / c.view.zoom()))
		c.link.Control = diagram.ExplicitControl(live)
		c.link.Cache = &live
		c.fq.Request(c.link.ID)
	case BranchDragging:
		c.pointer = c.view.ToWorld(p)
	case NodeDragging:
		d := c.view.ToWorld(p).Sub(c.downWorld)
		to := c.nodeOrigin.Add(d)
		if err := c.e.MoveNode(c.node.ID, to.X, to.Y, c); err != nil {
			c.log.Debug("node drag target vanished", zap.Error(err))
			c.Reset()
			return
		}
	default:
		return
	}
	c.opts.Renderer.RequestRender()
}

// Frame runs the propagation queued since the last paint. Call it once per
// paint cycle.
func (c *Controller) Frame() int {
	n := c.fq.Flush(c)
	if n > 0 {
		c.flushed = true
	}
	return n
}

// TempCurve returns the floating curve of a branch drag, from its anchor to
// the pointer.
func (c *Controller) TempCurve() (geom.QuadBez, bool) {
	if c.state != BranchDragging {
		return geom.QuadBez{}, false
	}
	ctrl := c.e.Params().DefaultControlPoint(c.anchor, c.pointer, true)
	return geom.Quad(c.anchor, ctrl, c.pointer), true
}

// PointerUp ends the gesture at screen point p. It returns the link that was
// reshaped or created, or false when the gesture changed nothing.
func (c *Controller) PointerUp(p geom.Point) (*diagram.Link, bool) {
	defer c.Reset()

	switch c.state {
	case CurveDragging:
		return c.endCurve(p)
	case BranchDragging:
		return c.endBranch(p)
	case NodeDragging:
		n := c.node
		if n.X == c.nodeOrigin.X && n.Y == c.nodeOrigin.Y {
			c.opts.History.Discard()
		}
		return nil, false
	}
	return nil, false
}

func (c *Controller) endCurve(p geom.Point) (*diagram.Link, bool) {
	l := c.link
	d := p.Sub(c.downScreen)
	if abs(d.X) < c.opts.Deadband && abs(d.Y) < c.opts.Deadband {
		c.restore()
		c.opts.History.Discard()
		c.log.Debug("curve drag within deadband", zap.String("link", l.ID))
		return nil, false
	}

	live := c.initial.Add(d.Mul(1 / c.view.zoom()))
	l.Control = diagram.ExplicitControl(live)
	c.e.ResolveControlPoint(l)
	if l.IsBranch() {
		if err := c.e.RefreshBranchOffset(l); err != nil {
			c.log.Debug("branch offset not refreshed", zap.String("link", l.ID), zap.Error(err))
		}
	}

	c.active = ""
	c.fq.Clear()
	c.e.Propagate(l, nil)
	if ca := l.Curve(); ca != nil {
		if parent, ok := c.e.Diagram().Link(ca.ParentID); ok {
			c.e.Propagate(parent, nil)
		}
	}
	c.log.Debug("curve drag committed", zap.String("link", l.ID),
		zap.Stringer("control", l.Control.Offset))
	c.opts.Renderer.RequestRender()
	return l, true
}

func (c *Controller) endBranch(p geom.Point) (*diagram.Link, bool) {
	defer c.opts.Renderer.RequestRender()

	w := c.view.ToWorld(p)
	n, ok := c.e.NodeAt(w)
	if !ok || n.ID == c.parent.SourceID || n.ID == c.parent.TargetID {
		c.log.Debug("branch drag discarded", zap.String("parent", c.parent.ID))
		return nil, false
	}

	c.opts.History.Record("create branch")
	l, err := c.e.CreateBranch(c.parent, n.ID, c.anchor)
	if err != nil {
		c.opts.History.Discard()
		c.log.Debug("branch not created", zap.String("parent", c.parent.ID), zap.Error(err))
		return nil, false
	}
	return l, true
}

// snapshotBranches copies every link anchored on l, directly or through
// other branches.
func (c *Controller) snapshotBranches(l *diagram.Link) []savedLink {
	var out []savedLink
	seen := map[string]bool{l.ID: true}
	queue := []string{l.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, b := range c.e.Diagram().Branches(id) {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			out = append(out, savedLink{live: b, saved: b.Clone()})
			queue = append(queue, b.ID)
		}
	}
	return out
}

// restore puts the dragged link and its branches back exactly as they were
// at pointer-down.
func (c *Controller) restore() {
	restoreLink(c.link, c.saved)
	if !c.flushed {
		return
	}
	for _, d := range c.deps {
		restoreLink(d.live, d.saved)
	}
}

// restoreLink overwrites dst with src, reusing dst's curve anchor so held
// references stay valid.
func restoreLink(dst, src *diagram.Link) {
	ca := dst.Curve()
	*dst = *src.Clone()
	if sc := src.Curve(); ca != nil && sc != nil {
		*ca = *sc
		dst.Anchor = ca
	}
}

// Cancel abandons the current gesture, restoring anything it changed.
func (c *Controller) Cancel() {
	switch c.state {
	case CurveDragging:
		c.restore()
		c.opts.History.Discard()
	case NodeDragging:
		if err := c.e.MoveNode(c.node.ID, c.nodeOrigin.X, c.nodeOrigin.Y, nil); err == nil {
			c.opts.History.Discard()
		}
	case Idle:
		return
	}
	c.log.Debug("gesture cancelled", zap.Stringer("state", c.state))
	c.Reset()
	c.opts.Renderer.RequestRender()
}

// Reset drops all gesture state and releases the guard without touching the
// diagram.
func (c *Controller) Reset() {
	c.state = Idle
	c.active = ""
	c.link, c.saved = nil, nil
	c.deps = nil
	c.parent, c.node = nil, nil
	c.flushed = false
	c.fq.Clear()
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
