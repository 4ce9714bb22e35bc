// Package topology maintains link geometry over a diagram: resolving control
// points, anchoring branches on their parents' curves, and re-deriving both
// when nodes or parent curves move.
package topology

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
)

var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrLinkNotFound   = errors.New("link not found")
	ErrDuplicateLink  = errors.New("link already exists between these nodes")
	ErrSelfLink       = errors.New("link source and target are the same node")
	ErrNotCurveAnchor = errors.New("link is not anchored on a curve")
	ErrUndrawable     = errors.New("link endpoints cannot be resolved")
)

// Guard reports which links are held by an interactive session. Propagation
// never moves a link the guard owns.
type Guard interface {
	Owns(linkID string) bool
}

func owns(g Guard, id string) bool {
	return g != nil && g.Owns(id)
}

// Options configures an Engine.
type Options struct {
	Params      geom.Params
	OffsetLimit float64 // per-axis clamp on branch anchor offsets
	Measurer    diagram.Measurer
	Logger      *zap.Logger
	NewID       func() string
}

// DefaultOptions returns the standard engine settings.
func DefaultOptions() Options {
	return Options{
		Params:      geom.DefaultParams(),
		OffsetLimit: 100,
		NewID:       uuid.NewString,
	}
}

// Engine computes and maintains link geometry for one diagram. It is not safe
// for concurrent use; callers drive it from a single event loop.
type Engine struct {
	d           *diagram.Diagram
	params      geom.Params
	offsetLimit float64
	measure     diagram.Measurer
	log         *zap.Logger
	newID       func() string
	onRemove    []func(linkID string)
}

// New creates an engine over d. Zero-valued options fall back to defaults.
func New(d *diagram.Diagram, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Params == (geom.Params{}) {
		opts.Params = def.Params
	}
	if opts.OffsetLimit <= 0 {
		opts.OffsetLimit = def.OffsetLimit
	}
	if opts.NewID == nil {
		opts.NewID = def.NewID
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		d:           d,
		params:      opts.Params,
		offsetLimit: opts.OffsetLimit,
		measure:     opts.Measurer,
		log:         opts.Logger,
		newID:       opts.NewID,
	}
}

// Diagram returns the diagram the engine operates on.
func (e *Engine) Diagram() *diagram.Diagram { return e.d }

// Params returns the curvature tuning.
func (e *Engine) Params() geom.Params { return e.params }

// OffsetLimit returns the per-axis branch offset clamp.
func (e *Engine) OffsetLimit() float64 { return e.offsetLimit }

// Measurer returns the live node size source, which may be nil.
func (e *Engine) Measurer() diagram.Measurer { return e.measure }

// OnRemove registers a callback run for every link removed by the engine,
// so the visual layer can drop the matching element.
func (e *Engine) OnRemove(fn func(linkID string)) {
	e.onRemove = append(e.onRemove, fn)
}

// Endpoints returns where the link's curve starts and ends. ok is false when
// a node it needs is missing; such links are skipped, not drawn.
func (e *Engine) Endpoints(l *diagram.Link) (start, end geom.Point, ok bool) {
	target, ok := e.d.Node(l.TargetID)
	if !ok {
		return start, end, false
	}
	tc := diagram.Center(target, e.measure)

	if ca := l.Curve(); ca != nil {
		start = ca.Position
		angle := tc.Sub(start).Angle()
		return start, diagram.BoundaryPoint(target, angle, false, e.measure), true
	}

	source, ok := e.d.Node(l.SourceID)
	if !ok {
		return start, end, false
	}
	angle := tc.Sub(diagram.Center(source, e.measure)).Angle()
	start = diagram.BoundaryPoint(source, angle, true, e.measure)
	end = diagram.BoundaryPoint(target, angle, false, e.measure)
	return start, end, true
}

// ResolveControlPoint returns the link's control point for its current
// endpoints and caches it on the link.
//
// An offset is applied to the current chord midpoint, so a manual edit keeps
// its shape relative to the endpoints as they move. An explicit point is
// converted to such an offset on first resolve. Without either, the point is
// derived from endpoint distance alone.
func (e *Engine) ResolveControlPoint(l *diagram.Link) (geom.Point, bool) {
	p0, p1, ok := e.Endpoints(l)
	if !ok {
		if l.Cache != nil {
			return *l.Cache, false
		}
		return geom.Point{}, false
	}
	mid := p0.Midpoint(p1)

	var c geom.Point
	switch l.Control.Kind {
	case diagram.ControlOffset:
		c = mid.Add(l.Control.Offset)
	case diagram.ControlExplicit:
		c = l.Control.Point
		l.Control = diagram.OffsetControl(c.Sub(mid))
	default:
		c = e.params.DefaultControlPoint(p0, p1, l.IsBranch())
	}
	l.Cache = &c
	return c, true
}

// Curve resolves the link's full quadratic curve.
func (e *Engine) Curve(l *diagram.Link) (geom.QuadBez, bool) {
	p0, p1, ok := e.Endpoints(l)
	if !ok {
		return geom.QuadBez{}, false
	}
	c, _ := e.ResolveControlPoint(l)
	return geom.Quad(p0, c, p1), true
}
