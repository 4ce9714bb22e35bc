package geom

import "math"

// Projection sample counts. Establishing a durable relative-t uses the denser
// setting; live pointer feedback uses the cheaper one.
const (
	SamplesCreate = 50
	SamplesLive   = 20
)

// Params tunes how curvature follows link length.
type Params struct {
	Near        float64 `toml:"near" validate:"gte=0"`        // below: minimal curvature
	Far         float64 `toml:"far" validate:"gtfield=Near"`  // above: maximal curvature
	MinStrength float64 `toml:"min_strength" validate:"gt=0"` // never exactly zero
	MaxStrength float64 `toml:"max_strength" validate:"gtefield=MinStrength"`
	BranchScale float64 `toml:"branch_scale" validate:"gt=0"`
	MinOffset   float64 `toml:"min_offset" validate:"gte=0"` // floor on the perpendicular offset above Near
}

// DefaultParams returns the standard curvature tuning.
func DefaultParams() Params {
	return Params{
		Near:        80,
		Far:         400,
		MinStrength: 0.05,
		MaxStrength: 0.2,
		BranchScale: 1.5,
		MinOffset:   10,
	}
}

// CurveParams is the curvature chosen for a link of a given length.
type CurveParams struct {
	Strength              float64
	PerpendicularDistance float64
}

// CurveParameters computes curvature for a chord of the given length.
// Strength is monotonic in distance and eased with a cubic between Near and Far.
func (p Params) CurveParameters(distance float64, branch bool) CurveParams {
	var strength float64
	switch {
	case distance <= p.Near:
		strength = p.MinStrength
	case distance >= p.Far:
		strength = p.MaxStrength
	default:
		u := (distance - p.Near) / (p.Far - p.Near)
		strength = p.MinStrength + (p.MaxStrength-p.MinStrength)*easeInOutCubic(u)
	}
	if branch {
		strength *= p.BranchScale
	}

	perp := distance * strength
	if distance > p.Near && perp < p.MinOffset {
		perp = p.MinOffset
	}
	return CurveParams{Strength: strength, PerpendicularDistance: perp}
}

func easeInOutCubic(u float64) float64 {
	if u < 0.5 {
		return 4 * u * u * u
	}
	f := -2*u + 2
	return 1 - f*f*f/2
}

// DefaultControlPoint places the control point on the perpendicular bisector
// of p0-p1, on the side obtained by rotating p0->p1 by +90 degrees.
func (p Params) DefaultControlPoint(p0, p1 Point, branch bool) Point {
	chord := p1.Sub(p0)
	cp := p.CurveParameters(chord.Hypot(), branch)
	normal := FromAngle(chord.Angle()).Perp()
	return p0.Midpoint(p1).Add(normal.Mul(cp.PerpendicularDistance))
}

// QuadBez is a quadratic Bézier curve.
type QuadBez struct {
	P0, P1, P2 Point
}

// Quad returns the curve from p0 to p2 with control point c.
func Quad(p0, c, p2 Point) QuadBez {
	return QuadBez{P0: p0, P1: c, P2: p2}
}

// Eval computes the point at parameter t, clamped to [0,1].
func (q QuadBez) Eval(t float64) Point {
	return BezierPoint(q.P0, q.P1, q.P2, t)
}

// Tangent returns the derivative at parameter t.
func (q QuadBez) Tangent(t float64) Vec {
	t = clamp(t, 0, 1)
	mt := 1 - t
	return Vec{
		X: 2*mt*(q.P1.X-q.P0.X) + 2*t*(q.P2.X-q.P1.X),
		Y: 2*mt*(q.P1.Y-q.P0.Y) + 2*t*(q.P2.Y-q.P1.Y),
	}
}

// Length approximates the arc length by sampling.
func (q QuadBez) Length() float64 {
	const samples = 64
	length := 0.0
	prev := q.P0
	for i := 1; i <= samples; i++ {
		cur := q.Eval(float64(i) / samples)
		length += prev.Distance(cur)
		prev = cur
	}
	return length
}

// BezierPoint evaluates the quadratic Bézier (p0, c, p1) at t.
func BezierPoint(p0, c, p1 Point, t float64) Point {
	t = clamp(t, 0, 1)
	mt := 1 - t
	a := mt * mt
	b := 2 * mt * t
	d := t * t
	return Point{
		X: a*p0.X + b*c.X + d*p1.X,
		Y: a*p0.Y + b*c.Y + d*p1.Y,
	}
}

// Projection is the nearest sampled point on a curve.
type Projection struct {
	Point  Point
	T      float64
	DistSq float64
}

// Dist returns the distance from the projected target to the curve.
func (pr Projection) Dist() float64 {
	return math.Sqrt(pr.DistSq)
}

// ProjectPointOntoCurve finds the sample on q nearest to target. There is no
// closed form; precision is 1/samples in t. Fewer than two samples are raised
// to two so both endpoints are always considered.
func ProjectPointOntoCurve(q QuadBez, target Point, samples int) Projection {
	if samples < 2 {
		samples = 2
	}
	best := Projection{Point: q.P0, T: 0, DistSq: math.Inf(1)}
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)
		pt := q.Eval(t)
		if d := pt.DistanceSquared(target); d < best.DistSq {
			best = Projection{Point: pt, T: t, DistSq: d}
		}
	}
	return best
}
