package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inHull reports whether p lies in the triangle (a, b, c), allowing eps for
// rounding and falling back to the bounding box for degenerate triangles.
func inHull(p, a, b, c Point, eps float64) bool {
	cross := func(o, u, v Point) float64 {
		return (u.X-o.X)*(v.Y-o.Y) - (u.Y-o.Y)*(v.X-o.X)
	}
	area := cross(a, b, c)
	if math.Abs(area) < 1e-9 {
		r := Bounds(a, b, c)
		return p.X >= r.X-eps && p.X <= r.X+r.W+eps && p.Y >= r.Y-eps && p.Y <= r.Y+r.H+eps
	}
	d1 := cross(a, b, p) * math.Copysign(1, area)
	d2 := cross(b, c, p) * math.Copysign(1, area)
	d3 := cross(c, a, p) * math.Copysign(1, area)
	return d1 >= -eps && d2 >= -eps && d3 >= -eps
}

func TestBezierPointWithinHull(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	coord := func() float64 { return rng.Float64()*2000 - 1000 }

	for i := 0; i < 500; i++ {
		p0, c, p1 := Pt(coord(), coord()), Pt(coord(), coord()), Pt(coord(), coord())
		for s := 0; s <= 20; s++ {
			tt := float64(s) / 20
			pt := BezierPoint(p0, c, p1, tt)
			if !inHull(pt, p0, c, p1, 1e-6) {
				t.Fatalf("point %v at t=%.2f escapes hull of %v %v %v", pt, tt, p0, c, p1)
			}
		}
	}
}

func TestBezierPointEndpointsAndClamp(t *testing.T) {
	p0, c, p1 := Pt(0, 0), Pt(50, 100), Pt(100, 0)

	assert.Equal(t, p0, BezierPoint(p0, c, p1, 0))
	assert.Equal(t, p1, BezierPoint(p0, c, p1, 1))
	assert.Equal(t, p0, BezierPoint(p0, c, p1, -3))
	assert.Equal(t, p1, BezierPoint(p0, c, p1, 7))

	// B(0.5) = 0.25*P0 + 0.5*C + 0.25*P2
	mid := BezierPoint(p0, c, p1, 0.5)
	assert.InDelta(t, 50, mid.X, 1e-9)
	assert.InDelta(t, 50, mid.Y, 1e-9)
}

func TestProjectionRoundTrip(t *testing.T) {
	q := Quad(Pt(10, 20), Pt(200, -150), Pt(400, 60))

	for _, t0 := range []float64{0.1, 0.25, 0.3, 0.5, 0.62, 0.8, 0.9} {
		target := q.Eval(t0)
		pr := ProjectPointOntoCurve(q, target, SamplesCreate)
		assert.InDelta(t, t0, pr.T, 1.0/SamplesCreate, "t0=%.2f", t0)
	}
}

func TestProjectionOffCurve(t *testing.T) {
	// A straight horizontal curve: any point projects onto its x position.
	q := Quad(Pt(0, 0), Pt(100, 0), Pt(200, 0))
	pr := ProjectPointOntoCurve(q, Pt(150, 40), SamplesCreate)

	assert.InDelta(t, 0.75, pr.T, 0.02)
	assert.InDelta(t, 40, pr.Dist(), 2)
}

func TestProjectionSampleFloor(t *testing.T) {
	q := Quad(Pt(0, 0), Pt(50, 0), Pt(100, 0))
	pr := ProjectPointOntoCurve(q, Pt(95, 0), 0)
	assert.Equal(t, 1.0, pr.T)
}

func TestCurveParametersMonotonic(t *testing.T) {
	p := DefaultParams()

	prev := 0.0
	for d := 0.0; d <= 600; d += 5 {
		cp := p.CurveParameters(d, false)
		require.Greater(t, cp.Strength, 0.0, "strength must never be zero (d=%.0f)", d)
		require.GreaterOrEqual(t, cp.Strength, prev, "strength must not decrease (d=%.0f)", d)
		prev = cp.Strength
	}
}

func TestCurveParametersBands(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, p.MinStrength, p.CurveParameters(10, false).Strength)
	assert.Equal(t, p.MaxStrength, p.CurveParameters(1000, false).Strength)

	mid := p.CurveParameters((p.Near+p.Far)/2, false).Strength
	assert.InDelta(t, (p.MinStrength+p.MaxStrength)/2, mid, 1e-9)

	normal := p.CurveParameters(250, false)
	branch := p.CurveParameters(250, true)
	assert.InDelta(t, normal.Strength*1.5, branch.Strength, 1e-12)
}

func TestCurveParametersOffsetFloor(t *testing.T) {
	p := DefaultParams()

	// Just above Near the raw offset would be 81*0.05 = 4.05.
	cp := p.CurveParameters(81, false)
	assert.Equal(t, p.MinOffset, cp.PerpendicularDistance)

	// Below Near the floor does not apply.
	cp = p.CurveParameters(40, false)
	assert.InDelta(t, 2.0, cp.PerpendicularDistance, 1e-9)
}

func TestDefaultControlPoint(t *testing.T) {
	p := DefaultParams()
	p0, p1 := Pt(0, 0), Pt(300, 0)

	c := p.DefaultControlPoint(p0, p1, false)
	want := 300 * p.CurveParameters(300, false).Strength

	// Rotating +x by +90 degrees gives +y.
	assert.InDelta(t, 150, c.X, 1e-9)
	assert.InDelta(t, want, c.Y, 1e-9)
}

func TestDefaultControlPointDegenerate(t *testing.T) {
	p := DefaultParams()
	c := p.DefaultControlPoint(Pt(5, 5), Pt(5, 5), false)

	assert.False(t, math.IsNaN(c.X) || math.IsNaN(c.Y))
	assert.Equal(t, Pt(5, 5), c)
}

func TestTangent(t *testing.T) {
	q := Quad(Pt(0, 0), Pt(50, 50), Pt(100, 0))

	assert.Equal(t, V(100, 100), q.Tangent(0))
	assert.Equal(t, V(100, -100), q.Tangent(1))
	assert.InDelta(t, 0, q.Tangent(0.5).Y, 1e-9)
}

func TestVecClamp(t *testing.T) {
	assert.Equal(t, V(100, 100), V(500, 500).Clamp(100))
	assert.Equal(t, V(-100, -100), V(-500, -500).Clamp(100))
	assert.Equal(t, V(20, -100), V(20, -101).Clamp(100))
}

func TestLength(t *testing.T) {
	q := Quad(Pt(0, 0), Pt(50, 0), Pt(100, 0))
	assert.InDelta(t, 100, q.Length(), 1e-6)
}
