package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

func TestDOTPinsGeometry(t *testing.T) {
	d := diagram.New()
	d.AddNode(&diagram.Node{ID: "a", Shape: diagram.ShapeRectangle, Size: 60})
	d.AddNode(&diagram.Node{ID: "b", X: 400, Shape: diagram.ShapeRounded, Size: 60, Label: "B"})
	d.AddNode(&diagram.Node{ID: "c", X: 200, Y: 300, Shape: diagram.ShapeCircle, Size: 60})
	n := 0
	opts := topology.DefaultOptions()
	opts.NewID = func() string { n++; return fmt.Sprintf("l%d", n) }
	e := topology.New(d, opts)

	l, err := e.CreateLink("a", "b")
	require.NoError(t, err)
	q, _ := e.Curve(l)
	_, err = e.CreateBranch(l, "c", q.Eval(0.5))
	require.NoError(t, err)

	dot := DOT(e, `My "graph"`)

	assert.True(t, strings.HasPrefix(dot, "digraph G {\n"))
	assert.Contains(t, dot, `label="My \"graph\""`)
	assert.Contains(t, dot, `"a" [shape=box, pos="60.0,-30.0!", width=1.667, height=0.833];`)
	assert.Contains(t, dot, `"b" [shape=box, style=rounded, pos="460.0,-30.0!", width=1.667, height=0.833, label="B"];`)
	assert.Contains(t, dot, `"c" [shape=circle, pos="230.0,-330.0!"`)
	assert.Contains(t, dot, `"a" -> "b" [pos="118.0,-30.0 `)
	assert.Contains(t, dot, `"__anchor_l2" [shape=point`)
	assert.Contains(t, dot, `"__anchor_l2" -> "c" [color="#1565c0", pos="`)
}

func TestDOTSplineIsExactCubic(t *testing.T) {
	q := geom.Quad(geom.Pt(0, 0), geom.Pt(30, 60), geom.Pt(90, 0))
	assert.Equal(t, "0.0,0.0 20.0,-40.0 50.0,-40.0 90.0,0.0", dotSpline(q))
}

func TestEscapeDOT(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`a"b`, `a\"b`},
		{`back\slash`, `back\\slash`},
		{"<html>", `\<html\>`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeDOT(tt.in))
	}
}
