package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

func engineWith(nodes ...*diagram.Node) *topology.Engine {
	d := diagram.New()
	for _, n := range nodes {
		d.AddNode(n)
	}
	return topology.New(d, topology.DefaultOptions())
}

func TestPNGEncodesRequestedSize(t *testing.T) {
	e := engineWith(
		&diagram.Node{ID: "a", Shape: diagram.ShapeRectangle, Size: 60, Label: "start"},
		&diagram.Node{ID: "b", X: 300, Y: 200, Shape: diagram.ShapeDiamond, Size: 80, Label: "check"},
		&diagram.Node{ID: "c", X: 0, Y: 300, Shape: diagram.ShapeCircle, Size: 60},
		&diagram.Node{ID: "d", X: 500, Y: 0, Shape: diagram.ShapeRounded, Size: 60},
	)
	l, err := e.CreateLink("a", "b")
	require.NoError(t, err)
	q, _ := e.Curve(l)
	_, err = e.CreateBranch(l, "c", q.Eval(0.5))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Width, opts.Height = 320, 240
	opts.ShowHandles = true

	var buf bytes.Buffer
	require.NoError(t, PNG(e, &buf, opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestImageEmptyDiagramIsBlank(t *testing.T) {
	img, err := Image(engineWith(), DefaultOptions())
	require.NoError(t, err)

	for _, p := range [][2]int{{0, 0}, {400, 300}, {799, 599}} {
		assert.Equal(t, colorWhite, img.RGBAAt(p[0], p[1]))
	}
}

func TestImageCentresNode(t *testing.T) {
	e := engineWith(&diagram.Node{ID: "a", Shape: diagram.ShapeRectangle, Size: 60})
	img, err := Image(e, DefaultOptions())
	require.NoError(t, err)

	got := img.RGBAAt(400, 300)
	assert.InDelta(t, colorNodeFill.R, got.R, 1)
	assert.InDelta(t, colorNodeFill.G, got.G, 1)
	assert.InDelta(t, colorNodeFill.B, got.B, 1)
	assert.Equal(t, colorWhite, img.RGBAAt(5, 5))
}

func TestImageDrawsLink(t *testing.T) {
	e := engineWith(
		&diagram.Node{ID: "a", Shape: diagram.ShapeRectangle, Size: 60},
		&diagram.Node{ID: "b", X: 400, Shape: diagram.ShapeRectangle, Size: 60},
	)
	l, _ := e.CreateLink("a", "b")
	l.Control = diagram.OffsetControl(geom.V(0, 0))

	img, err := Image(e, DefaultOptions())
	require.NoError(t, err)

	// The straight link's midpoint lands on the image centre.
	assert.Less(t, img.RGBAAt(400, 300).R, uint8(200))
}

func TestImageRejectsBadSize(t *testing.T) {
	_, err := Image(engineWith(), Options{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestShapeOutlines(t *testing.T) {
	box := geom.Rect{X: 0, Y: 0, W: 100, H: 60}
	tests := []struct {
		shape  diagram.Shape
		corner bool // whether the box corner is inside the outline
		minPts int
	}{
		{diagram.ShapeRectangle, true, 4},
		{diagram.ShapeRounded, false, 36},
		{diagram.ShapeCircle, false, 72},
		{diagram.ShapeDiamond, false, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.shape), func(t *testing.T) {
			pts := shapeOutline(tt.shape, box)
			assert.GreaterOrEqual(t, len(pts), tt.minPts)
			assert.True(t, insidePolygon(pts, 50, 30), "centre is inside")
			assert.Equal(t, tt.corner, insidePolygon(pts, 0.5, 0.5))
		})
	}
}
