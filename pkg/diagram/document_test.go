package diagram

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/linkgraph/pkg/geom"
)

const legacyJSON = `{
  "nodes": [
    {"id": "a", "x": 0, "y": 0, "shape": "circle", "sizeHint": 60},
    {"id": "b", "x": 400, "y": 0},
    {"id": "c", "x": 200, "y": 300, "shape": "diamond"}
  ],
  "links": [
    {"id": "ab", "sourceId": "a", "targetId": "b", "controlPoint": {"x": 200, "y": 80}},
    {"id": "br", "targetId": "c", "isBranch": true, "parentLinkId": "ab",
     "branchAnchorPosition": {"x": 210, "y": 40}},
    {"id": "yb", "sourceId": "a", "targetId": "c", "isYBranch": true, "parentLinkId": "ab"}
  ]
}`

func TestParseJSONLegacyFields(t *testing.T) {
	d, err := ParseJSON([]byte(legacyJSON))
	require.NoError(t, err)

	b, ok := d.Node("b")
	require.True(t, ok)
	assert.Equal(t, ShapeRectangle, b.Shape, "missing shape defaults to rectangle")

	ab, _ := d.Link("ab")
	assert.Equal(t, ControlExplicit, ab.Control.Kind)
	assert.Equal(t, geom.Pt(200, 80), ab.Control.Point)
	assert.IsType(t, NodeAnchor{}, ab.Anchor)

	br, _ := d.Link("br")
	ca := br.Curve()
	require.NotNil(t, ca)
	assert.Equal(t, "ab", ca.ParentID)
	assert.Equal(t, geom.Pt(210, 40), ca.Position)
	assert.False(t, ca.HasT, "absent relative-t is derived lazily")
	assert.False(t, ca.HasOffset)
	assert.Empty(t, br.SourceID)

	yb, _ := d.Link("yb")
	assert.True(t, yb.IsYBranch())
	assert.False(t, yb.IsBranch())
	assert.Equal(t, YAnchor{SiblingID: "ab"}, yb.Anchor)
}

func TestDocumentRoundTripPreservesAnchorState(t *testing.T) {
	d := New()
	d.AddNode(&Node{ID: "a", Shape: ShapeCircle, Size: 40})
	d.AddNode(&Node{ID: "b", X: 300, Shape: ShapeRounded, Label: "Bee"})
	cache := geom.Pt(150, 60)
	d.AddLink(&Link{ID: "ab", SourceID: "a", TargetID: "b",
		Control: OffsetControl(geom.V(0, 40)), Cache: &cache, Anchor: NodeAnchor{}})
	d.AddLink(&Link{ID: "br", TargetID: "a", Anchor: &CurveAnchor{
		ParentID: "ab", T: 0.25, HasT: true, Position: geom.Pt(80, 30),
		Offset: geom.V(5, -5), HasOffset: true,
	}})

	for _, name := range []string{"diagram.json", "diagram.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, d))

			got, err := ReadFile(path)
			require.NoError(t, err)

			ab, _ := got.Link("ab")
			assert.Equal(t, OffsetControl(geom.V(0, 40)), ab.Control)
			require.NotNil(t, ab.Cache)
			assert.Equal(t, cache, *ab.Cache)

			br, _ := got.Link("br")
			assert.Equal(t, &CurveAnchor{
				ParentID: "ab", T: 0.25, HasT: true, Position: geom.Pt(80, 30),
				Offset: geom.V(5, -5), HasOffset: true,
			}, br.Curve())

			b, _ := got.Node("b")
			assert.Equal(t, "Bee", b.Label)
			assert.Equal(t, ShapeRounded, b.Shape)
		})
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown shape", `{"nodes":[{"id":"a","shape":"hexagon"}]}`},
		{"node id", `{"nodes":[{"x":1}]}`},
		{"link id", `{"links":[{"targetId":"a"}]}`},
		{"orphan branch", `{"links":[{"id":"l","targetId":"a","isBranch":true}]}`},
		{"syntax", `{"nodes":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDiagramOrderAndBranches(t *testing.T) {
	d := New()
	for _, id := range []string{"n3", "n1", "n2"} {
		d.AddNode(&Node{ID: id})
	}
	d.AddLink(&Link{ID: "p", SourceID: "n1", TargetID: "n2", Anchor: NodeAnchor{}})
	d.AddLink(&Link{ID: "b1", TargetID: "n3", Anchor: &CurveAnchor{ParentID: "p"}})
	d.AddLink(&Link{ID: "b2", TargetID: "n1", Anchor: &CurveAnchor{ParentID: "p"}})

	var order []string
	for _, n := range d.Nodes() {
		order = append(order, n.ID)
	}
	assert.Equal(t, []string{"n3", "n1", "n2"}, order)
	assert.Equal(t, []string{"n1", "n2", "n3"}, d.NodeIDs())
	assert.Len(t, d.Branches("p"), 2)

	assert.True(t, d.RemoveLink("b1"))
	assert.False(t, d.RemoveLink("b1"))
	assert.Len(t, d.Branches("p"), 1)

	assert.True(t, d.RemoveNode("n3"))
	assert.Len(t, d.Nodes(), 2)
}

func TestLinkClone(t *testing.T) {
	cache := geom.Pt(1, 2)
	l := &Link{ID: "l", Cache: &cache, Anchor: &CurveAnchor{ParentID: "p", T: 0.5, HasT: true}}
	c := l.Clone()

	c.Cache.X = 99
	c.Curve().T = 0.9

	assert.Equal(t, 1.0, l.Cache.X)
	assert.Equal(t, 0.5, l.Curve().T)
}

func TestDiagramClone(t *testing.T) {
	d, err := ParseJSON([]byte(legacyJSON))
	require.NoError(t, err)

	c := d.Clone()
	assert.Equal(t, d.Links(), c.Links())

	n, _ := c.Node("a")
	n.X = 500
	orig, _ := d.Node("a")
	assert.Equal(t, 0.0, orig.X)

	c.RemoveLink("ab")
	_, ok := d.Link("ab")
	assert.True(t, ok)
}
