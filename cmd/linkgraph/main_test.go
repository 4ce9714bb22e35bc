package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
)

// run executes the CLI with args and an isolated config directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDiagram(t *testing.T, name string, d *diagram.Diagram) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, diagram.WriteFile(path, d))
	return path
}

func sample() *diagram.Diagram {
	d := diagram.New()
	d.AddNode(&diagram.Node{ID: "a", Shape: diagram.ShapeRectangle, Size: 60, Label: "start"})
	d.AddNode(&diagram.Node{ID: "b", X: 400, Shape: diagram.ShapeDiamond, Size: 60})
	d.AddNode(&diagram.Node{ID: "c", X: 200, Y: 300, Shape: diagram.ShapeCircle, Size: 60})
	d.AddLink(&diagram.Link{ID: "ab", SourceID: "a", TargetID: "b",
		Control: diagram.OffsetControl(geom.V(0, 40)), Anchor: diagram.NodeAnchor{}})
	d.AddLink(&diagram.Link{ID: "br", TargetID: "c", Control: diagram.DefaultControl(),
		Anchor: &diagram.CurveAnchor{ParentID: "ab", T: 0.5, HasT: true, Position: geom.Pt(260, 50)}})
	return d
}

func TestInfo(t *testing.T) {
	path := writeDiagram(t, "d.json", sample())
	out, err := run(t, "info", path)
	require.NoError(t, err)

	assert.Contains(t, out, "3 (1 circle, 1 diamond, 1 rectangle)")
	assert.Contains(t, out, "ab")
	assert.Contains(t, out, "a -> b")
	assert.Contains(t, out, "ab@0.50 -> c")
	assert.Contains(t, out, "offset")
}

func TestValidate(t *testing.T) {
	path := writeDiagram(t, "d.yaml", sample())
	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	d := sample()
	d.RemoveNode("b")
	path = writeDiagram(t, "broken.yaml", d)

	out, err = run(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "ab: source or target node missing")

	_, err = run(t, "validate", "--write", path)
	require.NoError(t, err)
	fixed, err := diagram.ReadFile(path)
	require.NoError(t, err)
	_, ok := fixed.Link("ab")
	assert.False(t, ok)
	_, ok = fixed.Link("br")
	assert.True(t, ok, "orphaned branches are kept")
}

func TestConvert(t *testing.T) {
	in := writeDiagram(t, "d.json", sample())
	out := filepath.Join(t.TempDir(), "d.yml")
	_, err := run(t, "convert", in, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(strings.TrimSpace(string(data)), "{"))

	d, err := diagram.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, d.Nodes(), 3)
	assert.Len(t, d.Links(), 2)
}

func TestRenderFormats(t *testing.T) {
	in := writeDiagram(t, "d.json", sample())
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "d.png")
	_, err := run(t, "render", "--width", "200", "--height", "100", in, pngPath)
	require.NoError(t, err)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	svgPath := filepath.Join(dir, "d.svg")
	_, err = run(t, "render", "--title", "Sample", in, svgPath)
	require.NoError(t, err)
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Sample")

	dotPath := filepath.Join(dir, "d.dot")
	_, err = run(t, "render", in, dotPath)
	require.NoError(t, err)
	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"__anchor_br" -> "c"`)

	_, err = run(t, "render", in, filepath.Join(dir, "d.bmp"))
	assert.ErrorContains(t, err, "unknown output format")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lg.toml")
	out, err := run(t, "-c", path, "config", "--init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	out, err = run(t, "-c", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "offset_limit")

	_, err = run(t, "-c", path, "config", "--init")
	assert.ErrorContains(t, err, "already exists")
}

func TestMissingConfigIsAnError(t *testing.T) {
	in := writeDiagram(t, "d.json", sample())
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "nope.toml"), "info", in)
	assert.Error(t, err)
}
