package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

// SVGOptions controls SVG rendering.
type SVGOptions struct {
	Width       int    // canvas width in pixels
	Height      int    // canvas height in pixels
	Title       string // diagram title
	FontSize    int    // font size for node labels
	TitleSize   int    // font size for title (0 = FontSize + 4)
	Padding     int    // padding around edges
	ShowHandles bool   // mark control points
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:    800,
		Height:   600,
		FontSize: 14,
		Padding:  40,
	}
}

// maxSVGScale caps how far a small diagram is enlarged.
const maxSVGScale = 1.5

// SVG renders the engine's diagram as a standalone SVG document. Curves are
// emitted as quadratic paths with the engine's resolved control points.
func SVG(e *topology.Engine, opts SVGOptions) string {
	def := DefaultSVGOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.TitleSize <= 0 {
		opts.TitleSize = opts.FontSize + 4
	}

	titleSpace := 0.0
	if opts.Title != "" {
		titleSpace = 35
	}

	// World to canvas transform
	scale, off := 1.0, geom.V(0, titleSpace)
	if bounds, ok := contentBounds(e); ok {
		availW := float64(opts.Width - 2*opts.Padding)
		availH := float64(opts.Height-2*opts.Padding) - titleSpace
		scale = maxSVGScale
		if bounds.W > 0 && availW > 0 {
			scale = math.Min(scale, availW/bounds.W)
		}
		if bounds.H > 0 && availH > 0 {
			scale = math.Min(scale, availH/bounds.H)
		}
		c := bounds.Center()
		off = geom.V(float64(opts.Width)/2-c.X*scale, titleSpace+(float64(opts.Height)-titleSpace)/2-c.Y*scale)
	}
	tr := func(p geom.Point) geom.Point {
		return geom.Pt(p.X*scale, p.Y*scale).Add(off)
	}

	var sb strings.Builder

	// SVG header
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs>
  <marker id="arrowhead" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">
    <polygon points="0 0, 10 3.5, 0 7" fill="#333"/>
  </marker>
  <marker id="arrowhead-branch" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">
    <polygon points="0 0, 10 3.5, 0 7" fill="#1565c0"/>
  </marker>
</defs>
<style>
  .node { fill: #e3f2fd; stroke: #2e7d32; stroke-width: 2; }
  .node-label { font-family: sans-serif; font-size: %dpx; text-anchor: middle; dominant-baseline: middle; }
  .link { fill: none; stroke: #333; stroke-width: 1.5; marker-end: url(#arrowhead); }
  .branch { fill: none; stroke: #1565c0; stroke-width: 1.5; marker-end: url(#arrowhead-branch); }
  .anchor { fill: #1565c0; }
  .handle { fill: #e65100; }
  .title { font-family: sans-serif; font-size: %dpx; font-weight: bold; text-anchor: middle; }
</style>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.FontSize, opts.TitleSize))

	// Background
	sb.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>
`, opts.Width, opts.Height))

	// Title
	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="25" class="title">%s</text>
`, opts.Width/2, html.EscapeString(opts.Title)))
	}

	// Links first (under nodes)
	for _, l := range e.Diagram().Links() {
		q, ok := e.Curve(l)
		if !ok {
			continue
		}
		p0, c, p2 := tr(q.P0), tr(q.P1), tr(q.P2)
		class := "link"
		if l.IsBranch() {
			class = "branch"
		}
		sb.WriteString(fmt.Sprintf(`<path id="%s" d="M%.1f,%.1f Q%.1f,%.1f %.1f,%.1f" class="%s"/>
`, html.EscapeString(l.ID), p0.X, p0.Y, c.X, c.Y, p2.X, p2.Y, class))
		if l.IsBranch() {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" class="anchor"/>
`, p0.X, p0.Y))
		}
		if opts.ShowHandles {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" class="handle"/>
`, c.X, c.Y))
		}
	}

	// Nodes
	m := e.Measurer()
	for _, n := range e.Diagram().Nodes() {
		b := diagram.Bounds(n, m)
		tl := tr(geom.Pt(b.X, b.Y))
		w, h := b.W*scale, b.H*scale
		ctr := tr(b.Center())

		switch n.Shape {
		case diagram.ShapeCircle:
			sb.WriteString(fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" class="node"/>
`, ctr.X, ctr.Y, w/2, h/2))
		case diagram.ShapeDiamond:
			points := fmt.Sprintf("%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f",
				ctr.X, tl.Y, // top
				tl.X+w, ctr.Y, // right
				ctr.X, tl.Y+h, // bottom
				tl.X, ctr.Y) // left
			sb.WriteString(fmt.Sprintf(`<polygon points="%s" class="node"/>
`, points))
		case diagram.ShapeRounded:
			rx := math.Min(w, h) * 0.25
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" class="node"/>
`, tl.X, tl.Y, w, h, rx))
		default:
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" class="node"/>
`, tl.X, tl.Y, w, h))
		}

		if n.Label != "" {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="node-label">%s</text>
`, ctr.X, ctr.Y, html.EscapeString(n.Label)))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
