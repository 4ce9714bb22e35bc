// Package render exports diagrams as PNG, SVG and Graphviz DOT.
// Geometry comes straight from the topology engine, so exported images show
// exactly the curves the editor resolves.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

// Options configures PNG rendering.
type Options struct {
	Width       int
	Height      int
	Padding     int
	FontSize    int
	ShowHandles bool // mark control points
}

// DefaultOptions returns sensible defaults for PNG rendering.
func DefaultOptions() Options {
	return Options{
		Width:    800,
		Height:   600,
		Padding:  40,
		FontSize: 14,
	}
}

// Colors used in rendering
var (
	colorWhite    = color.RGBA{255, 255, 255, 255}
	colorBlack    = color.RGBA{51, 51, 51, 255}    // #333
	colorBranch   = color.RGBA{21, 101, 192, 255}  // #1565c0
	colorHandle   = color.RGBA{230, 81, 0, 255}    // #e65100
	colorNodeFill = color.RGBA{227, 242, 253, 255} // #e3f2fd
	colorNodeBdr  = color.RGBA{46, 125, 50, 255}   // #2e7d32
)

// supersample is the factor images are drawn at before downsampling.
const supersample = 4

// renderContext holds rendering parameters including scale.
type renderContext struct {
	img       *image.RGBA
	scale     float64 // multiplier for line thickness, arrow size, etc.
	lineWidth float64
	face      font.Face
	zoom      float64  // world units to pixels
	off       geom.Vec // pixel offset after zoom
}

func newRenderContext(img *image.RGBA, scale int, fontSize int) (*renderContext, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(fontSize * scale),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	return &renderContext{
		img:       img,
		scale:     float64(scale),
		lineWidth: float64(scale) * 2,
		face:      face,
		zoom:      1,
	}, nil
}

// px maps a world point to image pixels.
func (ctx *renderContext) px(p geom.Point) geom.Point {
	return geom.Pt(p.X*ctx.zoom, p.Y*ctx.zoom).Add(ctx.off)
}

// fit centres bounds in a w x h image, shrinking to leave pad on each side.
// Diagrams are never enlarged.
func (ctx *renderContext) fit(bounds geom.Rect, w, h, pad float64) {
	zoom := ctx.scale
	if bounds.W > 0 && w-2*pad > 0 {
		zoom = math.Min(zoom, (w-2*pad)/bounds.W)
	}
	if bounds.H > 0 && h-2*pad > 0 {
		zoom = math.Min(zoom, (h-2*pad)/bounds.H)
	}
	c := bounds.Center()
	ctx.zoom = zoom
	ctx.off = geom.V(w/2-c.X*zoom, h/2-c.Y*zoom)
}

// PNG renders the engine's diagram to w as a PNG.
// Uses 4x supersampling for smoother output.
func PNG(e *topology.Engine, w io.Writer, opts Options) error {
	img, err := Image(e, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Image renders the engine's diagram at opts.Width x opts.Height.
func Image(e *topology.Engine, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultOptions().FontSize
	}

	large := image.NewRGBA(image.Rect(0, 0, opts.Width*supersample, opts.Height*supersample))
	ctx, err := newRenderContext(large, supersample, opts.FontSize)
	if err != nil {
		return nil, err
	}
	draw.Draw(large, large.Bounds(), image.NewUniform(colorWhite), image.Point{}, draw.Src)

	if bounds, ok := contentBounds(e); ok {
		ctx.fit(bounds,
			float64(opts.Width*supersample),
			float64(opts.Height*supersample),
			float64(opts.Padding*supersample))
		drawDiagram(ctx, e, opts)
	}

	final := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)
	return final, nil
}

// contentBounds covers every node box and every curve's control hull.
func contentBounds(e *topology.Engine) (geom.Rect, bool) {
	var pts []geom.Point
	m := e.Measurer()
	for _, n := range e.Diagram().Nodes() {
		b := diagram.Bounds(n, m)
		pts = append(pts, geom.Pt(b.X, b.Y), geom.Pt(b.X+b.W, b.Y+b.H))
	}
	for _, l := range e.Diagram().Links() {
		if q, ok := e.Curve(l); ok {
			pts = append(pts, q.P0, q.P1, q.P2)
		}
	}
	if len(pts) == 0 {
		return geom.Rect{}, false
	}
	return geom.Bounds(pts...), true
}

func drawDiagram(ctx *renderContext, e *topology.Engine, opts Options) {
	// Links first so node fills sit on top of curve ends.
	for _, l := range e.Diagram().Links() {
		q, ok := e.Curve(l)
		if !ok {
			continue
		}
		c := colorBlack
		if l.IsBranch() {
			c = colorBranch
		}
		drawQuadBezierArrow(ctx, ctx.px(q.P0), ctx.px(q.P1), ctx.px(q.P2), c)
		if l.IsBranch() {
			drawDot(ctx, ctx.px(q.P0), 3*ctx.scale, colorBranch)
		}
		if opts.ShowHandles {
			drawDot(ctx, ctx.px(q.P1), 3*ctx.scale, colorHandle)
		}
	}

	m := e.Measurer()
	for _, n := range e.Diagram().Nodes() {
		outline := shapeOutline(n.Shape, diagram.Bounds(n, m))
		for i := range outline {
			outline[i] = ctx.px(outline[i])
		}
		fillPolygon(ctx, outline, colorNodeFill)
		drawPolyline(ctx, outline, true, colorNodeBdr)

		label := n.Label
		if label == "" {
			continue
		}
		c := ctx.px(diagram.Center(n, m))
		drawTextCentered(ctx, int(c.X), int(c.Y), label, colorBlack)
	}
}

// shapeOutline returns the closed outline of a node shape within box.
func shapeOutline(shape diagram.Shape, box geom.Rect) []geom.Point {
	c := box.Center()
	hw, hh := box.W/2, box.H/2
	switch shape {
	case diagram.ShapeCircle:
		const steps = 72
		pts := make([]geom.Point, steps)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / steps
			pts[i] = geom.Pt(c.X+hw*math.Cos(a), c.Y+hh*math.Sin(a))
		}
		return pts
	case diagram.ShapeDiamond:
		return []geom.Point{
			geom.Pt(c.X, c.Y-hh), geom.Pt(c.X+hw, c.Y),
			geom.Pt(c.X, c.Y+hh), geom.Pt(c.X-hw, c.Y),
		}
	case diagram.ShapeRounded:
		r := math.Min(hw, hh) * 0.25
		corners := []struct {
			sx, sy float64
			start  float64
		}{
			{1, -1, -math.Pi / 2},
			{1, 1, 0},
			{-1, 1, math.Pi / 2},
			{-1, -1, math.Pi},
		}
		const arcSteps = 8
		var pts []geom.Point
		for _, k := range corners {
			cc := geom.Pt(c.X+k.sx*(hw-r), c.Y+k.sy*(hh-r))
			for i := 0; i <= arcSteps; i++ {
				a := k.start + math.Pi/2*float64(i)/arcSteps
				pts = append(pts, geom.Pt(cc.X+r*math.Cos(a), cc.Y+r*math.Sin(a)))
			}
		}
		return pts
	}
	return []geom.Point{
		geom.Pt(box.X, box.Y), geom.Pt(box.X+box.W, box.Y),
		geom.Pt(box.X+box.W, box.Y+box.H), geom.Pt(box.X, box.Y+box.H),
	}
}

// fillPolygon fills a simple polygon using even-odd scanlines.
func fillPolygon(ctx *renderContext, pts []geom.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	b := geom.Bounds(pts...)
	for y := int(math.Floor(b.Y)); y <= int(math.Ceil(b.Y+b.H)); y++ {
		sy := float64(y) + 0.5
		for x := int(math.Floor(b.X)); x <= int(math.Ceil(b.X+b.W)); x++ {
			if insidePolygon(pts, float64(x)+0.5, sy) {
				ctx.img.Set(x, y, c)
			}
		}
	}
}

func insidePolygon(pts []geom.Point, x, y float64) bool {
	in := false
	j := len(pts) - 1
	for i := range pts {
		pi, pj := pts[i], pts[j]
		if (pi.Y > y) != (pj.Y > y) && x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			in = !in
		}
		j = i
	}
	return in
}

func drawPolyline(ctx *renderContext, pts []geom.Point, closed bool, c color.Color) {
	for i := 1; i < len(pts); i++ {
		drawLine(ctx, pts[i-1], pts[i], c)
	}
	if closed && len(pts) > 2 {
		drawLine(ctx, pts[len(pts)-1], pts[0], c)
	}
}

// drawLine draws a line between two points with thickness from context.
func drawLine(ctx *renderContext, a, b geom.Point, c color.Color) {
	img := ctx.img
	halfThick := ctx.lineWidth / 2

	d := b.Sub(a)
	dist := d.Hypot()
	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(a.X+tx), int(a.Y+ty), c)
			}
		}
		return
	}

	steps := math.Max(math.Abs(d.X), math.Abs(d.Y))
	perp := geom.V(-d.Y/dist, d.X/dist)
	for i := 0.0; i <= steps; i++ {
		p := a.Lerp(b, i/steps)
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(p.X+perp.X*offset), int(p.Y+perp.Y*offset), c)
		}
	}
}

// drawDot draws a filled disc.
func drawDot(ctx *renderContext, p geom.Point, r float64, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				ctx.img.Set(int(p.X+dx), int(p.Y+dy), c)
			}
		}
	}
}

// drawQuadBezierArrow draws a quadratic Bezier curve with an arrowhead at p2.
func drawQuadBezierArrow(ctx *renderContext, p0, cp, p2 geom.Point, c color.Color) {
	q := geom.Quad(p0, cp, p2)
	const steps = 100
	prev := p0
	for i := 1; i <= steps; i++ {
		cur := q.Eval(float64(i) / steps)
		drawLine(ctx, prev, cur, c)
		prev = cur
	}

	tan := q.Tangent(1)
	if tan.Hypot() < 1 {
		tan = p2.Sub(p0)
		if tan.Hypot() < 1 {
			return
		}
	}
	n := tan.Normalize()

	arrowLen := 8.0 * ctx.scale
	arrowWidth := 4.0 * ctx.scale
	base := p2.Add(n.Mul(-arrowLen))
	w1 := base.Add(geom.V(n.Y, -n.X).Mul(arrowWidth))
	w2 := base.Add(geom.V(-n.Y, n.X).Mul(arrowWidth))
	fillPolygon(ctx, []geom.Point{p2, w1, w2}, c)
	drawPolyline(ctx, []geom.Point{p2, w1, w2}, true, c)
}

// drawTextCentered draws text centred at the given position using Go Regular.
func drawTextCentered(ctx *renderContext, x, y int, text string, c color.Color) {
	width := font.MeasureString(ctx.face, text).Ceil()
	ascent := ctx.face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  ctx.img,
		Src:  image.NewUniform(c),
		Face: ctx.face,
		Dot: fixed.Point26_6{
			X: fixed.I(x - width/2),
			Y: fixed.I(y + int(float64(ascent)*0.35)),
		},
	}
	d.DrawString(text)
}
