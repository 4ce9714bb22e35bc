package render

import (
	"fmt"
	"strings"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/geom"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

// pointsPerInch converts world units, read as points, to Graphviz inches.
const pointsPerInch = 72.0

// DOT converts the engine's diagram to Graphviz DOT. Node positions and edge
// splines are pinned, so `neato -n2` reproduces the editor's geometry.
// Branches start at a point node placed on their parent curve.
func DOT(e *topology.Engine, title string) string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=11, fixedsize=true];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	// Title
	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	// Nodes
	m := e.Measurer()
	for _, n := range e.Diagram().Nodes() {
		b := diagram.Bounds(n, m)
		attrs := []string{
			dotShape(n.Shape),
			fmt.Sprintf("pos=\"%s!\"", dotPos(b.Center())),
			fmt.Sprintf("width=%.3f", b.W/pointsPerInch),
			fmt.Sprintf("height=%.3f", b.H/pointsPerInch),
		}
		if n.Label != "" && n.Label != n.ID {
			attrs = append(attrs, fmt.Sprintf("label=\"%s\"", escapeDOT(n.Label)))
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" [%s];\n", escapeDOT(n.ID), strings.Join(attrs, ", ")))
	}
	sb.WriteString("\n")

	// Edges
	for _, l := range e.Diagram().Links() {
		q, ok := e.Curve(l)
		if !ok {
			continue
		}
		from := l.SourceID
		var attrs []string
		if l.IsBranch() {
			from = "__anchor_" + l.ID
			sb.WriteString(fmt.Sprintf("    \"%s\" [shape=point, width=0.05, pos=\"%s!\"];\n",
				escapeDOT(from), dotPos(q.P0)))
			attrs = append(attrs, "color=\"#1565c0\"")
		}
		attrs = append(attrs, fmt.Sprintf("pos=\"%s\"", dotSpline(q)), fmt.Sprintf("id=\"%s\"", escapeDOT(l.ID)))
		sb.WriteString(fmt.Sprintf("    \"%s\" -> \"%s\" [%s];\n",
			escapeDOT(from), escapeDOT(l.TargetID), strings.Join(attrs, ", ")))
	}

	sb.WriteString("}\n")

	return sb.String()
}

func dotShape(s diagram.Shape) string {
	switch s {
	case diagram.ShapeCircle:
		return "shape=circle"
	case diagram.ShapeDiamond:
		return "shape=diamond"
	case diagram.ShapeRounded:
		return "shape=box, style=rounded"
	}
	return "shape=box"
}

// dotPos formats p in Graphviz coordinates, where y grows upward.
func dotPos(p geom.Point) string {
	return fmt.Sprintf("%.1f,%.1f", p.X, 0-p.Y)
}

// dotSpline elevates the quadratic to the single cubic segment Graphviz
// expects in an edge pos.
func dotSpline(q geom.QuadBez) string {
	c1 := q.P0.Add(q.P1.Sub(q.P0).Mul(2.0 / 3))
	c2 := q.P2.Add(q.P1.Sub(q.P2).Mul(2.0 / 3))
	return strings.Join([]string{dotPos(q.P0), dotPos(c1), dotPos(c2), dotPos(q.P2)}, " ")
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "<", "\\<")
	s = strings.ReplaceAll(s, ">", "\\>")
	return s
}
