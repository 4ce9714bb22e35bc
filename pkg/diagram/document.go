package diagram

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ha1tch/linkgraph/pkg/geom"
)

// docPoint is the persisted form of a point or vector.
type docPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// document is the persisted representation of a diagram.
type document struct {
	Nodes []docNode `json:"nodes" yaml:"nodes"`
	Links []docLink `json:"links" yaml:"links"`
}

type docNode struct {
	ID    string  `json:"id" yaml:"id"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Shape string  `json:"shape,omitempty" yaml:"shape,omitempty"`
	Size  float64 `json:"sizeHint,omitempty" yaml:"sizeHint,omitempty"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
}

type docLink struct {
	ID                    string    `json:"id" yaml:"id"`
	SourceID              string    `json:"sourceId,omitempty" yaml:"sourceId,omitempty"`
	TargetID              string    `json:"targetId" yaml:"targetId"`
	ControlPoint          *docPoint `json:"controlPoint,omitempty" yaml:"controlPoint,omitempty"`
	ControlPointOffset    *docPoint `json:"controlPointOffset,omitempty" yaml:"controlPointOffset,omitempty"`
	IsBranch              bool      `json:"isBranch,omitempty" yaml:"isBranch,omitempty"`
	IsYBranch             bool      `json:"isYBranch,omitempty" yaml:"isYBranch,omitempty"`
	ParentLinkID          string    `json:"parentLinkId,omitempty" yaml:"parentLinkId,omitempty"`
	BranchAnchorPosition  *docPoint `json:"branchAnchorPosition,omitempty" yaml:"branchAnchorPosition,omitempty"`
	BranchAnchorRelativeT *float64  `json:"branchAnchorRelativeT,omitempty" yaml:"branchAnchorRelativeT,omitempty"`
	BranchAnchorOffset    *docPoint `json:"branchAnchorOffset,omitempty" yaml:"branchAnchorOffset,omitempty"`
}

func toDoc(d *Diagram) document {
	var doc document
	for _, n := range d.Nodes() {
		doc.Nodes = append(doc.Nodes, docNode{
			ID: n.ID, X: n.X, Y: n.Y, Shape: string(n.Shape), Size: n.Size, Label: n.Label,
		})
	}
	for _, l := range d.Links() {
		dl := docLink{ID: l.ID, SourceID: l.SourceID, TargetID: l.TargetID}
		if l.Cache != nil {
			dl.ControlPoint = &docPoint{l.Cache.X, l.Cache.Y}
		}
		switch l.Control.Kind {
		case ControlOffset:
			dl.ControlPointOffset = &docPoint{l.Control.Offset.X, l.Control.Offset.Y}
		case ControlExplicit:
			dl.ControlPoint = &docPoint{l.Control.Point.X, l.Control.Point.Y}
		}
		switch a := l.Anchor.(type) {
		case YAnchor:
			dl.IsYBranch = true
			dl.ParentLinkID = a.SiblingID
		case *CurveAnchor:
			dl.IsBranch = true
			dl.ParentLinkID = a.ParentID
			dl.BranchAnchorPosition = &docPoint{a.Position.X, a.Position.Y}
			if a.HasT {
				t := a.T
				dl.BranchAnchorRelativeT = &t
			}
			if a.HasOffset {
				dl.BranchAnchorOffset = &docPoint{a.Offset.X, a.Offset.Y}
			}
		}
		doc.Links = append(doc.Links, dl)
	}
	return doc
}

func fromDoc(doc document) (*Diagram, error) {
	d := New()
	for _, dn := range doc.Nodes {
		if dn.ID == "" {
			return nil, fmt.Errorf("node without id")
		}
		shape := Shape(dn.Shape)
		if shape == "" {
			shape = ShapeRectangle
		}
		if !shape.Valid() {
			return nil, fmt.Errorf("node %s: unknown shape %q", dn.ID, dn.Shape)
		}
		d.AddNode(&Node{ID: dn.ID, X: dn.X, Y: dn.Y, Shape: shape, Size: dn.Size, Label: dn.Label})
	}

	for _, dl := range doc.Links {
		if dl.ID == "" {
			return nil, fmt.Errorf("link without id")
		}
		l := &Link{ID: dl.ID, SourceID: dl.SourceID, TargetID: dl.TargetID, Anchor: NodeAnchor{}}

		// An offset is authoritative; a bare control point is converted to one
		// on first resolve.
		switch {
		case dl.ControlPointOffset != nil:
			l.Control = OffsetControl(geom.V(dl.ControlPointOffset.X, dl.ControlPointOffset.Y))
		case dl.ControlPoint != nil:
			l.Control = ExplicitControl(geom.Pt(dl.ControlPoint.X, dl.ControlPoint.Y))
		}
		if dl.ControlPoint != nil {
			p := geom.Pt(dl.ControlPoint.X, dl.ControlPoint.Y)
			l.Cache = &p
		}

		switch {
		case dl.IsBranch:
			if dl.ParentLinkID == "" {
				return nil, fmt.Errorf("link %s: branch without parentLinkId", dl.ID)
			}
			ca := &CurveAnchor{ParentID: dl.ParentLinkID}
			if dl.BranchAnchorPosition != nil {
				ca.Position = geom.Pt(dl.BranchAnchorPosition.X, dl.BranchAnchorPosition.Y)
			}
			if dl.BranchAnchorRelativeT != nil {
				ca.T, ca.HasT = *dl.BranchAnchorRelativeT, true
			}
			if dl.BranchAnchorOffset != nil {
				ca.Offset, ca.HasOffset = geom.V(dl.BranchAnchorOffset.X, dl.BranchAnchorOffset.Y), true
			}
			l.SourceID = ""
			l.Anchor = ca
		case dl.IsYBranch:
			l.Anchor = YAnchor{SiblingID: dl.ParentLinkID}
		}
		d.AddLink(l)
	}
	return d, nil
}

// ParseJSON parses a diagram document from JSON.
func ParseJSON(data []byte) (*Diagram, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

// ToJSON converts a diagram to JSON.
func ToJSON(d *Diagram, pretty bool) ([]byte, error) {
	doc := toDoc(d)
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// ParseYAML parses a diagram document from YAML.
func ParseYAML(data []byte) (*Diagram, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

// ToYAML converts a diagram to YAML.
func ToYAML(d *Diagram) ([]byte, error) {
	return yaml.Marshal(toDoc(d))
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ReadFile loads a diagram, choosing YAML or JSON by extension.
func ReadFile(path string) (*Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d *Diagram
	if isYAML(path) {
		d, err = ParseYAML(data)
	} else {
		d, err = ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}

// WriteFile saves a diagram, choosing YAML or JSON by extension.
func WriteFile(path string, d *Diagram) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = ToYAML(d)
	} else {
		data, err = ToJSON(d, true)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
