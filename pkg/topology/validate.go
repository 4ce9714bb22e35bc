package topology

import (
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/diagram"
)

// Report lists the problems found by a validation pass.
type Report struct {
	Dangling []string // links with a missing source or target node
	Static   []string // branches whose parent link is missing
}

// OK reports whether nothing needs attention.
func (r Report) OK() bool {
	return len(r.Dangling) == 0 && len(r.Static) == 0
}

// Validate inspects the diagram without changing it.
func (e *Engine) Validate() Report {
	var r Report
	dangling := make(map[string]bool)
	for _, l := range e.d.Links() {
		if e.dangling(l) {
			r.Dangling = append(r.Dangling, l.ID)
			dangling[l.ID] = true
		}
	}
	for _, l := range e.d.Links() {
		ca := l.Curve()
		if ca == nil || dangling[l.ID] {
			continue
		}
		if _, ok := e.d.Link(ca.ParentID); !ok || dangling[ca.ParentID] {
			r.Static = append(r.Static, l.ID)
		}
	}
	return r
}

func (e *Engine) dangling(l *diagram.Link) bool {
	if _, ok := e.d.Node(l.TargetID); !ok {
		return true
	}
	if l.IsBranch() {
		return false
	}
	_, ok := e.d.Node(l.SourceID)
	return !ok
}

// Cleanup removes dangling links and reports them. Branches that lose their
// parent stay in place at their last anchor position, since the parent may
// come back.
func (e *Engine) Cleanup() Report {
	r := e.Validate()
	for _, id := range r.Dangling {
		e.d.RemoveLink(id)
		e.notifyRemoved(id)
		e.log.Debug("removed dangling link", zap.String("link", id))
	}
	for _, id := range r.Static {
		e.log.Debug("branch parent missing, anchor kept static", zap.String("link", id))
	}
	return r
}
