package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/linkgraph/pkg/geom"
)

func TestCleanupRemovesDanglingLinks(t *testing.T) {
	e, parent := straightParent(t)
	branch, _ := e.CreateBranch(parent, "c", geom.Pt(318, 30))
	ac, _ := e.CreateLink("a", "c")

	var removed []string
	e.OnRemove(func(id string) { removed = append(removed, id) })

	report, err := e.DeleteNode("b")
	require.NoError(t, err)

	assert.Equal(t, []string{parent.ID}, report.Dangling)
	assert.Equal(t, []string{branch.ID}, report.Static)
	assert.Equal(t, []string{parent.ID}, removed)

	_, ok := e.Diagram().Link(parent.ID)
	assert.False(t, ok)
	_, ok = e.Diagram().Link(ac.ID)
	assert.True(t, ok)
}

func TestMissingParentDegradesToStatic(t *testing.T) {
	e, parent := straightParent(t)
	branch, _ := e.CreateBranch(parent, "c", geom.Pt(318, 30))
	require.NoError(t, e.DeleteLink(parent.ID))

	report := e.Validate()
	assert.Empty(t, report.Dangling)
	assert.Equal(t, []string{branch.ID}, report.Static)
	assert.False(t, report.OK())

	// Still drawable from its last anchor, and untouched by node moves.
	start, _, ok := e.Endpoints(branch)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(318, 30), start)

	require.NoError(t, e.MoveNode("a", -200, 0, nil))
	assert.Equal(t, geom.Pt(318, 30), branch.Curve().Position)

	// Cleanup keeps it.
	e.Cleanup()
	_, ok = e.Diagram().Link(branch.ID)
	assert.True(t, ok)
}

func TestCleanupBranchWithMissingTarget(t *testing.T) {
	e, parent := straightParent(t)
	branch, _ := e.CreateBranch(parent, "c", geom.Pt(318, 30))

	report, err := e.DeleteNode("c")
	require.NoError(t, err)
	assert.Equal(t, []string{branch.ID}, report.Dangling)
	assert.Empty(t, report.Static)

	_, _, ok := e.Endpoints(parent)
	assert.True(t, ok)
}

func TestDeleteErrors(t *testing.T) {
	e, _ := straightParent(t)

	assert.ErrorIs(t, e.DeleteLink("nope"), ErrLinkNotFound)
	_, err := e.DeleteNode("nope")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.ErrorIs(t, e.MoveNode("nope", 0, 0, nil), ErrNodeNotFound)
	assert.True(t, e.Validate().OK())
}
