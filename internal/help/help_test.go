package help

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphOpensIndexByDefault(t *testing.T) {
	g := NewGraph(IndexID)
	assert.Equal(t, IndexID, g.CurrentID())
	assert.Equal(t, "Help", g.CurrentTitle())
}

func TestNewGraphOpensUnknownIDFallsBackToIndex(t *testing.T) {
	g := NewGraph("does-not-exist")
	assert.Equal(t, IndexID, g.CurrentID())
}

func TestFollowLinkNavigatesAndBackReturns(t *testing.T) {
	g := NewGraph(IndexID)
	g.SelectNextLink()
	require.NotEqual(t, -1, g.SelectedLink())

	g.Follow()
	assert.NotEqual(t, IndexID, g.CurrentID())

	g.Back()
	assert.Equal(t, IndexID, g.CurrentID())
}

func TestSelectNextLinkWrapsAround(t *testing.T) {
	g := NewGraph(IndexID)
	n := len(g.nodes[g.current].links)
	require.Greater(t, n, 1)
	for i := 0; i < n; i++ {
		g.SelectNextLink()
	}
	assert.Equal(t, 0, g.SelectedLink())
}

func TestMoveLinesClampsToRange(t *testing.T) {
	g := NewGraph(IndexID)
	g.MoveLines(-5)
	assert.Equal(t, 0, g.Scroll())

	g.MoveLines(10000)
	assert.Equal(t, len(g.Lines())-1, g.Scroll())
}

func TestTopicForContextMapsKnownRoutes(t *testing.T) {
	assert.Equal(t, "viewer", TopicForContext("Viewer"))
	assert.Equal(t, "jobs", TopicForContext("Jobs"))
	assert.Equal(t, "file-manager", TopicForContext("FileManager"))
	assert.Equal(t, "file-manager", TopicForContext("Unknown"))
}

func TestOpenSameNodeIsNoOp(t *testing.T) {
	g := NewGraph(IndexID)
	g.Open(IndexID)
	assert.Empty(t, g.history)
}
