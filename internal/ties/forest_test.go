package ties

import (
	"errors"
	"testing"

	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(p, s string) model.TieEdge {
	return model.TieEdge{Primary: p, Secondary: s}
}

func TestChainWithoutTies(t *testing.T) {
	f, err := NewForest(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1:1:5"}, f.Chain("f1:1:5"))
}

func TestChainThreeNodes(t *testing.T) {
	f, err := NewForest([]model.TieEdge{edge("B", "C"), edge("A", "B")})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, f.Chain("A"))
	assert.Equal(t, []string{"B", "C"}, f.Chain("B"))
}

func TestChainBreadthFirstDiscoveryOrder(t *testing.T) {
	f, err := NewForest([]model.TieEdge{
		edge("A", "B"),
		edge("A", "C"),
		edge("B", "D"),
		edge("C", "E"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, f.Chain("A"))
}

func TestNilForestChain(t *testing.T) {
	var f *Forest
	assert.Equal(t, []string{"x"}, f.Chain("x"))
	assert.False(t, f.IsSecondary("x"))
	assert.Equal(t, 0, f.Len())
}

func TestDuplicateEdgesCollapse(t *testing.T) {
	f, err := NewForest([]model.TieEdge{edge("A", "B"), edge("A", "B")})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, []string{"A", "B"}, f.Chain("A"))
}

func TestRejectsMultiplePrimaries(t *testing.T) {
	_, err := NewForest([]model.TieEdge{edge("A", "C"), edge("B", "C")})
	assert.True(t, errors.Is(err, ErrMultiplePrimaries))
}

func TestRejectsSelfLoop(t *testing.T) {
	_, err := NewForest([]model.TieEdge{edge("A", "A")})
	assert.True(t, errors.Is(err, ErrCycle))
}

func TestRejectsCycle(t *testing.T) {
	_, err := NewForest([]model.TieEdge{edge("A", "B"), edge("B", "C"), edge("C", "A")})
	assert.True(t, errors.Is(err, ErrCycle))
}

func TestCycleBehindAValidChain(t *testing.T) {
	_, err := NewForest([]model.TieEdge{
		edge("X", "Y"),
		edge("B", "C"),
		edge("C", "B"),
	})
	assert.True(t, errors.Is(err, ErrCycle))
}

func TestPrimaryLookup(t *testing.T) {
	f, err := NewForest([]model.TieEdge{edge("A", "B")})
	require.NoError(t, err)

	p, ok := f.Primary("B")
	assert.True(t, ok)
	assert.Equal(t, "A", p)
	assert.True(t, f.IsSecondary("B"))
	assert.False(t, f.IsSecondary("A"))
}
