package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fuzzyClasses = []string{"AliasOf", "DeprecatedBy"}

func TestResolveTraversals_Empty(t *testing.T) {
	seqs, err := ResolveTraversals(TraversalInput{}, fuzzyClasses)
	require.NoError(t, err)
	assert.Empty(t, seqs)
}

func TestResolveTraversals_Ancestors(t *testing.T) {
	seqs, err := ResolveTraversals(TraversalInput{
		Ancestors:  []string{"SubClassOf"},
		ActiveOnly: true,
	}, fuzzyClasses)
	require.NoError(t, err)

	require.Len(t, seqs, 1)
	require.Len(t, seqs[0], 1)
	hop := seqs[0][0]
	assert.Equal(t, DirectionIn, hop.Direction)
	assert.Equal(t, Unbounded, hop.Depth)
	assert.Equal(t, []string{"SubClassOf"}, hop.EdgeClasses)
	assert.True(t, hop.ActiveOnly)
}

func TestResolveTraversals_Descendants(t *testing.T) {
	seqs, err := ResolveTraversals(TraversalInput{
		Descendants: []string{"SubClassOf"},
	}, fuzzyClasses)
	require.NoError(t, err)

	require.Len(t, seqs, 1)
	assert.Equal(t, DirectionOut, seqs[0][0].Direction)
}

func TestResolveTraversals_FuzzyAlone(t *testing.T) {
	seqs, err := ResolveTraversals(TraversalInput{FuzzyMatch: 2}, fuzzyClasses)
	require.NoError(t, err)

	require.Len(t, seqs, 1)
	require.Len(t, seqs[0], 1)
	hop := seqs[0][0]
	assert.Equal(t, DirectionBoth, hop.Direction)
	assert.Equal(t, 2, hop.Depth)
	assert.Equal(t, fuzzyClasses, hop.EdgeClasses)
}

func TestResolveTraversals_FuzzySplicedAroundHops(t *testing.T) {
	seqs, err := ResolveTraversals(TraversalInput{
		Ancestors:   []string{"SubClassOf"},
		Descendants: []string{"SubClassOf"},
		FuzzyMatch:  1,
	}, fuzzyClasses)
	require.NoError(t, err)

	require.Len(t, seqs, 2)
	for _, seq := range seqs {
		require.Len(t, seq, 3)
		assert.Equal(t, DirectionBoth, seq[0].Direction)
		assert.Equal(t, DirectionBoth, seq[2].Direction)
		assert.NotEqual(t, DirectionBoth, seq[1].Direction)
	}
}

func TestResolveTraversals_NegativeFuzzy(t *testing.T) {
	_, err := ResolveTraversals(TraversalInput{FuzzyMatch: -1}, fuzzyClasses)
	assert.Error(t, err)
}

func TestNewFollow_BothRequiresBound(t *testing.T) {
	_, err := NewFollow([]string{"AliasOf"}, DirectionBoth, Unbounded, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finite depth")
}

func TestNewFollow_Validation(t *testing.T) {
	_, err := NewFollow(nil, DirectionIn, Unbounded, false)
	assert.Error(t, err)

	_, err = NewFollow([]string{"AliasOf"}, Direction("sideways"), 1, false)
	assert.Error(t, err)

	_, err = NewFollow([]string{"AliasOf"}, DirectionIn, -2, false)
	assert.Error(t, err)
}
