package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
)

func testNormalizer() *Normalizer {
	return &Normalizer{MaxLimit: 1000, MaxNeighbors: 4, MinWordLength: 4}
}

func TestFlattenParams_RecoversLeafSet(t *testing.T) {
	params := map[string]any{
		"name": "melanoma",
		"source": map[string]any{
			"name":    "disease ontology",
			"version": "2024",
		},
		"subsets": []string{"a", "b"},
	}

	flat := FlattenParams(params)

	assert.Equal(t, map[string]any{
		"name":           "melanoma",
		"source.name":    "disease ontology",
		"source.version": "2024",
		"subsets":        []string{"a", "b"},
	}, flat)

	// Regrouping by path recovers the original leaf set.
	regrouped := make(map[string]any)
	for path, value := range flat {
		parts := strings.Split(path, ".")
		node := regrouped
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	assert.Equal(t, params, regrouped)
}

func TestParseValue_NegatedEquality(t *testing.T) {
	cond, err := testNormalizer().ParseValue("name", "!red")
	require.NoError(t, err)

	cmp, ok := cond.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, "red", cmp.Value)
	assert.Equal(t, OpEquals, cmp.Operator)
	assert.True(t, cmp.Negate)
}

func TestParseValue_OrAlternatives(t *testing.T) {
	cond, err := testNormalizer().ParseValue("name", "red|blue")
	require.NoError(t, err)

	clause, ok := cond.(*Clause)
	require.True(t, ok)
	assert.Equal(t, LogicOr, clause.Operator)
	require.Len(t, clause.Children, 2)
	assert.Equal(t, "red", clause.Children[0].(*Comparison).Value)
	assert.Equal(t, "blue", clause.Children[1].(*Comparison).Value)
}

func TestParseValue_ShortSearchTerm(t *testing.T) {
	_, err := testNormalizer().ParseValue("name", "~ab")
	require.Error(t, err)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestParseValue_MultiTokenContains(t *testing.T) {
	cond, err := testNormalizer().ParseValue("name", "~abcd efgh")
	require.NoError(t, err)

	clause, ok := cond.(*Clause)
	require.True(t, ok)
	assert.Equal(t, LogicAnd, clause.Operator)
	require.Len(t, clause.Children, 2)
	for _, child := range clause.Children {
		assert.Equal(t, OpContainsText, child.(*Comparison).Operator)
	}
}

func TestParseValue_MultiTokenShortToken(t *testing.T) {
	_, err := testNormalizer().ParseValue("name", "~abcd ef")
	require.Error(t, err)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestParseValue_NullLiteral(t *testing.T) {
	cond, err := testNormalizer().ParseValue("deletedAt", "null")
	require.NoError(t, err)
	cmp := cond.(*Comparison)
	assert.Nil(t, cmp.Value)
	assert.False(t, cmp.Negate)
}

func TestParseValue_EmptyAlternative(t *testing.T) {
	_, err := testNormalizer().ParseValue("name", "")
	require.Error(t, err)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestNormalize_ControlKeyClamps(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name   string
		params map[string]any
		check  func(t *testing.T, d Directives)
	}{
		{
			name:   "limit above max",
			params: map[string]any{"limit": "5000"},
			check:  func(t *testing.T, d Directives) { assert.Equal(t, 1000, d.Limit) },
		},
		{
			name:   "limit below min",
			params: map[string]any{"limit": "0"},
			check:  func(t *testing.T, d Directives) { assert.Equal(t, 1, d.Limit) },
		},
		{
			name:   "negative skip",
			params: map[string]any{"skip": "-3"},
			check:  func(t *testing.T, d Directives) { assert.Equal(t, 0, d.Skip) },
		},
		{
			name:   "neighbors above max",
			params: map[string]any{"neighbors": "9"},
			check:  func(t *testing.T, d Directives) { assert.Equal(t, 4, d.Neighbors) },
		},
		{
			name:   "name lists",
			params: map[string]any{"returnProperties": "name, sourceId", "or": "name,sourceId"},
			check: func(t *testing.T, d Directives) {
				assert.Equal(t, []string{"name", "sourceId"}, d.ReturnProperties)
				assert.Equal(t, []string{"name", "sourceId"}, d.Or)
			},
		},
		{
			name:   "booleans",
			params: map[string]any{"activeOnly": "false", "compoundSyntax": "true"},
			check: func(t *testing.T, d Directives) {
				assert.False(t, d.ActiveOnly)
				assert.True(t, d.CompoundSyntax)
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, directives, err := n.Normalize(tc.params)
			require.NoError(t, err)
			tc.check(t, directives)
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	_, directives, err := testNormalizer().Normalize(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1000, directives.Limit)
	assert.True(t, directives.ActiveOnly)
	assert.Equal(t, 0, directives.Neighbors)
}

func TestNormalize_DuplicatedParameter(t *testing.T) {
	_, _, err := testNormalizer().Normalize(map[string]any{
		"name": []string{"red", "blue"},
	})
	require.Error(t, err)
	assert.True(t, gkerr.IsAttribute(err))
}

func TestNormalize_PredicatesParsed(t *testing.T) {
	conds, _, err := testNormalizer().Normalize(map[string]any{
		"name":  "red|blue",
		"limit": "10",
		"source": map[string]any{
			"name": "hgnc",
		},
	})
	require.NoError(t, err)
	require.Len(t, conds, 2)
	assert.IsType(t, &Clause{}, conds["name"])
	assert.IsType(t, &Comparison{}, conds["source.name"])
}

func TestNormalize_CompoundSyntaxTrimsPlainKeys(t *testing.T) {
	// Dotted keys are normalized unconditionally.
	conds, _, err := testNormalizer().Normalize(map[string]any{
		"source": map[string]any{" name ": "hgnc"},
	})
	require.NoError(t, err)
	_, ok := conds["source.name"]
	assert.True(t, ok)

	// Plain keys pass through untouched by default.
	conds, _, err = testNormalizer().Normalize(map[string]any{" name ": "red"})
	require.NoError(t, err)
	_, ok = conds[" name "]
	assert.True(t, ok)

	// The flag extends segment trimming to plain keys.
	conds, dirs, err := testNormalizer().Normalize(map[string]any{
		"compoundSyntax": "true",
		" name ":         "red",
	})
	require.NoError(t, err)
	assert.True(t, dirs.CompoundSyntax)
	_, ok = conds["name"]
	assert.True(t, ok)
}

func TestNormalize_BadControlValue(t *testing.T) {
	_, _, err := testNormalizer().Normalize(map[string]any{"limit": "ten"})
	require.Error(t, err)
	assert.True(t, gkerr.IsAttribute(err))
}
