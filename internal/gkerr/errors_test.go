package gkerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := Attribute("name", "unknown attribute for class %s", "Disease")
	assert.Equal(t, "ATTRIBUTE_ERROR: unknown attribute for class Disease (attr=name)", err.Error())
}

func TestError_WrappedCauseIsVisible(t *testing.T) {
	cause := errors.New("duplicate key on index Disease.uuid")
	err := Exists(cause, "record already exists")
	assert.Contains(t, err.Error(), "duplicate key")
	assert.ErrorIs(t, err, cause)
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"attribute", Attribute("x", "bad"), IsAttribute},
		{"not found", NotFound("no match"), IsNotFound},
		{"ambiguous", Ambiguous("2 matches"), IsAmbiguous},
		{"exists", Exists(nil, "dup"), IsExists},
		{"permission", Permission("denied"), IsPermission},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
		})
	}
}

func TestKindPredicates_WrappedErrors(t *testing.T) {
	// Predicates must see through fmt.Errorf wrapping.
	wrapped := fmt.Errorf("select failed: %w", NotFound("no record"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsAmbiguous(wrapped))
}

func TestKindPredicates_ForeignError(t *testing.T) {
	err := errors.New("plain")
	require.False(t, IsAttribute(err))
	require.False(t, IsNotFound(err))
	require.False(t, IsPermission(err))
}
