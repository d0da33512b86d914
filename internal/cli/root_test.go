package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := runRoot(t, "schema", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootListsSubcommands(t *testing.T) {
	out, err := runRoot(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "compile")
	assert.Contains(t, out, "schema")
}
