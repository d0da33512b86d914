package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaListsClasses(t *testing.T) {
	out, err := runRoot(t, "schema", "--schema", filepath.Join("testdata", "schema.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "Disease")
	assert.Contains(t, out, "AliasOf")
	assert.Contains(t, out, "edge")
	assert.Contains(t, out, "inherits: Ontology, V")
}

func TestSchemaJSON(t *testing.T) {
	out, err := runRoot(t, "schema",
		"--schema", filepath.Join("testdata", "schema.yaml"),
		"--format", "json",
	)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	infos, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, infos, 7)
}

func TestSchemaRequiresSchemaFlag(t *testing.T) {
	_, err := runRoot(t, "schema")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
