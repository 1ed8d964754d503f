package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSONFormatterFormatMigration(t *testing.T) {
	m := sampleMigration()
	out, err := jsonFormatter{}.FormatMigration(m)
	require.NoError(t, err)

	var got migrationPayload
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "json", got.Format)
	assert.Equal(t, m.Fingerprint(), got.Revision)
	assert.Equal(t, migrationSummary{
		BreakingChanges:    1,
		Unresolved:         1,
		Notes:              1,
		SQLStatements:      2,
		RollbackStatements: 1,
		AsyncStatements:    1,
	}, got.Summary)
	assert.Equal(t, []string{addDt, setTTL}, got.SQL)
	assert.Equal(t, []string{dropDt}, got.Rollback)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "add_column", got.Steps[0].Source)
	assert.True(t, got.Steps[0].Async)
}

func TestJSONFormatterFormatDiff(t *testing.T) {
	out, err := jsonFormatter{}.FormatDiff(sampleDiff())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	summary := got["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["addedTables"])
	assert.EqualValues(t, 1, summary["modifiedTables"])
	assert.EqualValues(t, 1, summary["addedMaterializedViews"])
	assert.EqualValues(t, 1, summary["warnings"])
	assert.Contains(t, got, "modifiedTables")
	assert.NotContains(t, got, "removedTables")
}

func TestJSONFormatterNil(t *testing.T) {
	out, err := jsonFormatter{}.FormatDiff(nil)
	require.NoError(t, err)
	assert.Contains(t, out, `"format": "json"`)

	out, err = jsonFormatter{}.FormatMigration(nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "revision")
}

func TestYAMLFormatter(t *testing.T) {
	out, err := yamlFormatter{}.FormatMigration(sampleMigration())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "yaml", got["format"])
	assert.Equal(t, []any{addDt, setTTL}, got["sql"])

	out, err = yamlFormatter{}.FormatDiff(sampleDiff())
	require.NoError(t, err)
	assert.Contains(t, out, "addedTables:")
	assert.Contains(t, out, "name: fresh")
}
