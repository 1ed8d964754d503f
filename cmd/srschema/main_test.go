package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SRSCHEMA_DSN", "")

	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := newRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"inspect", "diff", "migrate", "apply"}, names)

	for _, flag := range []string{"config", "dsn", "schema", "run-mode", "concurrency", "log-level", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestInspectRequiresDSN(t *testing.T) {
	_, err := execute(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dsn is required")
}

func TestDiffMissingSchemaFile(t *testing.T) {
	_, err := execute(t, "diff", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse declared schema")
}

func TestMigrateRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "migrate", "schema.toml", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: xml")
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "inspect", "--run-mode", "cloud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `run_mode: unsupported value "cloud"`)
}

func TestApplyDryRunWithoutConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration.sql")
	require.NoError(t, os.WriteFile(path, []byte("ALTER TABLE `orders` ADD COLUMN `note` VARCHAR(200) NULL;\n"), 0o600))

	out, err := execute(t, "apply", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "=== DRY RUN MODE ===")
	assert.Contains(t, out, "(async COLUMN job on orders)")
	assert.Contains(t, out, "=== DRY RUN COMPLETE ===")
}

func TestApplyRefusesDestructiveWithoutUnsafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration.sql")
	require.NoError(t, os.WriteFile(path, []byte("DROP TABLE orders;\n"), 0o600))

	_, err := execute(t, "apply", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --unsafe to allow these operations")
}
