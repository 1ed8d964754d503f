package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srschema/internal/core"
	"srschema/internal/migration"
)

func TestSQLFormatterFormatMigration(t *testing.T) {
	m := sampleMigration()
	out, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "-- srschema migration\n-- revision: "+m.Fingerprint()+"\n"))
	assert.Contains(t, out, "-- BREAKING CHANGES (manual review required)\n-- - drop_column shop.orders: data is removed permanently\n")
	assert.Contains(t, out, "-- UNRESOLVED (cannot auto-generate safely)\n-- - No rollback for alter_materialized_view shop.mv\n")
	assert.Contains(t, out, "-- NOTES\n-- - shop.v: view comment differs and cannot be altered\n")
	assert.Contains(t, out, "-- SQL\n-- (async schema change)\n"+addDt+"\n-- [WARNING]\n"+setTTL+"\n")
	assert.Contains(t, out, "-- ROLLBACK SQL (run separately)\n-- "+dropDt+"\n")
}

func TestSQLFormatterEmpty(t *testing.T) {
	f := sqlFormatter{}

	out, err := f.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Contains(t, out, "-- No SQL statements generated.")
	assert.NotContains(t, out, "revision")

	m := &migration.Migration{}
	m.AddOperation(core.Operation{RollbackSQL: dropDt})
	out, err = f.FormatMigration(m)
	require.NoError(t, err)
	assert.Contains(t, out, "-- ROLLBACK SQL (run separately if needed)")

	out, err = f.FormatMigration(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.FormatDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWriteRiskComment(t *testing.T) {
	tests := []struct {
		name string
		op   core.Operation
		want string
	}{
		{"info", core.Operation{Risk: core.RiskInfo}, ""},
		{"info async", core.Operation{Risk: core.RiskInfo, Async: true}, "-- (async schema change)\n"},
		{"breaking async", core.Operation{Risk: core.RiskBreaking, Async: true}, "-- [BREAKING] (async schema change)\n"},
		{"warning", core.Operation{Risk: core.RiskWarning}, "-- [WARNING]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			writeRiskComment(&sb, tt.op)
			assert.Equal(t, tt.want, sb.String())
		})
	}
}

func TestFormatRollbackSQL(t *testing.T) {
	m := &migration.Migration{}
	m.AddOperation(core.Operation{SQL: "STMT 1", RollbackSQL: "UNDO 1"})
	m.AddOperation(core.Operation{SQL: "STMT 2", RollbackSQL: "UNDO 2"})

	out := FormatRollbackSQL(m)
	assert.Contains(t, out, "-- srschema rollback")
	assert.Less(t, strings.Index(out, "UNDO 2;"), strings.Index(out, "UNDO 1;"))

	assert.Contains(t, FormatRollbackSQL(&migration.Migration{}), "-- No rollback statements generated.")
	assert.Empty(t, FormatRollbackSQL(nil))
}

func TestWriteRollback(t *testing.T) {
	var down bytes.Buffer
	require.NoError(t, WriteRollback(sampleMigration(), &down))

	assert.Contains(t, down.String(), "-- SQL\n"+dropDt+"\n")
	assert.NotContains(t, down.String(), addDt)
}

func TestCommentLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, commentLines(" a\r\n\n b\rc "))
	assert.Nil(t, commentLines(" \n "))
}

func TestSQLFormatterFormatDiff(t *testing.T) {
	out, err := sqlFormatter{}.FormatDiff(sampleDiff())
	require.NoError(t, err)
	assert.Contains(t, out, "Added tables:")
	assert.Contains(t, out, "fresh")
	assert.Contains(t, out, "view comment differs")
}
