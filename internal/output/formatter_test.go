package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srschema/internal/core"
	"srschema/internal/diff"
	"srschema/internal/migration"
)

const (
	addDt  = "ALTER TABLE `shop`.`orders` ADD COLUMN `dt` DATE NULL;"
	dropDt = "ALTER TABLE `shop`.`orders` DROP COLUMN `dt`;"
	setTTL = "ALTER MATERIALIZED VIEW `shop`.`mv` SET (\"partition_ttl\" = \"2 DAY\");"
)

func sampleMigration() *migration.Migration {
	m := &migration.Migration{}
	m.AddNote("shop.v: view comment differs and cannot be altered")
	m.AddOperation(core.Operation{SQL: addDt, RollbackSQL: dropDt, Risk: core.RiskInfo, Async: true, Source: "add_column", Target: "shop.orders"})
	m.AddOperation(core.Operation{SQL: setTTL, Risk: core.RiskWarning, Source: "alter_materialized_view", Target: "shop.mv"})
	m.AddUnresolved("No rollback for alter_materialized_view shop.mv")
	m.AddBreaking("drop_column shop.orders: data is removed permanently")
	return m
}

func sampleDiff() *diff.SchemaDiff {
	return &diff.SchemaDiff{
		Warnings:    []string{"shop.v: view comment differs and cannot be altered"},
		AddedTables: []*core.Table{{Name: "fresh", Columns: []*core.Column{{Name: "id", TypeRaw: "INT"}}}},
		ModifiedTables: []*diff.TableDiff{{
			Name:            "orders",
			AddedColumns:    []*core.Column{{Name: "dt", TypeRaw: "DATE"}},
			ModifiedOptions: []*diff.TableOptionChange{{Name: diff.AttrDistribution, Old: "RANDOM", New: "HASH(id) BUCKETS 8"}},
		}},
		AddedMaterializedViews: []*core.MaterializedView{{Name: "mv", Definition: "select 1"}},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"", sqlFormatter{}},
		{"SQL", sqlFormatter{}},
		{" json ", jsonFormatter{}},
		{"yaml", yamlFormatter{}},
		{"yml", yamlFormatter{}},
		{"summary", summaryFormatter{}},
		{"script", scriptFormatter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}

	f, err := NewFormatter("xml")
	assert.Error(t, err)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "unsupported format: xml")
}

func TestOnlyScriptFormatsPlans(t *testing.T) {
	for _, name := range []string{"sql", "json", "yaml", "summary"} {
		f, err := NewFormatter(name)
		require.NoError(t, err)
		_, ok := f.(PlanFormatter)
		assert.False(t, ok, name)
	}
	f, err := NewFormatter("script")
	require.NoError(t, err)
	_, ok := f.(PlanFormatter)
	assert.True(t, ok)
}

func TestNormalizeStatements(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;"}, normalizeStatements([]string{" SELECT 1 ", "", "SELECT 2;"}))
	assert.Equal(t, []string{"b", "a"}, reverseStatements([]string{"a", "b"}))
	assert.Nil(t, reverseStatements(nil))
}
