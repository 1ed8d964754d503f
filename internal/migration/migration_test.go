package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srschema/internal/core"
)

const (
	addDt    = "ALTER TABLE `shop`.`orders` ADD COLUMN `dt` DATE NULL;"
	dropDt   = "ALTER TABLE `shop`.`orders` DROP COLUMN `dt`;"
	setRepl  = "ALTER TABLE `shop`.`orders` SET (\"replication_num\" = \"1\");"
	resetRep = "ALTER TABLE `shop`.`orders` SET (\"replication_num\" = \"3\");"
)

func TestMigrationAccessors(t *testing.T) {
	m := &Migration{Operations: []core.Operation{
		{Kind: core.OperationSQL, SQL: addDt, RollbackSQL: dropDt, Async: true},
		{Kind: core.OperationNote, SQL: "view comment differs"},
		{Kind: core.OperationSQL, SQL: setRepl},
		{Kind: core.OperationBreaking, SQL: "drop_column shop.orders.legacy"},
		{Kind: core.OperationUnresolved, UnresolvedReason: "no rollback for drop_materialized_view shop.mv"},
		{Kind: core.OperationSQL, RollbackSQL: resetRep},
	}}

	assert.Equal(t, m.Operations, m.Plan())
	assert.Equal(t, []string{addDt, setRepl}, m.SQLStatements())
	assert.Equal(t, []string{dropDt, resetRep}, m.RollbackStatements())
	assert.Equal(t, []string{"view comment differs"}, m.InfoNotes())
	assert.Equal(t, []string{"drop_column shop.orders.legacy"}, m.BreakingNotes())
	assert.Equal(t, []string{"no rollback for drop_materialized_view shop.mv"}, m.UnresolvedNotes())
	assert.True(t, m.HasAsync())
}

func TestMigrationAddMethods(t *testing.T) {
	tests := []struct {
		name string
		add  func(m *Migration)
		want []core.Operation
	}{
		{"statement", func(m *Migration) { m.AddOperation(core.Operation{SQL: "  " + addDt + "  "}) }, []core.Operation{{Kind: core.OperationSQL, SQL: addDt}}},
		{"rollback only", func(m *Migration) { m.AddOperation(core.Operation{RollbackSQL: dropDt}) }, []core.Operation{{Kind: core.OperationSQL, RollbackSQL: dropDt}}},
		{"empty pair", func(m *Migration) { m.AddOperation(core.Operation{SQL: "", RollbackSQL: " "}) }, nil},
		{"note kind kept without sql", func(m *Migration) { m.AddOperation(core.Operation{Kind: core.OperationNote}) }, []core.Operation{{Kind: core.OperationNote}}},
		{"breaking", func(m *Migration) { m.AddBreaking(" data loss ") }, []core.Operation{{Kind: core.OperationBreaking, SQL: "data loss", Risk: core.RiskBreaking}}},
		{"note", func(m *Migration) { m.AddNote("async job") }, []core.Operation{{Kind: core.OperationNote, SQL: "async job", Risk: core.RiskInfo}}},
		{"empty note", func(m *Migration) { m.AddNote("") }, nil},
		{"unresolved", func(m *Migration) { m.AddUnresolved(" no rollback ") }, []core.Operation{{Kind: core.OperationUnresolved, UnresolvedReason: "no rollback"}}},
		{
			"operation keeps metadata",
			func(m *Migration) {
				m.AddOperation(core.Operation{SQL: addDt + "\n", Async: true, Source: "add_column", Target: "shop.orders"})
			},
			[]core.Operation{{Kind: core.OperationSQL, SQL: addDt, Async: true, Source: "add_column", Target: "shop.orders"}},
		},
		{"empty operation", func(m *Migration) { m.AddOperation(core.Operation{Source: "add_column"}) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			tt.add(m)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationDedupe(t *testing.T) {
	tests := []struct {
		name       string
		operations []core.Operation
		want       []core.Operation
	}{
		{name: "empty", operations: nil, want: nil},
		{
			name: "duplicate notes and unresolved",
			operations: []core.Operation{
				{Kind: core.OperationNote, SQL: "n"},
				{Kind: core.OperationNote, SQL: " n "},
				{Kind: core.OperationUnresolved, UnresolvedReason: "u"},
				{Kind: core.OperationUnresolved, UnresolvedReason: "u"},
				{Kind: core.OperationBreaking, SQL: "b"},
				{Kind: core.OperationBreaking, SQL: "b"},
			},
			want: []core.Operation{
				{Kind: core.OperationNote, SQL: "n"},
				{Kind: core.OperationUnresolved, UnresolvedReason: "u"},
				{Kind: core.OperationBreaking, SQL: "b"},
			},
		},
		{
			name: "repeated rollback is cleared",
			operations: []core.Operation{
				{Kind: core.OperationSQL, SQL: setRepl, RollbackSQL: resetRep},
				{Kind: core.OperationSQL, SQL: addDt, RollbackSQL: resetRep},
				{Kind: core.OperationSQL},
			},
			want: []core.Operation{
				{Kind: core.OperationSQL, SQL: setRepl, RollbackSQL: resetRep},
				{Kind: core.OperationSQL, SQL: addDt},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			m.Dedupe()
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationFingerprint(t *testing.T) {
	a := &Migration{}
	a.AddOperation(core.Operation{SQL: addDt})
	a.AddOperation(core.Operation{SQL: setRepl})
	a.AddNote("notes do not count")

	b := &Migration{}
	b.AddOperation(core.Operation{SQL: addDt, RollbackSQL: dropDt})
	b.AddOperation(core.Operation{SQL: setRepl})

	require.Len(t, a.Fingerprint(), 16)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := &Migration{}
	c.AddOperation(core.Operation{SQL: setRepl})
	c.AddOperation(core.Operation{SQL: addDt})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	assert.False(t, (&Migration{}).HasAsync())
}
