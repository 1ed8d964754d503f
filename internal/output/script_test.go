package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srschema/internal/core"
	"srschema/internal/operation"
)

func intPtr(n int) *int { return &n }

func TestScriptFormatterFormatPlan(t *testing.T) {
	ref := operation.TableRef{Schema: "shop", Table: "orders"}
	def := "0"
	plan := &operation.Plan{
		Operations: []operation.Operation{
			&operation.CreateTable{Table: &core.Table{
				Schema:  "shop",
				Name:    "events",
				Columns: []*core.Column{{Name: "id", TypeRaw: "BIGINT"}, {Name: "pv", TypeRaw: "BIGINT", Nullable: true, Default: &def, Aggregate: core.AggSum}},
				Options: core.TableOptions{
					Key:          &core.KeySpec{Type: core.KeyAggregate, Columns: []string{"id"}},
					Distribution: &core.DistributionSpec{Method: "HASH(id)", Buckets: intPtr(8)},
				},
			}},
			&operation.AlterTableProperties{
				TableRef:        ref,
				Properties:      map[string]string{"replication_num": "1"},
				PriorProperties: map[string]string{"replication_num": "3"},
			},
			&operation.DropMaterializedView{View: &core.MaterializedView{Schema: "shop", Name: "mv_old"}},
		},
		Notes: []string{"shop.v: view comment differs and cannot be altered"},
	}

	out, err := scriptFormatter{}.FormatPlan(plan)
	require.NoError(t, err)

	want := `# srschema migration script
# NOTE: shop.v: view comment differs and cannot be altered


def upgrade():
    op.create_table('events', [column('id', 'BIGINT', nullable=False), column('pv', 'BIGINT', nullable=True, server_default='0', starrocks_agg='SUM')], schema='shop', starrocks_aggregate_key='id', starrocks_distributed_by='HASH(id) BUCKETS 8')
    op.alter_table_properties('orders', schema='shop', starrocks_properties={'replication_num': '1'})
    op.drop_materialized_view('mv_old', schema='shop')


def downgrade():
    # cannot reverse drop_materialized_view shop.mv_old: drop_materialized_view shop.mv_old: refresh scheme and properties cannot be recovered from a dropped materialized view
    op.alter_table_properties('orders', schema='shop', starrocks_properties={'replication_num': '3'})
    op.drop_table('events', schema='shop')
`
	assert.Equal(t, want, out)
}

func TestScriptCalls(t *testing.T) {
	ref := operation.TableRef{Table: "orders"}
	mv := &core.MaterializedView{Name: "mv", Definition: "select 1", RefreshType: "MANUAL", Properties: map[string]string{"a": "b"}}

	tests := []struct {
		name string
		op   operation.Operation
		want string
	}{
		{
			"alter column keeps prior definition",
			&operation.AlterColumn{TableRef: ref, Column: &core.Column{Name: "a", TypeRaw: "BIGINT"}, Prior: &core.Column{Name: "a", TypeRaw: "INT"}},
			"op.alter_column('orders', column('a', 'BIGINT', nullable=False), existing=column('a', 'INT', nullable=False))",
		},
		{
			"create index",
			&operation.AddIndex{TableRef: ref, Index: &core.Index{Name: "idx_a", Columns: []string{"a"}, Type: "BITMAP"}},
			"op.create_index('idx_a', 'orders', ['a'], type='BITMAP')",
		},
		{
			"comment escapes quotes",
			&operation.AlterTableComment{TableRef: ref, Comment: "it's", PriorComment: ""},
			`op.alter_table_comment('orders', 'it\'s', existing_comment='')`,
		},
		{
			"order by",
			&operation.AlterTableOrder{TableRef: ref, OrderBy: "dt, id"},
			"op.alter_table_order('orders', starrocks_order_by='dt, id')",
		},
		{
			"create view",
			&operation.CreateView{View: &core.View{Name: "v", Definition: "select 1", Security: "INVOKER", Columns: []core.ViewColumn{{Name: "x", Comment: "c"}}}},
			"op.create_view('v', 'select 1', columns=[{'name': 'x', 'comment': 'c'}], starrocks_security='INVOKER')",
		},
		{
			"alter materialized view in place",
			&operation.AlterMaterializedView{View: mv, Prior: mv, RefreshChanged: true, Properties: map[string]string{"a": "b"}},
			"op.alter_materialized_view('mv', 'select 1', starrocks_properties={'a': 'b'}, starrocks_refresh='MANUAL')",
		},
		{
			"recreate materialized view",
			&operation.AlterMaterializedView{View: mv, Prior: mv, Recreate: true},
			"op.alter_materialized_view('mv', 'select 1', recreate=True, starrocks_properties={'a': 'b'}, starrocks_refresh='MANUAL')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scriptCall(tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScriptFormatterFormatMigration(t *testing.T) {
	out, err := scriptFormatter{}.FormatMigration(sampleMigration())
	require.NoError(t, err)

	assert.Contains(t, out, "# NOTE: shop.v: view comment differs and cannot be altered\n")
	assert.Contains(t, out, "def upgrade():\n    op.execute('ALTER TABLE `shop`.`orders` ADD COLUMN `dt` DATE NULL;')\n")
	assert.Contains(t, out, "def downgrade():\n    op.execute('ALTER TABLE `shop`.`orders` DROP COLUMN `dt`;')\n")

	out, err = scriptFormatter{}.FormatPlan(&operation.Plan{})
	require.NoError(t, err)
	assert.Contains(t, out, "def upgrade():\n    pass\n")
}
