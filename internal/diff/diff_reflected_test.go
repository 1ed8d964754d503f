package diff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/reflection"
)

func strPtr(s string) *string { return &s }

func newBuilder() *reflection.Builder {
	return reflection.NewBuilder(clause.New(), zap.NewNop())
}

func ordersRows(extras ...reflection.FullColumnRow) reflection.TableInput {
	return reflection.TableInput{
		Tables: []reflection.TableRow{{Schema: "shop", Name: "orders", Engine: "StarRocks", Comment: "all orders"}},
		Configs: []reflection.TableConfigRow{{
			Schema:           "shop",
			Name:             "orders",
			Engine:           "OLAP",
			Model:            "DUP_KEYS",
			PrimaryKey:       "`id`",
			DistributeKey:    "`id`",
			DistributeType:   "HASH",
			DistributeBucket: intPtr(8),
			SortKey:          "`id`",
			Properties:       `{"replication_num":"3","compression":"LZ4"}`,
		}},
		Columns: []reflection.ColumnRow{
			{Name: "id", Ordinal: 1, Type: "bigint(20)", Key: "DUP"},
			{Name: "note", Ordinal: 2, Type: "varchar(65533)", Nullable: true, Comment: "free text"},
			{Name: "amount", Ordinal: 3, Type: "decimal(10,2)", Nullable: true, Default: strPtr("0")},
		},
		FullColumns: extras,
	}
}

func plainFullColumns() []reflection.FullColumnRow {
	return []reflection.FullColumnRow{{Field: "id"}, {Field: "note"}, {Field: "amount"}}
}

func declaredOrdersTable() *core.Table {
	id := col("id", "BIGINT")
	id.Nullable = false
	note := col("note", "STRING")
	note.Comment = "free text"
	amount := col("amount", "DECIMAL(10, 2)")
	amount.Default = strPtr("0")

	t := tbl("orders", core.TableOptions{
		Key:          &core.KeySpec{Type: core.KeyDuplicate, Columns: []string{"id"}},
		Distribution: core.NewDistribution(core.DistributionHash, []string{"id"}, nil),
		OrderBy:      "id",
	}, id, note, amount)
	t.Comment = "all orders"
	return t
}

func TestDiffReflectedEquivalent(t *testing.T) {
	b := newBuilder()

	t.Run("table", func(t *testing.T) {
		reflected, err := b.BuildTable("shop", "orders", ordersRows(plainFullColumns()...))
		require.NoError(t, err)

		d, err := Diff(db(reflected), db(declaredOrdersTable()), DefaultOptions())
		require.NoError(t, err)
		assert.True(t, d.IsEmpty(), d.String())
	})

	t.Run("table without full columns", func(t *testing.T) {
		reflected, err := b.BuildTable("shop", "orders", ordersRows())
		require.NoError(t, err)

		d, err := Diff(db(reflected), db(declaredOrdersTable()), DefaultOptions())
		require.NoError(t, err)
		assert.True(t, d.IsEmpty(), d.String())
	})

	t.Run("view", func(t *testing.T) {
		reflected, err := b.BuildView("shop", "paid", []reflection.ViewRow{{
			Schema:     "shop",
			Name:       "paid",
			Definition: "SELECT `id`, `amount` FROM `shop`.`orders` WHERE `amount` > 0",
		}})
		require.NoError(t, err)

		declared := &core.View{Name: "paid", Definition: "SELECT id, amount\nFROM shop.orders\nWHERE amount > 0"}
		d, err := Diff(viewDB(reflected), viewDB(declared), DefaultOptions())
		require.NoError(t, err)
		assert.True(t, d.IsEmpty(), d.String())
		assert.Empty(t, d.Warnings)
	})

	t.Run("materialized view", func(t *testing.T) {
		ddl := "CREATE MATERIALIZED VIEW `mv_daily`\n" +
			"COMMENT \"daily totals\"\n" +
			"PARTITION BY (`dt`)\n" +
			"DISTRIBUTED BY HASH(`region`) BUCKETS 4\n" +
			"ORDER BY (`region`)\n" +
			"REFRESH DEFERRED ASYNC EVERY(INTERVAL 1 DAY)\n" +
			"PROPERTIES (\n\"replication_num\" = \"1\"\n)\n" +
			"AS SELECT `region`, `dt`, sum(`amount`) AS total FROM `orders` GROUP BY `region`, `dt`;"
		reflected, err := b.BuildMaterializedView("shop", "mv_daily", []reflection.MaterializedViewRow{{
			Name:        "mv_daily",
			RefreshType: "ASYNC",
			CreateSQL:   ddl,
		}})
		require.NoError(t, err)

		declared := &core.MaterializedView{
			Name:         "mv_daily",
			Definition:   "SELECT region, dt, sum(amount) AS total FROM orders GROUP BY region, dt",
			Comment:      "daily totals",
			Partition:    &core.PartitionSpec{Method: "dt"},
			Distribution: core.NewDistribution(core.DistributionHash, []string{"region"}, intPtr(4)),
			OrderBy:      "region",
			RefreshType:  "ASYNC EVERY(INTERVAL 1 DAY)",
			Properties:   map[string]string{"replication_num": "1"},
		}
		d, err := Diff(mvDB(reflected), mvDB(declared), DefaultOptions())
		require.NoError(t, err)
		assert.True(t, d.IsEmpty(), d.String())
		assert.Empty(t, d.Warnings)
	})
}

func TestDiffReflectedAutoIncrement(t *testing.T) {
	b := newBuilder()

	tests := []struct {
		name     string
		extra    string
		declared bool
	}{
		{name: "enable on plain column", extra: "", declared: true},
		{name: "disable on auto increment column", extra: "auto_increment", declared: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := plainFullColumns()
			fc[0].Extra = tt.extra
			reflected, err := b.BuildTable("shop", "orders", ordersRows(fc...))
			require.NoError(t, err)

			declared := declaredOrdersTable()
			declared.Columns[0].AutoIncrement = boolPtr(tt.declared)

			d, err := Diff(db(reflected), db(declared), DefaultOptions())
			var ue *core.UnsupportedOperationError
			require.True(t, errors.As(err, &ue), "got %v", err)
			assert.Equal(t, "AUTO_INCREMENT", ue.Attribute)
			assert.Equal(t, "shop.orders.id", ue.Object)
			assert.Equal(t, tt.extra == "", ue.Reflected == "false")
			assert.Empty(t, d.ModifiedTables)
		})
	}

	t.Run("declared flag matching reflected false", func(t *testing.T) {
		reflected, err := b.BuildTable("shop", "orders", ordersRows(plainFullColumns()...))
		require.NoError(t, err)

		declared := declaredOrdersTable()
		declared.Columns[0].AutoIncrement = boolPtr(false)

		d, err := Diff(db(reflected), db(declared), DefaultOptions())
		require.NoError(t, err)
		assert.True(t, d.IsEmpty())
	})
}
