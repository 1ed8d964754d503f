package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeStatement(t *testing.T) {
	tests := []struct {
		name        string
		sql         string
		destructive bool
		job         AlterJob
		schema      string
		table       string
	}{
		{
			name:        "drop table",
			sql:         "DROP TABLE `shop`.`orders`",
			destructive: true,
		},
		{
			name:        "drop database",
			sql:         "DROP DATABASE shop",
			destructive: true,
		},
		{
			name:        "truncate",
			sql:         "TRUNCATE TABLE orders",
			destructive: true,
		},
		{
			name:        "delete",
			sql:         "DELETE FROM orders WHERE id = 1",
			destructive: true,
		},
		{
			name:   "add column",
			sql:    "ALTER TABLE `shop`.`orders` ADD COLUMN `note` VARCHAR(200) NULL",
			job:    JobColumn,
			schema: "shop",
			table:  "orders",
		},
		{
			name:        "drop column",
			sql:         "ALTER TABLE `orders` DROP COLUMN `note`",
			destructive: true,
			job:         JobColumn,
			table:       "orders",
		},
		{
			name:  "modify column",
			sql:   "ALTER TABLE orders MODIFY COLUMN note VARCHAR(500) NULL",
			job:   JobColumn,
			table: "orders",
		},
		{
			name:  "drop index",
			sql:   "DROP INDEX idx_status ON orders",
			job:   JobColumn,
			table: "orders",
		},
		{
			name:   "bitmap index",
			sql:    "CREATE INDEX idx_status ON shop.orders (status) USING BITMAP COMMENT 'state'",
			job:    JobColumn,
			schema: "shop",
			table:  "orders",
		},
		{
			name:   "distribution change",
			sql:    "ALTER TABLE `shop`.`orders` DISTRIBUTED BY HASH(`id`) BUCKETS 16",
			job:    JobOptimize,
			schema: "shop",
			table:  "orders",
		},
		{
			name:  "sort key change",
			sql:   "ALTER TABLE orders ORDER BY (dt, id)",
			job:   JobColumn,
			table: "orders",
		},
		{
			name:        "drop materialized view",
			sql:         "DROP MATERIALIZED VIEW IF EXISTS `shop`.`daily_pv`",
			destructive: true,
		},
		{
			name: "set properties",
			sql:  "ALTER TABLE orders SET (\"replication_num\" = \"3\")",
		},
		{
			name: "keywords inside literal",
			sql:  "ALTER TABLE orders COMMENT = 'drop column note'",
		},
		{
			name: "create starrocks table",
			sql:  "CREATE TABLE t (id INT) DUPLICATE KEY(id) DISTRIBUTED BY HASH(id)",
		},
		{
			name: "refresh materialized view",
			sql:  "REFRESH MATERIALIZED VIEW daily_pv",
		},
	}

	analyzer := NewStatementAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.AnalyzeStatement(tt.sql)
			require.NotNil(t, got)
			assert.Equal(t, tt.destructive, got.IsDestructive)
			assert.Equal(t, tt.job, got.Job)
			assert.Equal(t, tt.job != JobNone, got.IsAsync())
			if tt.destructive {
				assert.NotEmpty(t, got.DestructiveReason)
			}
			if tt.job != JobNone {
				assert.NotEmpty(t, got.AsyncReasons)
				assert.Equal(t, tt.schema, got.Schema)
				assert.Equal(t, tt.table, got.Table)
			}
		})
	}
}

func TestAnalyzeStatementTypes(t *testing.T) {
	analyzer := NewStatementAnalyzer()

	tests := []struct {
		sql  string
		want string
	}{
		{"DROP VIEW recent_orders", "DROP VIEW"},
		{"DROP TABLE orders", "DROP TABLE"},
		{"CREATE VIEW v AS SELECT 1", "CREATE VIEW"},
		{"CREATE TABLE t (id INT)", "CREATE TABLE"},
		{"CREATE MATERIALIZED VIEW mv REFRESH ASYNC AS SELECT 1", "CREATE"},
		{"REFRESH MATERIALIZED VIEW mv", "REFRESH"},
		{"DROP MATERIALIZED VIEW mv", "DROP MATERIALIZED VIEW"},
		{"ADMIN SHOW FRONTEND CONFIG", "OTHER"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzer.AnalyzeStatement(tt.sql).StatementType)
		})
	}
}

func TestAnalyzeStatementsWarnings(t *testing.T) {
	analyzer := NewStatementAnalyzer()
	statements := []string{
		"CREATE TABLE t (id INT)",
		"ALTER TABLE t ADD COLUMN c INT NULL",
		"DROP TABLE old",
	}

	t.Run("safe mode", func(t *testing.T) {
		result := analyzer.AnalyzeStatements(statements, false)
		require.Len(t, result.Statements, 3)
		require.Len(t, result.Warnings, 2)

		assert.Equal(t, WarnCaution, result.Warnings[0].Level)
		assert.Contains(t, result.Warnings[0].Message, "Asynchronous DDL: ADD COLUMN")
		assert.Equal(t, statements[1], result.Warnings[0].SQL)

		assert.Equal(t, WarnDanger, result.Warnings[1].Level)
		assert.Contains(t, result.Warnings[1].Message, "(requires --unsafe flag)")
		assert.True(t, HasDestructiveOperations(result))
	})

	t.Run("unsafe mode", func(t *testing.T) {
		result := analyzer.AnalyzeStatements(statements, true)
		require.Len(t, result.Warnings, 2)
		assert.NotContains(t, result.Warnings[1].Message, "--unsafe")
		assert.True(t, HasDestructiveOperations(result))
	})

	t.Run("drop view is not destructive", func(t *testing.T) {
		result := analyzer.AnalyzeStatements([]string{"DROP VIEW v"}, false)
		assert.Empty(t, result.Warnings)
		assert.False(t, HasDestructiveOperations(result))
	})
}

func TestTextTarget(t *testing.T) {
	tests := []struct {
		text   string
		schema string
		table  string
	}{
		{"ALTER TABLE `shop`.`orders` DISTRIBUTED BY HASH(id)", "shop", "orders"},
		{"alter table orders order by (dt)", "", "orders"},
		{"CREATE INDEX idx ON shop.orders(status) USING BITMAP", "shop", "orders"},
		{"DROP INDEX idx ON `orders`", "", "orders"},
		{"SELECT 1", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			schema, table := textTarget(tt.text)
			assert.Equal(t, tt.schema, schema)
			assert.Equal(t, tt.table, table)
		})
	}
}
