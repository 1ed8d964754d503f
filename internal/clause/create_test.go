package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMaterializedView(t *testing.T) {
	ddl := "CREATE MATERIALIZED VIEW `mv_sales` (`region` COMMENT \"r\", `total`)\n" +
		"COMMENT \"daily \\\"sales\\\"\"\n" +
		"PARTITION BY (`dt`)\n" +
		"DISTRIBUTED BY HASH(`region`) BUCKETS 4\n" +
		"ORDER BY (`region`)\n" +
		"REFRESH ASYNC START(\"2024-01-01 00:00:00\") EVERY(INTERVAL 1 DAY)\n" +
		"PROPERTIES (\n\"replication_num\" = \"1\",\n\"storage_medium\" = \"HDD\"\n)\n" +
		"AS SELECT region, dt, sum(amount) AS total FROM sales GROUP BY region, dt;"

	got := SplitMaterializedView(ddl)
	assert.Equal(t, `daily "sales"`, got.Comment)
	assert.Equal(t, "(`dt`)", got.Partition)
	assert.Equal(t, "HASH(`region`) BUCKETS 4", got.Distribution)
	assert.Equal(t, "(`region`)", got.OrderBy)
	assert.Equal(t, `ASYNC START("2024-01-01 00:00:00") EVERY(INTERVAL 1 DAY)`, got.Refresh)
	assert.Equal(t, map[string]string{"replication_num": "1", "storage_medium": "HDD"}, got.Properties)
	assert.Equal(t, "SELECT region, dt, sum(amount) AS total FROM sales GROUP BY region, dt", got.Definition)
}

func TestSplitMaterializedViewMinimal(t *testing.T) {
	got := SplitMaterializedView("create materialized view mv refresh manual as select 1")
	assert.Equal(t, "manual", got.Refresh)
	assert.Equal(t, "select 1", got.Definition)
	assert.Empty(t, got.Comment)
	assert.Nil(t, got.Properties)
}

func TestSplitMaterializedViewIgnoresKeywordsInLiterals(t *testing.T) {
	got := SplitMaterializedView("CREATE MATERIALIZED VIEW mv COMMENT 'ORDER BY AS' REFRESH ASYNC AS SELECT 'x AS y' FROM t")
	assert.Equal(t, "ORDER BY AS", got.Comment)
	assert.Equal(t, "ASYNC", got.Refresh)
	assert.Empty(t, got.OrderBy)
	assert.Equal(t, "SELECT 'x AS y' FROM t", got.Definition)
}

func TestParseProperties(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": `x"y`}, ParseProperties(`("a" = "1", "b"="x\"y")`))
	assert.Nil(t, ParseProperties("()"))
}
