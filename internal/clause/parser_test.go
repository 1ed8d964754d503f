package clause

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srschema/internal/core"
)

func TestParsePartition(t *testing.T) {
	p := New()

	tests := []struct {
		name string
		in   string
		want *core.PartitionSpec
	}{
		{
			name: "range with pre-created partitions",
			in:   `RANGE(id) (PARTITION p1 VALUES LESS THAN ("100"))`,
			want: &core.PartitionSpec{Type: core.PartitionRange, Method: "RANGE(id)", PreCreated: `(PARTITION p1 VALUES LESS THAN ("100"))`},
		},
		{
			name: "lowercase range with space before paren",
			in:   "range (`dt`, `region`)",
			want: &core.PartitionSpec{Type: core.PartitionRange, Method: "range (`dt`, `region`)"},
		},
		{
			name: "list with nested parentheses",
			in:   "LIST(city) (PARTITION pCA VALUES IN (\"LA\", \"SF\"), PARTITION pNY VALUES IN (\"NYC\"))",
			want: &core.PartitionSpec{Type: core.PartitionList, Method: "LIST(city)", PreCreated: "(PARTITION pCA VALUES IN (\"LA\", \"SF\"), PARTITION pNY VALUES IN (\"NYC\"))"},
		},
		{
			name: "expression partition",
			in:   "  date_trunc('day', dt)  ",
			want: &core.PartitionSpec{Type: core.PartitionExpression, Method: "date_trunc('day', dt)"},
		},
		{
			name: "column list expression",
			in:   "dt, region",
			want: &core.PartitionSpec{Type: core.PartitionExpression, Method: "dt, region"},
		},
		{
			name: "identifier starting with range is an expression",
			in:   "range_key",
			want: &core.PartitionSpec{Type: core.PartitionExpression, Method: "range_key"},
		},
		{
			name: "parenthesis inside a literal",
			in:   `LIST(tag) (PARTITION p1 VALUES IN (")"))`,
			want: &core.PartitionSpec{Type: core.PartitionList, Method: "LIST(tag)", PreCreated: `(PARTITION p1 VALUES IN (")"))`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParsePartition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty input", func(t *testing.T) {
		got, err := p.ParsePartition("   ")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("method never includes pre-created partitions", func(t *testing.T) {
		got, err := p.ParsePartition(`RANGE(id) (PARTITION p1 VALUES LESS THAN ("100"))`)
		require.NoError(t, err)
		assert.NotContains(t, got.Method, "PARTITION")
		assert.Equal(t, `RANGE(id) (PARTITION p1 VALUES LESS THAN ("100"))`, got.String())
	})
}

func TestParsePartitionErrors(t *testing.T) {
	p := New()
	for _, in := range []string{"RANGE(id", "LIST city", "RANGE((id)", "RANGE"} {
		t.Run(in, func(t *testing.T) {
			got, err := p.ParsePartition(in)
			require.Error(t, err)
			assert.Nil(t, got)

			var pe *core.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, in, pe.Text)
		})
	}
}

func TestParseDistribution(t *testing.T) {
	p := New()
	eight := 8

	tests := []struct {
		in   string
		want *core.DistributionSpec
	}{
		{"HASH(id) BUCKETS 8", &core.DistributionSpec{Method: "HASH(id)", Buckets: &eight}},
		{"HASH(id)", &core.DistributionSpec{Method: "HASH(id)"}},
		{"hash(`id`, `dt`)   buckets   8 ", &core.DistributionSpec{Method: "hash(`id`, `dt`)", Buckets: &eight}},
		{"RANDOM BUCKETS 8", &core.DistributionSpec{Method: "RANDOM", Buckets: &eight}},
		{"RANDOM", &core.DistributionSpec{Method: "RANDOM"}},
		{"HASH(id)\nBUCKETS\t8", &core.DistributionSpec{Method: "HASH(id)", Buckets: &eight}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := p.ParseDistribution(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, got.Type)
			assert.Nil(t, got.Columns)
		})
	}

	got, err := p.ParseDistribution("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseKey(t *testing.T) {
	p := New()

	got, err := p.ParseKey("PRIMARY KEY(`id`, dt)")
	require.NoError(t, err)
	assert.Equal(t, &core.KeySpec{Type: core.KeyPrimary, Columns: []string{"id", "dt"}}, got)

	got, err = p.ParseKey("aggregate key (a)")
	require.NoError(t, err)
	assert.Equal(t, core.KeyAggregate, got.Type)

	for _, bad := range []string{"DUPLICATE KEY", "SORTED KEY(id)", "UNIQUE KEY()", "PRIMARY KEY((id)"} {
		_, err := p.ParseKey(bad)
		var pe *core.ParseError
		assert.True(t, errors.As(err, &pe), bad)
	}

	got, err = p.ParseKey("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseRefresh(t *testing.T) {
	p := New()

	moment, typ := p.ParseRefresh("DEFERRED ASYNC EVERY(INTERVAL 1 DAY)")
	assert.Equal(t, core.RefreshDeferred, moment)
	assert.Equal(t, "ASYNC EVERY(INTERVAL 1 DAY)", typ)

	moment, typ = p.ParseRefresh("refresh immediate manual")
	assert.Equal(t, core.RefreshImmediate, moment)
	assert.Equal(t, "manual", typ)

	moment, typ = p.ParseRefresh("  ASYNC  ")
	assert.Empty(t, moment)
	assert.Equal(t, "ASYNC", typ)
}

func TestExtractPartitionClause(t *testing.T) {
	p := New()
	ddl := "CREATE TABLE `t` (\n  `id` int(11) NULL,\n  `dt` date NULL\n) ENGINE=OLAP\n" +
		"DUPLICATE KEY(`id`)\nPARTITION BY RANGE(`dt`)\n(PARTITION p1 VALUES [(\"2024-01-01\"), (\"2024-02-01\")))\n" +
		"DISTRIBUTED BY HASH(`id`) BUCKETS 8\nPROPERTIES (\n\"replication_num\" = \"1\"\n);"

	assert.Equal(t, "RANGE(`dt`)\n(PARTITION p1 VALUES [(\"2024-01-01\"), (\"2024-02-01\")))", p.ExtractPartitionClause(ddl))
	assert.Equal(t, "date_trunc('day', dt)", p.ExtractPartitionClause("CREATE TABLE t (dt datetime) partition by date_trunc('day', dt);"))
	assert.Equal(t, "", p.ExtractPartitionClause("CREATE TABLE t (id int) DISTRIBUTED BY RANDOM"))
}

func TestSplitColumnList(t *testing.T) {
	assert.Equal(t, []string{"id", "dt"}, SplitColumnList("`id`, dt"))
	assert.Nil(t, SplitColumnList(""))
}
