package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestDistributionSpec(t *testing.T) {
	t.Run("method derived from type and columns", func(t *testing.T) {
		d := NewDistribution(DistributionHash, []string{"id", "dt"}, intPtr(8))
		assert.Equal(t, "HASH(id, dt)", d.Method)
		assert.Equal(t, "HASH(id, dt) BUCKETS 8", d.String())
	})

	t.Run("random without buckets", func(t *testing.T) {
		d := NewDistribution(DistributionRandom, nil, nil)
		assert.Equal(t, "RANDOM", d.String())
		assert.Equal(t, 0, d.BucketCount())
	})

	t.Run("zero buckets are not rendered", func(t *testing.T) {
		d := &DistributionSpec{Method: "HASH(id)", Buckets: intPtr(0)}
		assert.Equal(t, "HASH(id)", d.String())
	})

	t.Run("method text wins over type", func(t *testing.T) {
		d := &DistributionSpec{Type: DistributionHash, Columns: []string{"x"}, Method: "HASH(`x`)"}
		assert.Equal(t, "HASH(`x`)", d.MethodText())
	})

	t.Run("nil spec", func(t *testing.T) {
		var d *DistributionSpec
		assert.Equal(t, "", d.String())
		assert.Equal(t, "", d.MethodText())
	})
}

func TestPartitionSpecString(t *testing.T) {
	p := &PartitionSpec{Type: PartitionRange, Method: "RANGE(dt)", PreCreated: "(PARTITION p1 VALUES LESS THAN (\"2024-01-01\"))"}
	assert.Equal(t, "RANGE(dt) (PARTITION p1 VALUES LESS THAN (\"2024-01-01\"))", p.String())

	expr := &PartitionSpec{Type: PartitionExpression, Method: "date_trunc('day', dt)"}
	assert.Equal(t, "date_trunc('day', dt)", expr.String())
}

func TestKeyTypes(t *testing.T) {
	kt, ok := KeyTypeFromModel("agg_keys")
	require.True(t, ok)
	assert.Equal(t, KeyAggregate, kt)

	_, ok = KeyTypeFromModel("OTHER")
	assert.False(t, ok)

	for _, in := range []string{"primary key", "PRIMARY_KEY", "primary"} {
		kt, ok := ParseKeyType(in)
		assert.True(t, ok, in)
		assert.Equal(t, KeyPrimary, kt, in)
	}
	_, ok = ParseKeyType("sorted key")
	assert.False(t, ok)

	assert.Equal(t, "UNIQUE KEY(id, dt)", (&KeySpec{Type: KeyUnique, Columns: []string{"id", "dt"}}).String())
}

func TestTableOptionsString(t *testing.T) {
	o := TableOptions{
		Engine:       "OLAP",
		Key:          &KeySpec{Type: KeyPrimary, Columns: []string{"id"}},
		Distribution: NewDistribution(DistributionHash, []string{"id"}, intPtr(4)),
		OrderBy:      "id",
		Properties:   map[string]string{"replication_num": "1", "compression": "ZSTD"},
	}
	assert.Equal(t,
		`ENGINE=OLAP PRIMARY KEY(id) DISTRIBUTED BY HASH(id) BUCKETS 4 ORDER BY (id) PROPERTIES("compression"="ZSTD", "replication_num"="1")`,
		o.String())
	assert.False(t, o.IsAggregate())
}

func TestDefaultProperties(t *testing.T) {
	sn := DefaultProperties(RunModeSharedNothing)
	sd := DefaultProperties(RunModeSharedData)
	assert.Equal(t, "3", sn["replication_num"])
	assert.Equal(t, "1", sd["replication_num"])
	assert.Equal(t, "LZ4", sd["compression"])

	sn["compression"] = "ZSTD"
	v, ok := DefaultProperty(RunModeSharedNothing, "COMPRESSION")
	assert.True(t, ok)
	assert.Equal(t, "LZ4", v)

	_, ok = DefaultProperty(RunModeSharedNothing, "storage_medium")
	assert.False(t, ok)

	assert.Equal(t, "OLAP", NormalizeEngine(""))
	assert.Equal(t, "OLAP", NormalizeEngine("olap"))
}

func TestErrors(t *testing.T) {
	err := error(&IrreversibleOperationError{Kind: "drop_materialized_view", Target: "mv1", Reason: "refresh policy is not captured"})
	assert.True(t, errors.Is(err, ErrNotReversible))

	var amb *AmbiguousReflectionError
	wrapped := errors.Join(errors.New("ctx"), &AmbiguousReflectionError{Source: "tables", Schema: "db", Name: "t", Rows: 2})
	require.True(t, errors.As(wrapped, &amb))
	assert.Contains(t, amb.Error(), "db.t")

	pe := &ParseError{Clause: "partition", Text: "RANGE(id", Reason: "unbalanced parentheses"}
	assert.Contains(t, pe.Error(), "RANGE(id")

	ue := &UnsupportedOperationError{Object: "db.t", Attribute: "engine", Reflected: "OLAP", Declared: "MYSQL"}
	assert.Equal(t, `db.t: changing engine from "OLAP" to "MYSQL" is not supported`, ue.Error())
}
