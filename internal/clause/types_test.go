package clause

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srschema/internal/core"
)

func TestParseColumnType(t *testing.T) {
	p := New()

	tests := []struct {
		in   string
		want string
	}{
		{"int(11)", "INT(11)"},
		{"INTEGER", "INT"},
		{"varchar(65533)", "VARCHAR(65533)"},
		{"decimal(10,2)", "DECIMAL(10, 2)"},
		{"decimal64(18, 4)", "DECIMAL(18, 4)"},
		{"tinyint(1)", "TINYINT(1)"},
		{"bigint(20) unsigned", "BIGINT(20) UNSIGNED"},
		{"boolean", "BOOLEAN"},
		{"datetime", "DATETIME"},
		{"array<int(11)>", "ARRAY<INT(11)>"},
		{"ARRAY<ARRAY<string>>", "ARRAY<ARRAY<STRING>>"},
		{"map<varchar(10),int(11)>", "MAP<VARCHAR(10), INT(11)>"},
		{"struct<a int(11), `b c` varchar(10)>", "STRUCT<a INT(11), b c VARCHAR(10)>"},
		{"STRUCT<id bigint, tags array<string>, attrs map<string, double>>", "STRUCT<id BIGINT, tags ARRAY<STRING>, attrs MAP<STRING, DOUBLE>>"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := p.ParseColumnType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseColumnTypeStructure(t *testing.T) {
	p := New()

	got, err := p.ParseColumnType("map<string, struct<x int, y array<boolean>>>")
	require.NoError(t, err)
	require.Equal(t, core.TypeMap, got.Name)
	assert.Equal(t, "STRING", got.Key.Name)
	require.Equal(t, core.TypeStruct, got.Value.Name)
	require.Len(t, got.Value.Fields, 2)
	assert.Equal(t, "y", got.Value.Fields[1].Name)
	assert.Equal(t, "BOOLEAN", got.Value.Fields[1].Type.Elem.Name)
}

func TestParseColumnTypeUnknown(t *testing.T) {
	p := New()

	got, err := p.ParseColumnType("geometry")
	require.Error(t, err)

	var ue *UnknownTypeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "GEOMETRY", ue.Name)
	assert.Equal(t, "GEOMETRY", got.Name)

	_, err = p.ParseColumnType("array<newtype(3)>")
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "NEWTYPE", ue.Name)
}

func TestParseColumnTypeMalformed(t *testing.T) {
	p := New()
	for _, in := range []string{"", "varchar(", "array<int", "map<int>", "int)"} {
		t.Run(in, func(t *testing.T) {
			_, err := p.ParseColumnType(in)
			var pe *core.ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParsersAreIndependent(t *testing.T) {
	a, b := New(), New()
	assert.NotSame(t, a, b)

	ta, err := a.ParseColumnType("int")
	require.NoError(t, err)
	tb, err := b.ParseColumnType("int")
	require.NoError(t, err)
	assert.Equal(t, ta, tb)
}
