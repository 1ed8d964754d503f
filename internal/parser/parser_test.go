package parser

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataPath(file string) string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "test", "data", file)
}

func TestParseFileTOML(t *testing.T) {
	db, err := ParseFile(testdataPath("schema.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "shop", db.Name)
	assert.NotNil(t, db.FindTable("orders"))
}

func TestParseFileUnsupportedFormat(t *testing.T) {
	tests := []string{"schema.sql", "schema.json", "schema"}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			_, err := ParseFile(path, nil)
			var unsupported *UnsupportedFormatError
			require.True(t, errors.As(err, &unsupported))
			assert.Equal(t, path, unsupported.Path)
			assert.EqualError(t, err, "unsupported file format: "+path)
		})
	}
}

func TestForFileIgnoresExtensionCase(t *testing.T) {
	p, err := ForFile("SCHEMA.TOML", nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
