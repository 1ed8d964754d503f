// Package parser reads declared schema files and converts them to the
// canonical core.Database representation. The file extension selects the
// format; TOML is the only one so far.
package parser

import (
	"io"
	"path/filepath"
	"strings"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/parser/toml"
)

type Parser interface {
	Parse(r io.Reader) (*core.Database, error)
	ParseFile(path string) (*core.Database, error)
}

var _ Parser = (*toml.Parser)(nil)

// ForFile returns the parser for the format of path.
func ForFile(path string, cp *clause.Parser) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser(cp), nil
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

// ParseFile parses a declared schema file with the parser for its format.
func ParseFile(path string, cp *clause.Parser) (*core.Database, error) {
	p, err := ForFile(path, cp)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
