// Package toml provides a parser for the srschema TOML schema format.
// It reads a declared StarRocks schema from a .toml file and converts it into
// the core.Database representation that the comparator operates on.
//
// StarRocks options may be given either as structured keys ([tables.options],
// partition_by, refresh, ...) or as a kwargs table of starrocks_* names.
// Giving the same option both ways is an error.
package toml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/kwargs"
)

// schemaFile is the top-level TOML document. [database], [validation],
// [[tables]], [[views]] and [[materialized_views]] are all top-level keys.
type schemaFile struct {
	Database          tomlDatabase           `toml:"database"`
	Validation        *tomlValidation        `toml:"validation"`
	Tables            []tomlTable            `toml:"tables"`
	Views             []tomlView             `toml:"views"`
	MaterializedViews []tomlMaterializedView `toml:"materialized_views"`
}

// tomlDatabase maps [database].
type tomlDatabase struct {
	Name    string `toml:"name"`
	RunMode string `toml:"run_mode"`
}

// tomlValidation maps [validation].
type tomlValidation struct {
	MaxNameLength      int    `toml:"max_name_length"`
	AllowedNamePattern string `toml:"allowed_name_pattern"`
}

// Parser reads srschema TOML schema files.
type Parser struct {
	clauses *clause.Parser
}

// NewParser creates a TOML schema parser. Clause texts (partition,
// distribution, key, refresh and column types) are parsed with cp; nil builds
// a fresh clause parser.
func NewParser(cp *clause.Parser) *Parser {
	if cp == nil {
		cp = clause.New()
	}
	return &Parser{clauses: cp}
}

// ParseFile opens the file at the given path and parses it as a TOML schema.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from reader and returns the declared database.
// Unknown keys are rejected, and the result is checked with
// core.Database.Validate.
func (p *Parser) Parse(r io.Reader) (*core.Database, error) {
	var sf schemaFile
	md, err := toml.NewDecoder(r).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("toml: unknown keys: %s", strings.Join(keys, ", "))
	}

	db, err := newConverter(&sf, p.clauses).convert()
	if err != nil {
		return nil, err
	}
	if err := db.Validate(); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return db, nil
}

type converter struct {
	sf      *schemaFile
	clauses *clause.Parser
	maxLen  int
	nameRe  *regexp.Regexp
}

func newConverter(sf *schemaFile, cp *clause.Parser) *converter {
	return &converter{sf: sf, clauses: cp}
}

func (c *converter) convert() (*core.Database, error) {
	if err := c.validateRules(); err != nil {
		return nil, err
	}

	runMode, err := validateRunMode(c.sf.Database.RunMode)
	if err != nil {
		return nil, err
	}

	db := &core.Database{
		Name:              c.sf.Database.Name,
		RunMode:           runMode,
		Tables:            make([]*core.Table, 0, len(c.sf.Tables)),
		Views:             make([]*core.View, 0, len(c.sf.Views)),
		MaterializedViews: make([]*core.MaterializedView, 0, len(c.sf.MaterializedViews)),
	}

	for i := range c.sf.Tables {
		t, err := c.convertTable(&c.sf.Tables[i])
		if err != nil {
			return nil, fmt.Errorf("toml: table %q: %w", c.sf.Tables[i].Name, err)
		}
		t.Schema = db.Name
		db.Tables = append(db.Tables, t)
	}
	for i := range c.sf.Views {
		v, err := c.convertView(&c.sf.Views[i])
		if err != nil {
			return nil, fmt.Errorf("toml: view %q: %w", c.sf.Views[i].Name, err)
		}
		v.Schema = db.Name
		db.Views = append(db.Views, v)
	}
	for i := range c.sf.MaterializedViews {
		mv, err := c.convertMaterializedView(&c.sf.MaterializedViews[i])
		if err != nil {
			return nil, fmt.Errorf("toml: materialized view %q: %w", c.sf.MaterializedViews[i].Name, err)
		}
		mv.Schema = db.Name
		db.MaterializedViews = append(db.MaterializedViews, mv)
	}

	return db, nil
}

// validateRunMode accepts an empty value (detect from the server) or one of
// the two run modes.
func validateRunMode(raw string) (core.RunMode, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch core.RunMode(s) {
	case "":
		return "", nil
	case core.RunModeSharedNothing, core.RunModeSharedData:
		return core.RunMode(s), nil
	}
	return "", fmt.Errorf("toml: unsupported run_mode %q; supported: %s, %s", raw, core.RunModeSharedNothing, core.RunModeSharedData)
}

// validateRules converts [validation] and pre-compiles the name regex.
func (c *converter) validateRules() error {
	v := c.sf.Validation
	if v == nil {
		return nil
	}
	if v.MaxNameLength < 0 {
		return fmt.Errorf("toml: invalid max_name_length %d", v.MaxNameLength)
	}
	c.maxLen = v.MaxNameLength

	if v.AllowedNamePattern != "" {
		re, err := regexp.Compile(v.AllowedNamePattern)
		if err != nil {
			return fmt.Errorf("toml: invalid allowed_name_pattern %q: %w", v.AllowedNamePattern, err)
		}
		c.nameRe = re
	}
	return nil
}

// validateName applies the [validation] rules to a table, column, index or
// view name.
func (c *converter) validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(kind + " name is empty")
	}
	if c.maxLen > 0 && len(name) > c.maxLen {
		return fmt.Errorf("%s %q exceeds maximum length %d", kind, name, c.maxLen)
	}
	if c.nameRe != nil && !c.nameRe.MatchString(name) {
		return fmt.Errorf("%s %q does not match allowed pattern %q", kind, name, c.nameRe.String())
	}
	return nil
}

// checkKwargs rejects kwargs entries that lack the StarRocks prefix; they
// would otherwise be ignored silently.
func checkKwargs(bag map[string]any) error {
	if _, rest := kwargs.Split(bag); len(rest) > 0 {
		return fmt.Errorf("kwargs: keys without the %s prefix: %s", kwargs.Prefix, strings.Join(rest.Keys(), ", "))
	}
	return nil
}
