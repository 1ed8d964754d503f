// Package core contains the single source of truth for a StarRocks schema.
// Both the reflected (live) state and the declared (desired) state are described
// with the same structures, so they can be compared attribute by attribute.
package core

import (
	"fmt"
	"strings"
)

// RunMode is the StarRocks cluster deployment mode. It controls default
// table properties such as replication_num.
type RunMode string

const (
	RunModeSharedNothing RunMode = "shared_nothing"
	RunModeSharedData    RunMode = "shared_data"
)

// ParseRunMode maps a frontend config value onto a RunMode. Unknown values
// fall back to shared_nothing, which is the server default.
func ParseRunMode(s string) RunMode {
	if strings.EqualFold(strings.TrimSpace(s), string(RunModeSharedData)) {
		return RunModeSharedData
	}
	return RunModeSharedNothing
}

// Database represents one StarRocks database (schema).
type Database struct {
	Name              string              `json:"name"`
	Version           string              `json:"version,omitempty"`
	RunMode           RunMode             `json:"runMode,omitempty"`
	Tables            []*Table            `json:"tables,omitempty"`
	Views             []*View             `json:"views,omitempty"`
	MaterializedViews []*MaterializedView `json:"materializedViews,omitempty"`
}

// Table represents a table in the schema.
type Table struct {
	Schema  string       `json:"schema,omitempty"`
	Name    string       `json:"name"`
	Columns []*Column    `json:"columns"`
	Indexes []*Index     `json:"indexes,omitempty"`
	Comment string       `json:"comment,omitempty"`
	Options TableOptions `json:"options"`
}

// Column represents a column of a table.
type Column struct {
	Name string `json:"name"`
	// TypeRaw is the type as written by the user or echoed by the server.
	TypeRaw string `json:"type"`
	// Type is the parsed form of TypeRaw. Nil means the type is unknown to the
	// parser and only TypeRaw is available.
	Type *ColumnType `json:"-"`

	Nullable             bool    `json:"nullable"`
	Default              *string `json:"default,omitempty"`
	Comment              string  `json:"comment,omitempty"`
	GenerationExpression string  `json:"generationExpression,omitempty"`

	// AutoIncrement is nil when the flag is not known. information_schema.columns
	// never reports it; only the Extra field of SHOW FULL COLUMNS does.
	AutoIncrement *bool `json:"autoIncrement,omitempty"`

	// Aggregate is the aggregate marker for AGGREGATE KEY tables: AggKey for
	// key columns, an aggregate function for value columns, empty otherwise.
	Aggregate AggType `json:"aggregate,omitempty"`
}

// IsAutoIncrement reports whether the column is known to be AUTO_INCREMENT.
func (c *Column) IsAutoIncrement() bool {
	return c.AutoIncrement != nil && *c.AutoIncrement
}

// Index is a secondary index (bitmap, ngram bloom filter, ...).
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Type    string   `json:"type,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

// AggType is an aggregate marker on a column of an AGGREGATE KEY table.
type AggType string

const (
	AggKey              AggType = "KEY"
	AggSum              AggType = "SUM"
	AggCount            AggType = "COUNT"
	AggMin              AggType = "MIN"
	AggMax              AggType = "MAX"
	AggHLLUnion         AggType = "HLL_UNION"
	AggBitmapUnion      AggType = "BITMAP_UNION"
	AggReplace          AggType = "REPLACE"
	AggReplaceIfNotNull AggType = "REPLACE_IF_NOT_NULL"
)

// ParseAggType normalizes s and reports whether it names a known aggregate
// marker.
func ParseAggType(s string) (AggType, bool) {
	a := AggType(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case AggKey, AggSum, AggCount, AggMin, AggMax, AggHLLUnion, AggBitmapUnion, AggReplace, AggReplaceIfNotNull:
		return a, true
	}
	return a, false
}

// IsFunction reports whether a is an aggregate function rather than the key marker.
func (a AggType) IsFunction() bool {
	return a != "" && a != AggKey
}

// FindColumn returns the column with the given name (case-insensitive).
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// FindIndex returns the index with the given name (case-insensitive).
func (t *Table) FindIndex(name string) *Index {
	for _, idx := range t.Indexes {
		if strings.EqualFold(idx.Name, name) {
			return idx
		}
	}
	return nil
}

// QualifiedName returns schema.name, or just name when the schema is empty.
func (t *Table) QualifiedName() string {
	return qualify(t.Schema, t.Name)
}

// FindTable returns the table with the given name (case-insensitive).
func (db *Database) FindTable(name string) *Table {
	for _, t := range db.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// FindView returns the view with the given name (case-insensitive).
func (db *Database) FindView(name string) *View {
	for _, v := range db.Views {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}

// FindMaterializedView returns the materialized view with the given name (case-insensitive).
func (db *Database) FindMaterializedView(name string) *MaterializedView {
	for _, mv := range db.MaterializedViews {
		if strings.EqualFold(mv.Name, name) {
			return mv
		}
	}
	return nil
}

func (t *Table) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table: %s\n", t.QualifiedName())
	if t.Comment != "" {
		fmt.Fprintf(&sb, "  Comment: %s\n", t.Comment)
	}
	sb.WriteString("  Columns:\n")
	for _, c := range t.Columns {
		fmt.Fprintf(&sb, "    - %s\n", c.String())
	}
	if len(t.Indexes) > 0 {
		sb.WriteString("  Indexes:\n")
		for _, idx := range t.Indexes {
			fmt.Fprintf(&sb, "    - %s %s(%s)\n", idx.Name, idx.Type, strings.Join(idx.Columns, ", "))
		}
	}
	if opts := t.Options.String(); opts != "" {
		fmt.Fprintf(&sb, "  Options: %s\n", opts)
	}
	return sb.String()
}

func (c *Column) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name + " " + c.TypeRaw)
	if c.Aggregate != "" {
		sb.WriteString(" " + string(c.Aggregate))
	}
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if c.IsAutoIncrement() {
		sb.WriteString(" AUTO_INCREMENT")
	}
	if c.Default != nil {
		sb.WriteString(" DEFAULT " + *c.Default)
	}
	if c.GenerationExpression != "" {
		sb.WriteString(" AS " + c.GenerationExpression)
	}
	if c.Comment != "" {
		sb.WriteString(fmt.Sprintf(" COMMENT %q", c.Comment))
	}
	return sb.String()
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
