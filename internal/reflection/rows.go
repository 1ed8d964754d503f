package reflection

import (
	"database/sql"
	"strconv"
	"strings"
)

// Row is one raw introspection result row keyed by uppercased column name.
// It is the only shape the driver layer hands over; every parser in this
// package consumes the typed records below instead.
type Row map[string]sql.NullString

// NewRow builds a Row from plain values, mostly for tests. Nil values are NULL.
func NewRow(values map[string]*string) Row {
	r := make(Row, len(values))
	for k, v := range values {
		if v == nil {
			r[strings.ToUpper(k)] = sql.NullString{}
			continue
		}
		r[strings.ToUpper(k)] = sql.NullString{String: *v, Valid: true}
	}
	return r
}

// Str returns the first non-empty value among keys, trimmed.
func (r Row) Str(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[strings.ToUpper(k)]; ok && v.Valid {
			if s := strings.TrimSpace(v.String); s != "" {
				return s
			}
		}
	}
	return ""
}

// Raw returns the value of key untouched, or "" when it is NULL or missing.
func (r Row) Raw(key string) string {
	return r[strings.ToUpper(key)].String
}

// Ptr returns the value of key, or nil when it is NULL or missing.
func (r Row) Ptr(key string) *string {
	v, ok := r[strings.ToUpper(key)]
	if !ok || !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// Int returns the integer value of key and whether it was present and valid.
func (r Row) Int(key string) (int, bool) {
	s := r.Str(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TableRow is a row of information_schema.tables.
type TableRow struct {
	Schema  string
	Name    string
	Type    string
	Engine  string
	Comment string
}

// TableConfigRow is a row of information_schema.tables_config, extended with
// the PARTITION BY clause taken from SHOW CREATE TABLE.
type TableConfigRow struct {
	Schema           string
	Name             string
	Engine           string
	Model            string
	PrimaryKey       string
	PartitionKey     string
	DistributeKey    string
	DistributeType   string
	DistributeBucket *int
	SortKey          string
	Properties       string
	PartitionClause  string
}

// ColumnRow is a row of information_schema.columns.
type ColumnRow struct {
	Name                 string
	Ordinal              int
	Type                 string
	DataType             string
	Nullable             bool
	Default              *string
	Key                  string
	Comment              string
	GenerationExpression string
}

// FullColumnRow is a row of SHOW FULL COLUMNS; only Extra is used, for the
// aggregate marker and AUTO_INCREMENT.
type FullColumnRow struct {
	Field string
	Extra string
}

// IndexRow is a row of SHOW INDEX.
type IndexRow struct {
	Name      string
	Column    string
	Seq       int
	IndexType string
	Comment   string
}

// ViewRow is a row of information_schema.views.
type ViewRow struct {
	Schema     string
	Name       string
	Definition string
	Security   string
}

// MaterializedViewRow is a row of information_schema.materialized_views.
type MaterializedViewRow struct {
	Schema      string
	Name        string
	Definition  string
	RefreshType string
	IsActive    string
	CreateSQL   string
}

// Synthesized keys: PartitionClauseKey carries the PARTITION BY clause next to
// the tables_config columns, CreateSQLKey the SHOW CREATE output of a
// materialized view next to its materialized_views columns.
const (
	PartitionClauseKey = "PARTITION_CLAUSE"
	CreateSQLKey       = "CREATE_SQL"
)

func MapTableRow(r Row) TableRow {
	return TableRow{
		Schema:  r.Str("TABLE_SCHEMA"),
		Name:    r.Str("TABLE_NAME"),
		Type:    r.Str("TABLE_TYPE"),
		Engine:  r.Str("ENGINE"),
		Comment: r.Raw("TABLE_COMMENT"),
	}
}

func MapTableConfigRow(r Row) TableConfigRow {
	row := TableConfigRow{
		Schema:          r.Str("TABLE_SCHEMA"),
		Name:            r.Str("TABLE_NAME"),
		Engine:          r.Str("TABLE_ENGINE"),
		Model:           r.Str("TABLE_MODEL"),
		PrimaryKey:      r.Str("PRIMARY_KEY"),
		PartitionKey:    r.Str("PARTITION_KEY"),
		DistributeKey:   r.Str("DISTRIBUTE_KEY"),
		DistributeType:  r.Str("DISTRIBUTE_TYPE"),
		SortKey:         r.Str("SORT_KEY"),
		Properties:      r.Str("PROPERTIES"),
		PartitionClause: r.Str(PartitionClauseKey),
	}
	if n, ok := r.Int("DISTRIBUTE_BUCKET"); ok {
		row.DistributeBucket = &n
	}
	return row
}

func MapColumnRow(r Row) ColumnRow {
	ordinal, _ := r.Int("ORDINAL_POSITION")
	return ColumnRow{
		Name:                 r.Str("COLUMN_NAME"),
		Ordinal:              ordinal,
		Type:                 r.Str("COLUMN_TYPE", "DATA_TYPE"),
		DataType:             r.Str("DATA_TYPE"),
		Nullable:             strings.EqualFold(r.Str("IS_NULLABLE"), "YES"),
		Default:              r.Ptr("COLUMN_DEFAULT"),
		Key:                  r.Str("COLUMN_KEY"),
		Comment:              r.Raw("COLUMN_COMMENT"),
		GenerationExpression: r.Str("GENERATION_EXPRESSION"),
	}
}

func MapFullColumnRow(r Row) FullColumnRow {
	return FullColumnRow{Field: r.Str("FIELD"), Extra: r.Str("EXTRA")}
}

func MapIndexRow(r Row) IndexRow {
	seq, _ := r.Int("SEQ_IN_INDEX")
	return IndexRow{
		Name:      r.Str("KEY_NAME"),
		Column:    r.Str("COLUMN_NAME"),
		Seq:       seq,
		IndexType: r.Str("INDEX_TYPE"),
		Comment:   r.Str("INDEX_COMMENT", "COMMENT"),
	}
}

func MapViewRow(r Row) ViewRow {
	return ViewRow{
		Schema:     r.Str("TABLE_SCHEMA"),
		Name:       r.Str("TABLE_NAME"),
		Definition: r.Raw("VIEW_DEFINITION"),
		Security:   r.Str("SECURITY_TYPE"),
	}
}

func MapMaterializedViewRow(r Row) MaterializedViewRow {
	return MaterializedViewRow{
		Schema:      r.Str("TABLE_SCHEMA"),
		Name:        r.Str("TABLE_NAME"),
		Definition:  r.Str("VIEW_DEFINITION", "MATERIALIZED_VIEW_DEFINITION"),
		RefreshType: r.Str("REFRESH_TYPE"),
		IsActive:    r.Str("IS_ACTIVE"),
		CreateSQL:   r.Raw(CreateSQLKey),
	}
}
