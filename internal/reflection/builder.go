// Package reflection assembles the reflected state of tables, views and
// materialized views from raw introspection rows. It performs no I/O.
package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"srschema/internal/clause"
	"srschema/internal/core"
)

// Builder turns introspection rows into core structures.
type Builder struct {
	parser *clause.Parser
	log    *zap.Logger
}

// NewBuilder returns a Builder. A nil parser gets a fresh clause.Parser and a
// nil logger discards output.
func NewBuilder(p *clause.Parser, log *zap.Logger) *Builder {
	if p == nil {
		p = clause.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{parser: p, log: log}
}

// TableInput holds every row set that describes one table. FullColumns is
// optional and only supplies aggregate and auto increment markers.
type TableInput struct {
	Tables      []TableRow
	Configs     []TableConfigRow
	Columns     []ColumnRow
	FullColumns []FullColumnRow
	Indexes     []IndexRow
}

// BuildTable assembles the reflected state of schema.name. Exactly one tables
// row and one tables_config row are expected.
func (b *Builder) BuildTable(schema, name string, in TableInput) (*core.Table, error) {
	if err := checkSingle("information_schema.tables", schema, name, len(in.Tables)); err != nil {
		return nil, err
	}
	if err := checkSingle("information_schema.tables_config", schema, name, len(in.Configs)); err != nil {
		return nil, err
	}
	tr, cfg := in.Tables[0], in.Configs[0]

	t := &core.Table{
		Schema:  schema,
		Name:    name,
		Comment: tr.Comment,
	}

	opts, err := b.tableOptions(t.QualifiedName(), tr, cfg, in.Columns)
	if err != nil {
		return nil, err
	}
	t.Options = opts

	extras := make(map[string]string, len(in.FullColumns))
	for _, fc := range in.FullColumns {
		extras[strings.ToLower(fc.Field)] = strings.ToUpper(fc.Extra)
	}

	cols := sortedColumns(in.Columns)
	t.Columns = make([]*core.Column, 0, len(cols))
	for _, cr := range cols {
		extra, known := extras[strings.ToLower(cr.Name)]
		c := b.column(t.QualifiedName(), cr, extra, known)
		if opts.IsAggregate() && cr.Key != "" && c.Aggregate == "" {
			c.Aggregate = core.AggKey
		}
		t.Columns = append(t.Columns, c)
	}

	t.Indexes = buildIndexes(in.Indexes)
	return t, nil
}

func checkSingle(source, schema, name string, rows int) error {
	switch {
	case rows == 0:
		return fmt.Errorf("%s: table %s: %w", source, qualify(schema, name), core.ErrNotFound)
	case rows > 1:
		return &core.AmbiguousReflectionError{Source: source, Schema: schema, Name: name, Rows: rows}
	}
	return nil
}

func (b *Builder) tableOptions(table string, tr TableRow, cfg TableConfigRow, cols []ColumnRow) (core.TableOptions, error) {
	var opts core.TableOptions

	if engine := firstNonEmpty(cfg.Engine, tr.Engine); engine != "" {
		opts.Engine = strings.ToUpper(engine)
	}

	if cfg.Model != "" {
		kt, ok := core.KeyTypeFromModel(cfg.Model)
		if !ok {
			b.log.Warn("unknown table model, key left unset",
				zap.String("table", table), zap.String("model", cfg.Model))
		} else {
			opts.Key = &core.KeySpec{Type: kt, Columns: keyColumns(cols, cfg.PrimaryKey)}
		}
	}

	part, err := b.parser.ParsePartition(cfg.PartitionClause)
	if err != nil {
		return opts, fmt.Errorf("reflect %s: %w", table, err)
	}
	opts.Partition = part

	if cfg.DistributeType != "" {
		opts.Distribution = core.NewDistribution(
			core.DistributionType(strings.ToUpper(cfg.DistributeType)),
			clause.SplitColumnList(cfg.DistributeKey),
			cfg.DistributeBucket,
		)
	}

	opts.OrderBy = cfg.SortKey

	if cfg.Properties != "" {
		props, err := decodeProperties(cfg.Properties)
		if err != nil {
			b.log.Info("could not decode table properties",
				zap.String("table", table), zap.String("properties", cfg.Properties), zap.Error(err))
		} else {
			opts.Properties = props
		}
	}
	return opts, nil
}

// keyColumns returns the columns flagged as key columns in ordinal order,
// falling back to the comma separated list of tables_config.PRIMARY_KEY.
func keyColumns(cols []ColumnRow, fallback string) []string {
	var keys []string
	for _, c := range sortedColumns(cols) {
		if c.Key != "" {
			keys = append(keys, c.Name)
		}
	}
	if len(keys) == 0 {
		return clause.SplitColumnList(fallback)
	}
	return keys
}

func sortedColumns(cols []ColumnRow) []ColumnRow {
	out := append([]ColumnRow(nil), cols...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// decodeProperties reads the PROPERTIES JSON object. Non-string values are
// kept in their JSON text form.
func decodeProperties(raw string) (map[string]string, error) {
	var values map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	props := make(map[string]string, len(values))
	for k, v := range values {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			props[k] = s
			continue
		}
		props[k] = string(v)
	}
	return props, nil
}

// column maps one columns row. known reports whether SHOW FULL COLUMNS
// returned a row for it; without one the AUTO_INCREMENT flag stays unknown.
func (b *Builder) column(table string, cr ColumnRow, extra string, known bool) *core.Column {
	c := &core.Column{
		Name:                 cr.Name,
		TypeRaw:              cr.Type,
		Nullable:             cr.Nullable,
		Default:              cr.Default,
		Comment:              cr.Comment,
		GenerationExpression: cr.GenerationExpression,
	}

	typ, err := b.parser.ParseColumnType(cr.Type)
	var unknown *clause.UnknownTypeError
	switch {
	case errors.As(err, &unknown):
		b.log.Warn("unknown column type, keeping it untyped",
			zap.String("table", table), zap.String("column", cr.Name), zap.String("type", cr.Type))
	case err != nil:
		b.log.Warn("could not parse column type, keeping it untyped",
			zap.String("table", table), zap.String("column", cr.Name), zap.Error(err))
	default:
		c.Type = typ
	}

	if !known {
		return c
	}
	auto := strings.Contains(extra, "AUTO_INCREMENT")
	c.AutoIncrement = &auto
	if !auto && extra != "" {
		if agg, ok := core.ParseAggType(extra); ok {
			c.Aggregate = agg
		}
	}
	return c
}

func buildIndexes(rows []IndexRow) []*core.Index {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]IndexRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	var indexes []*core.Index
	byName := make(map[string]*core.Index)
	for _, r := range sorted {
		idx, ok := byName[r.Name]
		if !ok {
			idx = &core.Index{Name: r.Name, Type: strings.ToUpper(r.IndexType), Comment: r.Comment}
			byName[r.Name] = idx
			indexes = append(indexes, idx)
		}
		idx.Columns = append(idx.Columns, r.Column)
	}
	return indexes
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
