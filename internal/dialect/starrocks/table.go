package starrocks

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"srschema/internal/core"
	"srschema/internal/normalize"
	"srschema/internal/operation"
)

// GenerateCreateTable renders a CREATE TABLE statement with the clauses in the
// order the server expects them.
func (g *Generator) GenerateCreateTable(t *core.Table) (string, error) {
	if err := core.ValidateTable(t); err != nil {
		return "", fmt.Errorf("table %s: %w", t.QualifiedName(), err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", g.qualified(t.Schema, t.Name))

	lines := make([]string, 0, len(t.Columns)+len(t.Indexes))
	for _, c := range t.Columns {
		lines = append(lines, "  "+g.columnDefinition(c))
	}
	for _, idx := range t.Indexes {
		lines = append(lines, "  "+g.inlineIndex(idx))
	}
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")

	for _, clause := range g.tableClauses(t) {
		sb.WriteString("\n")
		sb.WriteString(clause)
	}
	sb.WriteString(";")
	return sb.String(), nil
}

func (g *Generator) tableClauses(t *core.Table) []string {
	o := t.Options
	var clauses []string
	if o.Engine != "" {
		clauses = append(clauses, "ENGINE="+core.NormalizeEngine(o.Engine))
	}
	if o.Key != nil && len(o.Key.Columns) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s%s", o.Key.Type, g.formatColumns(o.Key.Columns)))
	}
	if t.Comment != "" {
		clauses = append(clauses, "COMMENT "+g.QuoteString(t.Comment))
	}
	if o.Partition != nil {
		clauses = append(clauses, "PARTITION BY "+o.Partition.String())
	}
	if o.Distribution != nil {
		clauses = append(clauses, "DISTRIBUTED BY "+o.Distribution.String())
	}
	if o.OrderBy != "" {
		clauses = append(clauses, "ORDER BY "+g.formatColumns(normalize.SplitColumns(o.OrderBy)))
	}
	if len(o.Properties) > 0 {
		clauses = append(clauses, "PROPERTIES "+g.formatProperties(o.Properties))
	}
	return clauses
}

func (g *Generator) columnDefinition(c *core.Column) string {
	typ := c.TypeRaw
	if c.IsAutoIncrement() {
		typ = "BIGINT"
	}
	parts := []string{g.QuoteIdentifier(c.Name), typ}

	if c.Aggregate.IsFunction() {
		parts = append(parts, string(c.Aggregate))
	}
	if !c.Nullable || c.IsAutoIncrement() {
		parts = append(parts, "NOT NULL")
	} else {
		parts = append(parts, "NULL")
	}
	if c.IsAutoIncrement() {
		parts = append(parts, "AUTO_INCREMENT")
	}

	switch {
	case c.GenerationExpression != "":
		parts = append(parts, "AS "+c.GenerationExpression)
	case c.Default != nil:
		parts = append(parts, "DEFAULT "+g.formatValue(*c.Default))
	}

	if c.Comment != "" {
		parts = append(parts, "COMMENT "+g.QuoteString(c.Comment))
	}
	return strings.Join(parts, " ")
}

func (g *Generator) inlineIndex(idx *core.Index) string {
	s := fmt.Sprintf("INDEX %s %s USING %s", g.QuoteIdentifier(idx.Name), g.formatColumns(idx.Columns), indexType(idx))
	if idx.Comment != "" {
		s += " COMMENT " + g.QuoteString(idx.Comment)
	}
	return s
}

func indexType(idx *core.Index) string {
	if t := strings.TrimSpace(idx.Type); t != "" {
		return strings.ToUpper(t)
	}
	return "BITMAP"
}

func (g *Generator) addColumn(o *operation.AddColumn) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", g.tableRef(o.TableRef), g.columnDefinition(o.Column))}, nil
}

func (g *Generator) dropColumn(o *operation.DropColumn) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", g.tableRef(o.TableRef), g.QuoteIdentifier(o.Column.Name))}, nil
}

func (g *Generator) alterColumn(o *operation.AlterColumn) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", g.tableRef(o.TableRef), g.columnDefinition(o.Column))}, nil
}

func (g *Generator) addIndex(o *operation.AddIndex) ([]string, error) {
	stmt := fmt.Sprintf("CREATE INDEX %s ON %s %s USING %s",
		g.QuoteIdentifier(o.Index.Name), g.tableRef(o.TableRef), g.formatColumns(o.Index.Columns), indexType(o.Index))
	if o.Index.Comment != "" {
		stmt += " COMMENT " + g.QuoteString(o.Index.Comment)
	}
	return []string{stmt + ";"}, nil
}

func (g *Generator) dropIndex(o *operation.DropIndex) ([]string, error) {
	return []string{fmt.Sprintf("DROP INDEX %s ON %s;", g.QuoteIdentifier(o.Index.Name), g.tableRef(o.TableRef))}, nil
}

func (g *Generator) alterComment(o *operation.AlterTableComment) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s COMMENT = %s;", g.tableRef(o.TableRef), g.QuoteString(o.Comment))}, nil
}

func (g *Generator) alterDistribution(o *operation.AlterTableDistribution) ([]string, error) {
	if o.Distribution == nil {
		return nil, fmt.Errorf("no distribution to set")
	}
	return []string{fmt.Sprintf("ALTER TABLE %s DISTRIBUTED BY %s;", g.tableRef(o.TableRef), o.Distribution.String())}, nil
}

func (g *Generator) alterOrder(o *operation.AlterTableOrder) ([]string, error) {
	cols := normalize.SplitColumns(o.OrderBy)
	if len(cols) == 0 {
		return nil, fmt.Errorf("ORDER BY needs at least one column")
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ORDER BY %s;", g.tableRef(o.TableRef), g.formatColumns(cols))}, nil
}

// alterProperties emits one statement per property; the server rejects
// several properties in one SET for most keys.
func (g *Generator) alterProperties(o *operation.AlterTableProperties) ([]string, error) {
	table := g.tableRef(o.TableRef)
	out := make([]string, 0, len(o.Properties))
	for _, k := range sortedKeys(o.Properties) {
		out = append(out, fmt.Sprintf("ALTER TABLE %s SET (%s);", table, g.quoteProperty(k, o.Properties[k])))
	}
	return out, nil
}

func (g *Generator) createTable(o *operation.CreateTable) ([]string, error) {
	stmt, err := g.GenerateCreateTable(o.Table)
	if err != nil {
		return nil, err
	}
	return []string{stmt}, nil
}

func (g *Generator) dropTable(o *operation.DropTable) ([]string, error) {
	return []string{g.GenerateDropTable(o.Table)}, nil
}

func (g *Generator) formatColumns(cols []string) string {
	var quoted []string
	for _, c := range cols {
		c = normalize.StripIdentifierQuotes(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		quoted = append(quoted, g.QuoteIdentifier(c))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func (g *Generator) formatProperties(props map[string]string) string {
	entries := make([]string, 0, len(props))
	for _, k := range sortedKeys(props) {
		entries = append(entries, g.quoteProperty(k, props[k]))
	}
	return "(\n  " + strings.Join(entries, ",\n  ") + "\n)"
}

func (g *Generator) formatValue(v string) string {
	v = normalize.DefaultValue(v)
	if v == "" {
		return "''"
	}

	upper := strings.ToUpper(v)
	keywords := []string{"NULL", "CURRENT_TIMESTAMP", "CURRENT_DATE", "NOW()", "TRUE", "FALSE"}
	if slices.Contains(keywords, upper) {
		return upper
	}

	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}

	if strings.HasSuffix(v, ")") && strings.Contains(v, "(") {
		return v
	}

	return g.QuoteString(v)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
