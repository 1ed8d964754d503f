package starrocks

import (
	"fmt"
	"strings"

	"srschema/internal/core"
	"srschema/internal/normalize"
	"srschema/internal/operation"
)

func (g *Generator) createView(o *operation.CreateView) ([]string, error) {
	v := o.View
	if strings.TrimSpace(v.Definition) == "" {
		return nil, fmt.Errorf("view %s: definition is empty", v.QualifiedName())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE VIEW %s", g.qualified(v.Schema, v.Name))
	if cols := g.viewColumns(v.Columns, true); cols != "" {
		sb.WriteString(" " + cols)
	}
	if v.Comment != "" {
		sb.WriteString("\nCOMMENT " + g.QuoteString(v.Comment))
	}
	if s := normalize.Upper(v.Security); s != "" {
		sb.WriteString("\nSECURITY " + s)
	}
	sb.WriteString("\nAS " + viewBody(v.Definition) + ";")
	return []string{sb.String()}, nil
}

// alterView replaces the definition. ALTER VIEW keeps neither the comment nor
// the security mode, so only the column list and the body are rendered.
func (g *Generator) alterView(o *operation.AlterView) ([]string, error) {
	v := o.View
	var sb strings.Builder
	fmt.Fprintf(&sb, "ALTER VIEW %s", g.qualified(v.Schema, v.Name))
	if cols := g.viewColumns(v.Columns, false); cols != "" {
		sb.WriteString(" " + cols)
	}
	sb.WriteString("\nAS " + viewBody(v.Definition) + ";")
	return []string{sb.String()}, nil
}

func (g *Generator) dropView(o *operation.DropView) ([]string, error) {
	return []string{fmt.Sprintf("DROP VIEW IF EXISTS %s;", g.qualified(o.View.Schema, o.View.Name))}, nil
}

func (g *Generator) viewColumns(cols []core.ViewColumn, withComments bool) string {
	if len(cols) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		p := g.QuoteIdentifier(c.Name)
		if withComments && c.Comment != "" {
			p += " COMMENT " + g.QuoteString(c.Comment)
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (g *Generator) createMaterializedView(o *operation.CreateMaterializedView) ([]string, error) {
	stmt, err := g.materializedViewDDL(o.View)
	if err != nil {
		return nil, err
	}
	return []string{stmt}, nil
}

func (g *Generator) materializedViewDDL(mv *core.MaterializedView) (string, error) {
	if strings.TrimSpace(mv.Definition) == "" {
		return "", fmt.Errorf("materialized view %s: definition is empty", mv.QualifiedName())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE MATERIALIZED VIEW %s", g.qualified(mv.Schema, mv.Name))
	if mv.Comment != "" {
		sb.WriteString("\nCOMMENT " + g.QuoteString(mv.Comment))
	}
	if mv.Partition != nil {
		sb.WriteString("\nPARTITION BY " + mv.Partition.String())
	}
	if mv.Distribution != nil {
		sb.WriteString("\nDISTRIBUTED BY " + mv.Distribution.String())
	}
	if mv.OrderBy != "" {
		sb.WriteString("\nORDER BY " + g.formatColumns(normalize.SplitColumns(mv.OrderBy)))
	}
	if r := mv.Refresh(); r != "" {
		sb.WriteString("\nREFRESH " + r)
	}
	if len(mv.Properties) > 0 {
		sb.WriteString("\nPROPERTIES " + g.formatProperties(mv.Properties))
	}
	sb.WriteString("\nAS " + viewBody(mv.Definition) + ";")
	return sb.String(), nil
}

// alterMaterializedView recreates the view when its query or layout changed,
// otherwise it alters the refresh scheme and properties in place.
func (g *Generator) alterMaterializedView(o *operation.AlterMaterializedView) ([]string, error) {
	mv := o.View
	name := g.qualified(mv.Schema, mv.Name)

	if o.Recreate {
		create, err := g.materializedViewDDL(mv)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s;", name), create}, nil
	}

	var out []string
	if o.RefreshChanged && mv.RefreshType != "" {
		out = append(out, fmt.Sprintf("ALTER MATERIALIZED VIEW %s REFRESH %s;", name, mv.RefreshType))
	}
	for _, k := range sortedKeys(o.Properties) {
		out = append(out, fmt.Sprintf("ALTER MATERIALIZED VIEW %s SET (%s);", name, g.quoteProperty(k, o.Properties[k])))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("materialized view %s: nothing to alter", mv.QualifiedName())
	}
	return out, nil
}

func (g *Generator) dropMaterializedView(o *operation.DropMaterializedView) ([]string, error) {
	return []string{fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s;", g.qualified(o.View.Schema, o.View.Name))}, nil
}

func viewBody(def string) string {
	return strings.TrimRight(strings.TrimSpace(def), ";")
}
