package reflection

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/normalize"
)

// Key identifies a reflected object by schema and name.
type Key struct {
	Schema string
	Name   string
}

func (k Key) String() string {
	return qualify(k.Schema, k.Name)
}

// BuildView assembles a view from its information_schema.views rows. No rows
// means the view does not exist and yields nil without an error.
func (b *Builder) BuildView(schema, name string, rows []ViewRow) (*core.View, error) {
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, &core.AmbiguousReflectionError{Source: "information_schema.views", Schema: schema, Name: name, Rows: len(rows)}
	}
	return viewFromRow(schema, name, rows[0]), nil
}

func viewFromRow(schema, name string, r ViewRow) *core.View {
	return core.ViewDefaults(&core.View{
		Schema:     schema,
		Name:       name,
		Definition: normalize.StripIdentifierQuotes(r.Definition),
		Security:   r.Security,
	})
}

// BuildViews assembles every view in rows. Rows with the same key after the
// first are ignored with a warning.
func (b *Builder) BuildViews(schema string, rows []ViewRow) map[Key]*core.View {
	views := make(map[Key]*core.View, len(rows))
	for _, r := range rows {
		s := firstNonEmpty(r.Schema, schema)
		k := Key{Schema: s, Name: r.Name}
		if _, dup := views[k]; dup {
			b.log.Warn("duplicate view row ignored", zap.String("view", k.String()))
			continue
		}
		views[k] = viewFromRow(s, r.Name, r)
	}
	return views
}

// BuildMaterializedView assembles a materialized view from its
// information_schema.materialized_views row. When the row carries the SHOW
// CREATE MATERIALIZED VIEW text, the clauses are recovered from it. No rows
// yields nil without an error.
func (b *Builder) BuildMaterializedView(schema, name string, rows []MaterializedViewRow) (*core.MaterializedView, error) {
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, &core.AmbiguousReflectionError{Source: "information_schema.materialized_views", Schema: schema, Name: name, Rows: len(rows)}
	}
	r := rows[0]

	mv := &core.MaterializedView{
		Schema:      schema,
		Name:        name,
		Definition:  r.Definition,
		RefreshType: strings.ToUpper(r.RefreshType),
	}

	if r.CreateSQL != "" {
		if err := b.applyCreateSQL(mv, r.CreateSQL); err != nil {
			return nil, fmt.Errorf("reflect materialized view %s: %w", mv.QualifiedName(), err)
		}
	}

	mv.Definition = normalize.StripIdentifierQuotes(mv.Definition)
	mv.Security = strings.ToUpper(strings.TrimSpace(mv.Security))
	return mv, nil
}

func (b *Builder) applyCreateSQL(mv *core.MaterializedView, ddl string) error {
	c := clause.SplitMaterializedView(ddl)

	mv.Comment = c.Comment
	if mv.Definition == "" {
		mv.Definition = c.Definition
	}

	part, err := b.parser.ParsePartition(normalize.RemoveOuterParentheses(c.Partition))
	if err != nil {
		return err
	}
	mv.Partition = part

	dist, err := b.parser.ParseDistribution(c.Distribution)
	if err != nil {
		return err
	}
	mv.Distribution = dist

	mv.OrderBy = normalize.RemoveOuterParentheses(c.OrderBy)

	if c.Refresh != "" {
		moment, typ := b.parser.ParseRefresh(c.Refresh)
		mv.RefreshMoment = moment
		if typ != "" {
			mv.RefreshType = strings.ToUpper(typ)
		}
	}

	mv.Properties = c.Properties
	return nil
}
