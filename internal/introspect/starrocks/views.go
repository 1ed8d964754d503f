package starrocks

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"srschema/internal/core"
	"srschema/internal/reflection"
)

// ViewNames lists the views of schema. On failure it logs and returns the
// names read so far.
func (i *introspecter) ViewNames(ctx context.Context, schema string) []string {
	rows, err := i.queryRows(ctx, infoSchemaQuery("views", filter{"TABLE_SCHEMA", schema}))
	if err != nil {
		i.log.Warn("could not list views", zap.String("schema", schema), zap.Error(err))
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, reflection.MapViewRow(r).Name)
	}
	sort.Strings(names)
	return names
}

// View reflects schema.name, or returns nil when it does not exist or cannot
// be read.
func (i *introspecter) View(ctx context.Context, schema, name string) *core.View {
	rows, err := i.queryRows(ctx, infoSchemaQuery("views",
		filter{"TABLE_SCHEMA", schema},
		filter{"TABLE_NAME", name},
	))
	if err != nil {
		i.log.Warn("could not read view", zap.String("view", name), zap.Error(err))
		return nil
	}
	viewRows := make([]reflection.ViewRow, 0, len(rows))
	for _, r := range rows {
		viewRows = append(viewRows, reflection.MapViewRow(r))
	}
	v, err := i.builder.BuildView(schema, name, viewRows)
	if err != nil {
		i.log.Warn("could not reflect view", zap.String("view", name), zap.Error(err))
		return nil
	}
	return v
}

// Views reflects every view of schema, sorted by name. On failure it logs and
// returns the views read so far.
func (i *introspecter) Views(ctx context.Context, schema string) []*core.View {
	rows, err := i.queryRows(ctx, infoSchemaQuery("views", filter{"TABLE_SCHEMA", schema}))
	if err != nil {
		i.log.Warn("could not list views", zap.String("schema", schema), zap.Error(err))
	}
	viewRows := make([]reflection.ViewRow, 0, len(rows))
	for _, r := range rows {
		viewRows = append(viewRows, reflection.MapViewRow(r))
	}

	byKey := i.builder.BuildViews(schema, viewRows)
	views := make([]*core.View, 0, len(byKey))
	for _, v := range byKey {
		views = append(views, v)
	}
	sort.Slice(views, func(a, b int) bool { return views[a].QualifiedName() < views[b].QualifiedName() })
	return views
}

// MaterializedViewNames lists the materialized views of schema. On failure it
// logs and returns the names read so far.
func (i *introspecter) MaterializedViewNames(ctx context.Context, schema string) []string {
	rows, err := i.queryRows(ctx, infoSchemaQuery("materialized_views", filter{"TABLE_SCHEMA", schema}))
	if err != nil {
		i.log.Warn("could not list materialized views", zap.String("schema", schema), zap.Error(err))
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, reflection.MapMaterializedViewRow(r).Name)
	}
	sort.Strings(names)
	return names
}

// MaterializedView reflects schema.name, or returns nil when it does not exist
// or cannot be read. The SHOW CREATE MATERIALIZED VIEW text is optional.
func (i *introspecter) MaterializedView(ctx context.Context, schema, name string) *core.MaterializedView {
	rows, err := i.queryRows(ctx, infoSchemaQuery("materialized_views",
		filter{"TABLE_SCHEMA", schema},
		filter{"TABLE_NAME", name},
	))
	if err != nil {
		i.log.Warn("could not read materialized view", zap.String("materialized_view", name), zap.Error(err))
		return nil
	}

	mvRows := make([]reflection.MaterializedViewRow, 0, len(rows))
	for _, r := range rows {
		mvRows = append(mvRows, reflection.MapMaterializedViewRow(r))
	}
	if len(mvRows) == 1 {
		ddl, err := i.queryColumn(ctx, "SHOW CREATE MATERIALIZED VIEW "+qualifiedIdent(schema, name), 1)
		if err != nil || len(ddl) == 0 {
			i.log.Warn("could not read materialized view clauses", zap.String("materialized_view", name), zap.Error(err))
		} else {
			mvRows[0].CreateSQL = ddl[0]
		}
	}

	mv, err := i.builder.BuildMaterializedView(schema, name, mvRows)
	if err != nil {
		i.log.Warn("could not reflect materialized view", zap.String("materialized_view", name), zap.Error(err))
		return nil
	}
	return mv
}
