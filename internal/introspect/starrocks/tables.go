package starrocks

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"srschema/internal/core"
	"srschema/internal/reflection"
)

// TableNames lists the base tables of schema, sorted by name.
func (i *introspecter) TableNames(ctx context.Context, schema string) ([]string, error) {
	rows, err := i.queryRows(ctx, infoSchemaQuery("tables",
		filter{"TABLE_SCHEMA", schema},
		filter{"TABLE_TYPE", "BASE TABLE"},
	))
	if err != nil {
		return nil, fmt.Errorf("list tables of %s: %w", schema, err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, reflection.MapTableRow(r).Name)
	}
	sort.Strings(names)
	return names, nil
}

// Table reflects schema.name from information_schema plus SHOW output.
func (i *introspecter) Table(ctx context.Context, schema, name string) (*core.Table, error) {
	in, err := i.tableInput(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	return i.builder.BuildTable(schema, name, in)
}

// TableOptions reflects only the table-level clauses of schema.name.
func (i *introspecter) TableOptions(ctx context.Context, schema, name string) (core.TableOptions, error) {
	t, err := i.Table(ctx, schema, name)
	if err != nil {
		return core.TableOptions{}, err
	}
	return t.Options, nil
}

// Columns reflects the columns of schema.name in ordinal order.
func (i *introspecter) Columns(ctx context.Context, schema, name string) ([]*core.Column, error) {
	t, err := i.Table(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

func (i *introspecter) tableInput(ctx context.Context, schema, name string) (reflection.TableInput, error) {
	var in reflection.TableInput
	byName := []filter{{"TABLE_SCHEMA", schema}, {"TABLE_NAME", name}}

	rows, err := i.queryRows(ctx, infoSchemaQuery("tables", byName...))
	if err != nil {
		return in, fmt.Errorf("reflect table %s: %w", qualifiedIdent(schema, name), err)
	}
	for _, r := range rows {
		in.Tables = append(in.Tables, reflection.MapTableRow(r))
	}
	if len(in.Tables) == 0 {
		return in, fmt.Errorf("table %s: %w", qualifiedIdent(schema, name), core.ErrNotFound)
	}

	rows, err = i.queryRows(ctx, infoSchemaQuery("tables_config", byName...))
	if err != nil {
		return in, fmt.Errorf("reflect table options of %s: %w", qualifiedIdent(schema, name), err)
	}
	partition := i.partitionClause(ctx, schema, name)
	for _, r := range rows {
		cfg := reflection.MapTableConfigRow(r)
		cfg.PartitionClause = partition
		in.Configs = append(in.Configs, cfg)
	}

	rows, err = i.queryRows(ctx, infoSchemaQuery("columns", byName...)+" ORDER BY ORDINAL_POSITION")
	if err != nil {
		return in, fmt.Errorf("reflect columns of %s: %w", qualifiedIdent(schema, name), err)
	}
	for _, r := range rows {
		in.Columns = append(in.Columns, reflection.MapColumnRow(r))
	}

	if rows, err := i.queryRows(ctx, "SHOW FULL COLUMNS FROM "+qualifiedIdent(schema, name)); err != nil {
		i.log.Warn("could not read column markers", zap.String("table", name), zap.Error(err))
	} else {
		for _, r := range rows {
			in.FullColumns = append(in.FullColumns, reflection.MapFullColumnRow(r))
		}
	}

	if rows, err := i.queryRows(ctx, "SHOW INDEX FROM "+qualifiedIdent(schema, name)); err != nil {
		i.log.Warn("could not read indexes", zap.String("table", name), zap.Error(err))
	} else {
		for _, r := range rows {
			in.Indexes = append(in.Indexes, reflection.MapIndexRow(r))
		}
	}

	return in, nil
}

// partitionClause extracts the PARTITION BY clause from SHOW CREATE TABLE.
// Failures are logged and treated as an unpartitioned table.
func (i *introspecter) partitionClause(ctx context.Context, schema, name string) string {
	ddl, err := i.queryColumn(ctx, "SHOW CREATE TABLE "+qualifiedIdent(schema, name), 1)
	if err != nil || len(ddl) == 0 {
		i.log.Warn("could not read partition clause", zap.String("table", name), zap.Error(err))
		return ""
	}
	return i.opts.Parser.ExtractPartitionClause(ddl[0])
}
