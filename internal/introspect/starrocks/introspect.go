// Package starrocks contains the introspect implementation for StarRocks. It talks to the
// frontend over the MySQL protocol, reads information_schema and SHOW output and hands the
// raw rows to package reflection.
package starrocks

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/introspect"
	"srschema/internal/reflection"
)

// DefaultConcurrency is the number of tables reflected in parallel.
const DefaultConcurrency = 4

// Options configures an introspecter.
type Options struct {
	Logger *zap.Logger
	Parser *clause.Parser
	// Concurrency bounds parallel table reflection; zero means DefaultConcurrency.
	Concurrency int
	// RunMode overrides run mode detection when set.
	RunMode core.RunMode
}

type introspecter struct {
	db      *sql.DB
	builder *reflection.Builder
	log     *zap.Logger
	opts    Options
}

var _ introspect.Inspector = (*introspecter)(nil)

// New returns an Inspector reading through db.
func New(db *sql.DB, opts Options) introspect.Inspector {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Parser == nil {
		opts.Parser = clause.New()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &introspecter{
		db:      db,
		builder: reflection.NewBuilder(opts.Parser, opts.Logger),
		log:     opts.Logger,
		opts:    opts,
	}
}

// Introspect reflects every table, view and materialized view of schema. An
// empty schema means the connection's current database.
func (i *introspecter) Introspect(ctx context.Context, schema string) (*core.Database, error) {
	if schema == "" {
		var current sql.NullString
		if err := i.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&current); err != nil {
			return nil, fmt.Errorf("current database: %w", err)
		}
		if current.String == "" {
			return nil, fmt.Errorf("no database selected")
		}
		schema = current.String
	}

	d := &core.Database{Name: schema, RunMode: i.RunMode(ctx)}
	if v, err := i.Version(ctx); err != nil {
		i.log.Warn("could not read server version", zap.Error(err))
	} else {
		d.Version = v
	}

	mvNames := i.MaterializedViewNames(ctx, schema)
	isMV := make(map[string]bool, len(mvNames))
	for _, n := range mvNames {
		isMV[n] = true
	}

	names, err := i.TableNames(ctx, schema)
	if err != nil {
		return nil, err
	}
	tableNames := names[:0]
	for _, n := range names {
		if !isMV[n] {
			tableNames = append(tableNames, n)
		}
	}

	tables := make([]*core.Table, len(tableNames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Concurrency)
	for idx, name := range tableNames {
		g.Go(func() error {
			t, err := i.Table(gctx, schema, name)
			if err != nil {
				return err
			}
			tables[idx] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.Tables = tables

	d.Views = i.Views(ctx, schema)

	for _, n := range mvNames {
		if mv := i.MaterializedView(ctx, schema, n); mv != nil {
			d.MaterializedViews = append(d.MaterializedViews, mv)
		}
	}

	i.log.Debug("introspected database",
		zap.String("schema", schema),
		zap.Int("tables", len(d.Tables)),
		zap.Int("views", len(d.Views)),
		zap.Int("materialized_views", len(d.MaterializedViews)))
	return d, nil
}
