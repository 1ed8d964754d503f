// Package introspect contains the inspector interface which lets you read the current state of a
// StarRocks database. Whole-database introspection returns a core.Database with every table, view
// and materialized view, or an error if connection/queries were unsuccessful.
package introspect

import (
	"context"

	"srschema/internal/core"
)

// Inspector reads the live state of one StarRocks cluster. Lookups of a
// single object return a core.ErrNotFound error (tables) or nil (views) when
// the object does not exist. Listings are best-effort: on failure they log
// and return what was collected so far.
type Inspector interface {
	Introspect(ctx context.Context, schema string) (*core.Database, error)

	TableNames(ctx context.Context, schema string) ([]string, error)
	Table(ctx context.Context, schema, name string) (*core.Table, error)
	TableOptions(ctx context.Context, schema, name string) (core.TableOptions, error)
	Columns(ctx context.Context, schema, name string) ([]*core.Column, error)

	ViewNames(ctx context.Context, schema string) []string
	View(ctx context.Context, schema, name string) *core.View
	Views(ctx context.Context, schema string) []*core.View

	MaterializedViewNames(ctx context.Context, schema string) []string
	MaterializedView(ctx context.Context, schema, name string) *core.MaterializedView

	RunMode(ctx context.Context) core.RunMode
	Version(ctx context.Context) (string, error)
}
