// Package dialect defines the interface between synthesized operations and
// the SQL text a target database expects. StarRocks is the only dialect; its
// generator lives in the starrocks subpackage.
package dialect

import (
	"srschema/internal/core"
	"srschema/internal/migration"
	"srschema/internal/operation"
)

type Type string

const (
	StarRocks Type = "starrocks"
)

// Generator renders operations into DDL statements.
// NOTE: Render must cover every operation.Kind; unknown kinds are an error.
type Generator interface {
	GenerateMigration(plan *operation.Plan, opts MigrationOptions) (*migration.Migration, error)
	Render(op operation.Operation) ([]string, error)
	GenerateCreateTable(table *core.Table) (string, error)
	GenerateDropTable(table *core.Table) string
	QuoteIdentifier(name string) string
	QuoteString(value string) string
}

// MigrationOptions have all possible options that user can specify during migration.
type MigrationOptions struct {
	Dialect Type
	// IncludeDrops emits DROP statements for removed tables, views and
	// materialized views. Without it the drops are reported as notes.
	IncludeDrops bool
	// IncludeUnsafe drops tables and columns for real. Without it they are
	// renamed to a backup name so the rollback can restore the data.
	IncludeUnsafe bool
}

// DefaultMigrationOptions creates a new MigrationOptions instance with default values.
func DefaultMigrationOptions(dialect Type) MigrationOptions {
	return MigrationOptions{
		Dialect:       dialect,
		IncludeDrops:  true,
		IncludeUnsafe: false,
	}
}
