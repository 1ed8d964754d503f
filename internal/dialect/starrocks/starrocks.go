// Package starrocks renders synthesized operations into StarRocks DDL and
// assembles up/down migrations.
package starrocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"srschema/internal/core"
	"srschema/internal/dialect"
	"srschema/internal/migration"
	"srschema/internal/operation"
)

// Instead of dropping tables and columns, safe mode renames them to a backup
// name, so that rollback is possible and all data is preserved.
const backupSuffixPrefix = "__srschema_backup_"

const maxIdentLen = 64

// Generator is a stateless StarRocks DDL generator.
type Generator struct {
	log *zap.Logger
}

var _ dialect.Generator = (*Generator)(nil)

// New initializes a generator. A nil logger disables logging.
func New(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log}
}

// GenerateMigration renders every operation of the plan together with its
// inverse. Operations without an inverse are reported as unresolved.
func (g *Generator) GenerateMigration(plan *operation.Plan, opts dialect.MigrationOptions) (*migration.Migration, error) {
	m := &migration.Migration{}
	if plan == nil {
		return m, nil
	}

	for _, n := range plan.Notes {
		m.AddNote(n)
	}
	if !opts.IncludeUnsafe {
		m.AddNote("Safe mode: dropped tables and columns are renamed to *" + backupSuffixPrefix + "* instead of dropped to enable a reliable rollback.")
	}

	for _, op := range plan.Operations {
		if isDrop(op) && !opts.IncludeDrops {
			m.AddNote(fmt.Sprintf("Skipped %s %s: drops are disabled.", op.Kind(), op.Target()))
			continue
		}

		step, noRollback, err := g.step(op, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s %s: %w", op.Kind(), op.Target(), err)
		}
		if noRollback != nil {
			m.AddUnresolved(fmt.Sprintf("No rollback for %s %s: %v", op.Kind(), op.Target(), noRollback))
		}
		if step.Risk == core.RiskBreaking {
			m.AddBreaking(fmt.Sprintf("%s %s: data is removed permanently", op.Kind(), op.Target()))
		}
		m.AddOperation(step)
	}

	if m.HasAsync() {
		m.AddNote("Schema change jobs run asynchronously: wait for SHOW ALTER TABLE to report FINISHED before running dependent statements.")
	}

	m.Dedupe()
	g.log.Debug("migration generated", zap.Int("operations", len(plan.Operations)), zap.Int("statements", len(m.SQLStatements())))
	return m, nil
}

// step renders one operation and its rollback into a migration step. When the
// rollback cannot be rendered, the reason is returned next to the step.
func (g *Generator) step(op operation.Operation, opts dialect.MigrationOptions) (core.Operation, error, error) {
	step := core.Operation{
		Kind:   core.OperationSQL,
		Risk:   riskOf(op),
		Async:  isAsync(op),
		Source: op.Kind().String(),
		Target: op.Target(),
	}

	if !opts.IncludeUnsafe {
		if up, down, ok := g.safeDrop(op); ok {
			step.SQL, step.RollbackSQL = up, down
			step.Risk = core.RiskWarning
			return step, nil, nil
		}
	}

	up, err := g.Render(op)
	if err != nil {
		return step, nil, err
	}
	step.SQL = strings.Join(up, "\n")

	rev, err := operation.Reverse(op)
	if err != nil {
		if errors.Is(err, core.ErrNotReversible) {
			return step, err, nil
		}
		return step, nil, err
	}
	down, err := g.Render(rev)
	if err != nil {
		return step, err, nil
	}
	step.RollbackSQL = strings.Join(down, "\n")
	return step, nil, nil
}

// safeDrop renames dropped tables and columns to a backup name.
func (g *Generator) safeDrop(op operation.Operation) (string, string, bool) {
	switch o := op.(type) {
	case *operation.DropTable:
		name := g.qualified(o.Table.Schema, o.Table.Name)
		backup := g.safeBackupName(o.Table.Name)
		up := fmt.Sprintf("ALTER TABLE %s RENAME %s;", name, g.QuoteIdentifier(backup))
		down := fmt.Sprintf("ALTER TABLE %s RENAME %s;", g.qualified(o.Table.Schema, backup), g.QuoteIdentifier(o.Table.Name))
		return up, down, true
	case *operation.DropColumn:
		table := g.tableRef(o.TableRef)
		backup := g.safeBackupName(o.Column.Name)
		up := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", table, g.QuoteIdentifier(o.Column.Name), g.QuoteIdentifier(backup))
		down := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", table, g.QuoteIdentifier(backup), g.QuoteIdentifier(o.Column.Name))
		return up, down, true
	}
	return "", "", false
}

// GenerateDropTable generate an SQL statement to drop a table.
func (g *Generator) GenerateDropTable(t *core.Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", g.qualified(t.Schema, t.Name))
}

// QuoteIdentifier quotes a name with backticks.
func (g *Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString is a function used for quote string inside an SQL dialect.
func (g *Generator) QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// quoteProperty renders a PROPERTIES entry, "key" = "value".
func (g *Generator) quoteProperty(key, value string) string {
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + esc.Replace(key) + `" = "` + esc.Replace(value) + `"`
}

func (g *Generator) qualified(schema, name string) string {
	if strings.TrimSpace(schema) == "" {
		return g.QuoteIdentifier(name)
	}
	return g.QuoteIdentifier(schema) + "." + g.QuoteIdentifier(name)
}

func (g *Generator) tableRef(r operation.TableRef) string {
	return g.qualified(r.Schema, r.Table)
}

// safeBackupName appends a hash of the name so repeated runs get the same
// backup name.
func (g *Generator) safeBackupName(name string) string {
	base := strings.TrimSpace(name)
	suffix := fmt.Sprintf("%s%016x", backupSuffixPrefix, xxh3.HashString(base))

	if len(base)+len(suffix) > maxIdentLen {
		maxBase := max(maxIdentLen-len(suffix), 0)
		if len(base) > maxBase {
			base = base[:maxBase]
		}
	}

	if base == "" {
		return suffix
	}
	return base + suffix
}

func isDrop(op operation.Operation) bool {
	switch op.Kind() {
	case operation.KindDropTable, operation.KindDropView, operation.KindDropMaterializedView:
		return true
	}
	return false
}

func riskOf(op operation.Operation) core.OperationRisk {
	switch op.Kind() {
	case operation.KindDropTable, operation.KindDropColumn, operation.KindDropMaterializedView:
		return core.RiskBreaking
	case operation.KindAlterColumn, operation.KindAlterTableDistribution, operation.KindAlterTableOrder:
		return core.RiskWarning
	case operation.KindAlterMaterializedView:
		if o, ok := op.(*operation.AlterMaterializedView); ok && o.Recreate {
			return core.RiskWarning
		}
	}
	return core.RiskInfo
}

// isAsync reports whether StarRocks runs the statement as a schema change job.
func isAsync(op operation.Operation) bool {
	switch op.Kind() {
	case operation.KindAddColumn, operation.KindDropColumn, operation.KindAlterColumn,
		operation.KindAddIndex, operation.KindAlterTableDistribution, operation.KindAlterTableOrder:
		return true
	}
	return false
}
