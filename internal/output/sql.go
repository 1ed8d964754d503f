package output

import (
	"io"
	"strings"

	"srschema/internal/core"
	"srschema/internal/diff"
	"srschema/internal/migration"
)

// sqlFormatter renders a migration as a runnable StarRocks script. Notes and
// the rollback are carried as comments so the script can be piped to a client.
type sqlFormatter struct{}

func (sqlFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d == nil {
		return "", nil
	}
	return d.String(), nil
}

func (sqlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("-- srschema migration\n")
	stmts := forwardSteps(m)
	if len(stmts) > 0 {
		sb.WriteString("-- revision: " + m.Fingerprint() + "\n")
	}
	sb.WriteString("-- Review before running in production.\n")

	writeNotes(&sb, "BREAKING CHANGES (manual review required)", m.BreakingNotes())
	writeNotes(&sb, "UNRESOLVED (cannot auto-generate safely)", m.UnresolvedNotes())
	writeNotes(&sb, "NOTES", m.InfoNotes())

	rollback := m.RollbackStatements()
	if len(stmts) == 0 {
		sb.WriteString("\n-- No SQL statements generated.\n")
		if len(rollback) > 0 {
			sb.WriteString("\n-- ROLLBACK SQL (run separately if needed)\n")
			writeCommentedRollback(&sb, rollback)
		}
		return sb.String(), nil
	}

	sb.WriteString("\n-- SQL\n")
	for _, op := range stmts {
		writeRiskComment(&sb, op)
		sb.WriteString(terminate(op.SQL) + "\n")
	}

	if len(rollback) > 0 {
		sb.WriteString("\n-- ROLLBACK SQL (run separately)\n")
		writeCommentedRollback(&sb, rollback)
	}
	return sb.String(), nil
}

// writeRiskComment marks non-info steps with their risk and steps that start
// a schema change job with an async hint.
func writeRiskComment(sb *strings.Builder, op core.Operation) {
	var tags []string
	if op.Risk != "" && op.Risk != core.RiskInfo {
		tags = append(tags, "["+string(op.Risk)+"]")
	}
	if op.Async {
		tags = append(tags, "(async schema change)")
	}
	if len(tags) > 0 {
		sb.WriteString("-- " + strings.Join(tags, " ") + "\n")
	}
}

// FormatRollbackSQL renders the rollback statements last to first as a
// standalone script.
func FormatRollbackSQL(m *migration.Migration) string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("-- srschema rollback\n")
	sb.WriteString("-- Run to revert the migration (review carefully).\n")

	rollback := m.RollbackStatements()
	if len(rollback) == 0 {
		sb.WriteString("\n-- No rollback statements generated.\n")
		return sb.String()
	}

	sb.WriteString("\n-- SQL\n")
	for _, stmt := range reverseStatements(rollback) {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			sb.WriteString(terminate(stmt) + "\n")
		}
	}
	return sb.String()
}

// WriteRollback writes the rollback script of m to w.
func WriteRollback(m *migration.Migration, w io.Writer) error {
	_, err := io.WriteString(w, FormatRollbackSQL(m))
	return err
}

func forwardSteps(m *migration.Migration) []core.Operation {
	var ops []core.Operation
	for _, op := range m.Plan() {
		if op.Kind == core.OperationSQL && op.SQL != "" {
			ops = append(ops, op)
		}
	}
	return ops
}

func writeNotes(sb *strings.Builder, title string, notes []string) {
	if len(notes) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, note := range notes {
		for _, line := range commentLines(note) {
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func writeCommentedRollback(sb *strings.Builder, rollback []string) {
	for _, stmt := range reverseStatements(rollback) {
		for _, line := range commentLines(stmt) {
			sb.WriteString("-- " + terminate(line) + "\n")
		}
	}
}

// commentLines splits s into trimmed, non-empty lines.
func commentLines(s string) []string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func terminate(stmt string) string {
	if strings.HasSuffix(stmt, ";") {
		return stmt
	}
	return stmt + ";"
}
