package output

import (
	"fmt"
	"strings"

	"srschema/internal/diff"
	"srschema/internal/migration"
)

type summaryFormatter struct{}

// FormatDiff formats a schema diff as a compact summary.
// Example output:
//
//	Tables:              +1, ~2, -0
//	Columns:             +5, ~2, -0
//	Indexes:             +1, ~0, -2
//	Views:               +0, ~1, -0
//	Materialized views:  +1, ~0, -0
func (summaryFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d == nil {
		return "No changes detected.\n", nil
	}

	var sb strings.Builder

	addedTables := len(d.AddedTables)
	removedTables := len(d.RemovedTables)
	modifiedTables := len(d.ModifiedTables)

	addedCols, removedCols, modifiedCols := countColumns(d)
	addedIdx, removedIdx, modifiedIdx := countIndexes(d)

	sb.WriteString("Schema Diff Summary\n")
	sb.WriteString("===================\n\n")

	fmt.Fprintf(&sb, "Tables:              +%d, ~%d, -%d\n", addedTables, modifiedTables, removedTables)
	fmt.Fprintf(&sb, "Columns:             +%d, ~%d, -%d\n", addedCols, modifiedCols, removedCols)
	fmt.Fprintf(&sb, "Indexes:             +%d, ~%d, -%d\n", addedIdx, modifiedIdx, removedIdx)
	fmt.Fprintf(&sb, "Views:               +%d, ~%d, -%d\n", len(d.AddedViews), len(d.ModifiedViews), len(d.RemovedViews))
	fmt.Fprintf(&sb, "Materialized views:  +%d, ~%d, -%d\n",
		len(d.AddedMaterializedViews), len(d.ModifiedMaterializedViews), len(d.RemovedMaterializedViews))

	if n := len(d.AllWarnings()); n > 0 {
		fmt.Fprintf(&sb, "\nWarnings:            %d\n", n)
	}

	writeTableDetails(&sb, d, addedTables, removedTables, modifiedTables)

	return sb.String(), nil
}

func countColumns(d *diff.SchemaDiff) (added, removed, modified int) {
	for _, t := range d.AddedTables {
		added += len(t.Columns)
	}
	for _, t := range d.RemovedTables {
		removed += len(t.Columns)
	}
	for _, td := range d.ModifiedTables {
		added += len(td.AddedColumns)
		removed += len(td.RemovedColumns)
		modified += len(td.ModifiedColumns)
	}
	return
}

func countIndexes(d *diff.SchemaDiff) (added, removed, modified int) {
	for _, t := range d.AddedTables {
		added += len(t.Indexes)
	}
	for _, t := range d.RemovedTables {
		removed += len(t.Indexes)
	}
	for _, td := range d.ModifiedTables {
		added += len(td.AddedIndexes)
		removed += len(td.RemovedIndexes)
		modified += len(td.ModifiedIndexes)
	}
	return
}

func writeTableDetails(sb *strings.Builder, d *diff.SchemaDiff, addedTables, removedTables, modifiedTables int) {
	if addedTables == 0 && removedTables == 0 && modifiedTables == 0 {
		return
	}

	sb.WriteString("\nDetails:\n")
	for _, t := range d.AddedTables {
		fmt.Fprintf(sb, "  + %s (new table)\n", t.Name)
	}
	for _, t := range d.RemovedTables {
		fmt.Fprintf(sb, "  - %s (removed table)\n", t.Name)
	}
	for _, td := range d.ModifiedTables {
		fmt.Fprintf(sb, "  ~ %s (%s)\n", td.Name, countTableChanges(td))
	}
}

// countTableChanges returns a human-readable summary of changes in a table.
func countTableChanges(td *diff.TableDiff) string {
	var parts []string

	if n := len(td.AddedColumns); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d cols", n))
	}
	if n := len(td.RemovedColumns); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d cols", n))
	}
	if n := len(td.ModifiedColumns); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d cols", n))
	}
	if n := len(td.AddedIndexes); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d idx", n))
	}
	if n := len(td.RemovedIndexes); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d idx", n))
	}
	for _, oc := range td.ModifiedOptions {
		parts = append(parts, strings.ToLower(oc.Name))
	}

	if len(parts) == 0 {
		return "warnings only"
	}
	return strings.Join(parts, ", ")
}

// FormatMigration formats a migration as a compact summary.
func (summaryFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil || len(m.Operations) == 0 {
		return "No migration operations.\n", nil
	}

	var sb strings.Builder

	breaking := m.BreakingNotes()
	unresolved := m.UnresolvedNotes()
	notes := m.InfoNotes()
	sql := m.SQLStatements()
	rollback := m.RollbackStatements()

	sb.WriteString("Migration Summary\n")
	sb.WriteString("=================\n\n")

	fmt.Fprintf(&sb, "SQL Statements:      %d\n", len(sql))
	fmt.Fprintf(&sb, "Rollback Statements: %d\n", len(rollback))
	if len(sql) > 0 {
		fmt.Fprintf(&sb, "Revision:            %s\n", m.Fingerprint())
	}

	writeSummaryList(&sb, "Breaking Changes", breaking)
	writeSummaryList(&sb, "Unresolved Issues", unresolved)
	writeSummaryList(&sb, "Notes", notes)

	return sb.String(), nil
}

func writeSummaryList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s: %d\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(sb, "   - %s\n", item)
	}
}
