package output

import (
	"encoding/json"

	"srschema/internal/core"
	"srschema/internal/diff"
	"srschema/internal/migration"
)

type jsonFormatter struct{}

type diffSummary struct {
	AddedTables               int `json:"addedTables"`
	RemovedTables             int `json:"removedTables"`
	ModifiedTables            int `json:"modifiedTables"`
	AddedViews                int `json:"addedViews"`
	RemovedViews              int `json:"removedViews"`
	ModifiedViews             int `json:"modifiedViews"`
	AddedMaterializedViews    int `json:"addedMaterializedViews"`
	RemovedMaterializedViews  int `json:"removedMaterializedViews"`
	ModifiedMaterializedViews int `json:"modifiedMaterializedViews"`
	Warnings                  int `json:"warnings"`
}

type diffPayload struct {
	Format                    string                       `json:"format"`
	Summary                   diffSummary                  `json:"summary"`
	Warnings                  []string                     `json:"warnings,omitempty"`
	AddedTables               []*core.Table                `json:"addedTables,omitempty"`
	RemovedTables             []*core.Table                `json:"removedTables,omitempty"`
	ModifiedTables            []*diff.TableDiff            `json:"modifiedTables,omitempty"`
	AddedViews                []*core.View                 `json:"addedViews,omitempty"`
	RemovedViews              []*core.View                 `json:"removedViews,omitempty"`
	ModifiedViews             []*diff.ViewDiff             `json:"modifiedViews,omitempty"`
	AddedMaterializedViews    []*core.MaterializedView     `json:"addedMaterializedViews,omitempty"`
	RemovedMaterializedViews  []*core.MaterializedView     `json:"removedMaterializedViews,omitempty"`
	ModifiedMaterializedViews []*diff.MaterializedViewDiff `json:"modifiedMaterializedViews,omitempty"`
}

type migrationSummary struct {
	BreakingChanges    int `json:"breakingChanges"`
	Unresolved         int `json:"unresolved"`
	Notes              int `json:"notes"`
	SQLStatements      int `json:"sqlStatements"`
	RollbackStatements int `json:"rollbackStatements"`
	AsyncStatements    int `json:"asyncStatements"`
}

type migrationPayload struct {
	Format          string           `json:"format"`
	Revision        string           `json:"revision,omitempty"`
	Summary         migrationSummary `json:"summary"`
	BreakingChanges []string         `json:"breakingChanges,omitempty"`
	Unresolved      []string         `json:"unresolved,omitempty"`
	Notes           []string         `json:"notes,omitempty"`
	SQL             []string         `json:"sql,omitempty"`
	Rollback        []string         `json:"rollback,omitempty"`
	Steps           []core.Operation `json:"steps,omitempty"`
}

type Payload interface {
	diffPayload | migrationPayload | databasePayload
}

func (jsonFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	return marshalJSON(newDiffPayload(d, FormatJSON))
}

func (jsonFormatter) FormatMigration(m *migration.Migration) (string, error) {
	return marshalJSON(newMigrationPayload(m, FormatJSON))
}

func newDiffPayload(d *diff.SchemaDiff, f Format) diffPayload {
	payload := diffPayload{Format: string(f)}
	if d == nil {
		return payload
	}
	payload.Warnings = d.Warnings
	payload.AddedTables = d.AddedTables
	payload.RemovedTables = d.RemovedTables
	payload.ModifiedTables = d.ModifiedTables
	payload.AddedViews = d.AddedViews
	payload.RemovedViews = d.RemovedViews
	payload.ModifiedViews = d.ModifiedViews
	payload.AddedMaterializedViews = d.AddedMaterializedViews
	payload.RemovedMaterializedViews = d.RemovedMaterializedViews
	payload.ModifiedMaterializedViews = d.ModifiedMaterializedViews
	payload.Summary = diffSummary{
		AddedTables:               len(d.AddedTables),
		RemovedTables:             len(d.RemovedTables),
		ModifiedTables:            len(d.ModifiedTables),
		AddedViews:                len(d.AddedViews),
		RemovedViews:              len(d.RemovedViews),
		ModifiedViews:             len(d.ModifiedViews),
		AddedMaterializedViews:    len(d.AddedMaterializedViews),
		RemovedMaterializedViews:  len(d.RemovedMaterializedViews),
		ModifiedMaterializedViews: len(d.ModifiedMaterializedViews),
		Warnings:                  len(d.AllWarnings()),
	}
	return payload
}

func newMigrationPayload(m *migration.Migration, f Format) migrationPayload {
	payload := migrationPayload{Format: string(f)}
	if m == nil {
		return payload
	}
	breaking := m.BreakingNotes()
	unresolved := m.UnresolvedNotes()
	notes := m.InfoNotes()
	sql := normalizeStatements(m.SQLStatements())
	rollback := normalizeStatements(reverseStatements(m.RollbackStatements()))

	var steps []core.Operation
	async := 0
	for _, op := range m.Plan() {
		if op.Kind != core.OperationSQL {
			continue
		}
		steps = append(steps, op)
		if op.Async && op.SQL != "" {
			async++
		}
	}

	payload.BreakingChanges = breaking
	payload.Unresolved = unresolved
	payload.Notes = notes
	payload.SQL = sql
	payload.Rollback = rollback
	payload.Steps = steps
	if len(sql) > 0 {
		payload.Revision = m.Fingerprint()
	}
	payload.Summary = migrationSummary{
		BreakingChanges:    len(breaking),
		Unresolved:         len(unresolved),
		Notes:              len(notes),
		SQLStatements:      len(sql),
		RollbackStatements: len(rollback),
		AsyncStatements:    async,
	}
	return payload
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
