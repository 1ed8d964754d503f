// Package diff compares a reflected StarRocks schema against a declared one and
// reports the attribute level differences. Differences StarRocks cannot apply
// in place are returned as *core.UnsupportedOperationError.
package diff

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"srschema/internal/core"
)

// Attribute names of table-level clauses, in CREATE TABLE grammar order.
const (
	AttrEngine       = "ENGINE"
	AttrKey          = "KEY"
	AttrComment      = "COMMENT"
	AttrPartition    = "PARTITION BY"
	AttrDistribution = "DISTRIBUTED BY"
	AttrOrderBy      = "ORDER BY"
	AttrProperties   = "PROPERTIES"
)

// clauseOrder ranks table attributes by their position in the grammar.
var clauseOrder = map[string]int{
	AttrEngine:       0,
	AttrKey:          1,
	AttrComment:      2,
	AttrPartition:    3,
	AttrDistribution: 4,
	AttrOrderBy:      5,
	AttrProperties:   6,
}

// SchemaDiff represents the differences between the reflected (old) and the
// declared (new) schema.
type SchemaDiff struct {
	Schema   string   `json:"schema,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	AddedTables    []*core.Table `json:"addedTables,omitempty"`
	RemovedTables  []*core.Table `json:"removedTables,omitempty"`
	ModifiedTables []*TableDiff  `json:"modifiedTables,omitempty"`

	AddedViews    []*core.View `json:"addedViews,omitempty"`
	RemovedViews  []*core.View `json:"removedViews,omitempty"`
	ModifiedViews []*ViewDiff  `json:"modifiedViews,omitempty"`

	AddedMaterializedViews    []*core.MaterializedView `json:"addedMaterializedViews,omitempty"`
	RemovedMaterializedViews  []*core.MaterializedView `json:"removedMaterializedViews,omitempty"`
	ModifiedMaterializedViews []*MaterializedViewDiff  `json:"modifiedMaterializedViews,omitempty"`
}

// TableDiff represents the differences between two states of one table.
type TableDiff struct {
	Name     string      `json:"name"`
	Schema   string      `json:"schema,omitempty"`
	Old      *core.Table `json:"-"`
	New      *core.Table `json:"-"`
	Warnings []string    `json:"warnings,omitempty"`

	AddedColumns    []*core.Column  `json:"addedColumns,omitempty"`
	RemovedColumns  []*core.Column  `json:"removedColumns,omitempty"`
	ModifiedColumns []*ColumnChange `json:"modifiedColumns,omitempty"`
	AddedIndexes    []*core.Index   `json:"addedIndexes,omitempty"`
	RemovedIndexes  []*core.Index   `json:"removedIndexes,omitempty"`
	ModifiedIndexes []*IndexChange  `json:"modifiedIndexes,omitempty"`
	// ModifiedOptions is ordered by clause order, not detection order.
	ModifiedOptions []*TableOptionChange `json:"modifiedOptions,omitempty"`
}

// ColumnChange represents the differences between two columns.
type ColumnChange struct {
	Name    string         `json:"name"`
	Old     *core.Column   `json:"-"`
	New     *core.Column   `json:"-"`
	Changes []*FieldChange `json:"changes"`
}

// IndexChange represents the differences between indexes of old table and new table.
type IndexChange struct {
	Name    string         `json:"name"`
	Old     *core.Index    `json:"-"`
	New     *core.Index    `json:"-"`
	Changes []*FieldChange `json:"changes"`
}

// FieldChange represents the differences between two fields.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// TableOptionChange is one changed table-level clause. For PROPERTIES only the
// changed keys are listed: Properties holds the values to set and
// ReverseProperties the values that restore the reflected state.
type TableOptionChange struct {
	Name              string            `json:"name"`
	Old               string            `json:"old"`
	New               string            `json:"new"`
	Properties        map[string]string `json:"properties,omitempty"`
	ReverseProperties map[string]string `json:"reverseProperties,omitempty"`
}

// ViewDiff is a changed view. Only definition changes produce a migration.
type ViewDiff struct {
	Name              string     `json:"name"`
	Old               *core.View `json:"-"`
	New               *core.View `json:"-"`
	DefinitionChanged bool       `json:"definitionChanged"`
	Warnings          []string   `json:"warnings,omitempty"`
}

// MaterializedViewDiff is a changed materialized view. Recreate is set when
// the change needs DROP + CREATE; otherwise only the refresh scheme and the
// properties changed and can be altered in place.
type MaterializedViewDiff struct {
	Name              string                 `json:"name"`
	Old               *core.MaterializedView `json:"-"`
	New               *core.MaterializedView `json:"-"`
	Changed           []string               `json:"changed"`
	Recreate          bool                   `json:"recreate"`
	RefreshChanged    bool                   `json:"refreshChanged,omitempty"`
	Properties        map[string]string      `json:"properties,omitempty"`
	ReverseProperties map[string]string      `json:"reverseProperties,omitempty"`
	Warnings          []string               `json:"warnings,omitempty"`
}

// GetName methods implement the Named interface for type-safe sorting.
func (td *TableDiff) GetName() string            { return td.Name }
func (cc *ColumnChange) GetName() string         { return cc.Name }
func (ic *IndexChange) GetName() string          { return ic.Name }
func (vd *ViewDiff) GetName() string             { return vd.Name }
func (md *MaterializedViewDiff) GetName() string { return md.Name }

// Options configures a comparison.
type Options struct {
	// RunMode selects the implicit property defaults of the cluster.
	RunMode core.RunMode
	Logger  *zap.Logger
}

// DefaultOptions compares against a shared_nothing cluster without logging.
func DefaultOptions() Options {
	return Options{RunMode: core.RunModeSharedNothing, Logger: zap.NewNop()}
}

// Diff compares the reflected database against the declared one. Tables,
// views and materialized views are matched by name; renames show up as a
// removal plus an addition. All unsupported differences are collected and
// returned together; the returned SchemaDiff is still filled for the rest.
func Diff(reflected, declared *core.Database, opts Options) (*SchemaDiff, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RunMode == "" {
		opts.RunMode = reflected.RunMode
	}
	if opts.RunMode == "" {
		opts.RunMode = core.RunModeSharedNothing
	}

	c := &comparer{opts: opts, log: opts.Logger}
	d := &SchemaDiff{Schema: declared.Name}
	if d.Schema == "" {
		d.Schema = reflected.Name
	}

	var errs error
	errs = multierr.Append(errs, c.diffTables(d, reflected.Tables, declared.Tables))
	errs = multierr.Append(errs, c.diffViews(d, reflected.Views, declared.Views))
	errs = multierr.Append(errs, c.diffMaterializedViews(d, reflected.MaterializedViews, declared.MaterializedViews))

	return d, errs
}

type comparer struct {
	opts Options
	log  *zap.Logger
}

func (c *comparer) diffTables(d *SchemaDiff, oldItems, newItems []*core.Table) error {
	oldMap, oldCollisions := mapByName(oldItems, func(t *core.Table) string { return t.Name })
	newMap, newCollisions := mapByName(newItems, func(t *core.Table) string { return t.Name })
	for _, col := range oldCollisions {
		d.Warnings = append(d.Warnings, "reflected tables: "+col)
	}
	for _, col := range newCollisions {
		d.Warnings = append(d.Warnings, "declared tables: "+col)
	}

	var errs error
	for name, nt := range newMap {
		ot, ok := oldMap[name]
		if !ok {
			d.AddedTables = append(d.AddedTables, nt)
			continue
		}
		td, err := c.compareTable(ot, nt)
		errs = multierr.Append(errs, err)
		if td != nil {
			d.ModifiedTables = append(d.ModifiedTables, td)
		}
	}
	for name, ot := range oldMap {
		if _, ok := newMap[name]; !ok {
			d.RemovedTables = append(d.RemovedTables, ot)
		}
	}

	sortByFunc(d.AddedTables, func(t *core.Table) string { return t.Name })
	sortByFunc(d.RemovedTables, func(t *core.Table) string { return t.Name })
	sortNamed(d.ModifiedTables)
	return errs
}

// IsEmpty returns true if there are no differences in the schema diff.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ModifiedTables) == 0 &&
		len(d.AddedViews) == 0 && len(d.RemovedViews) == 0 && len(d.ModifiedViews) == 0 &&
		len(d.AddedMaterializedViews) == 0 && len(d.RemovedMaterializedViews) == 0 &&
		len(d.ModifiedMaterializedViews) == 0
}

// AllWarnings returns the schema level warnings followed by the warnings of
// every modified object.
func (d *SchemaDiff) AllWarnings() []string {
	out := append([]string(nil), d.Warnings...)
	for _, td := range d.ModifiedTables {
		out = append(out, td.Warnings...)
	}
	for _, vd := range d.ModifiedViews {
		out = append(out, vd.Warnings...)
	}
	for _, md := range d.ModifiedMaterializedViews {
		out = append(out, md.Warnings...)
	}
	return out
}
