package operation

import (
	"srschema/internal/core"
	"srschema/internal/diff"
)

// Plan is the ordered result of Synthesize. Notes carries the comparator
// warnings that did not produce an operation.
type Plan struct {
	Operations []Operation `json:"operations"`
	Notes      []string    `json:"notes,omitempty"`
}

// IsEmpty reports whether the plan has no operations.
func (p *Plan) IsEmpty() bool {
	return p == nil || len(p.Operations) == 0
}

// Synthesize converts a schema diff into operations. Dependent objects are
// dropped first: materialized views, then views, then table changes, then the
// creation of views and materialized views. Table attribute alters follow the
// clause order of the diff.
func Synthesize(d *diff.SchemaDiff) *Plan {
	p := &Plan{}
	if d == nil {
		return p
	}
	p.Notes = d.AllWarnings()

	for _, mv := range d.RemovedMaterializedViews {
		p.add(&DropMaterializedView{View: mv})
	}
	for _, v := range d.RemovedViews {
		p.add(&DropView{View: v})
	}

	for _, t := range d.AddedTables {
		p.add(&CreateTable{Table: t})
	}
	for _, td := range d.ModifiedTables {
		p.addTableDiff(td)
	}
	for _, t := range d.RemovedTables {
		p.add(&DropTable{Table: t})
	}

	for _, v := range d.AddedViews {
		p.add(&CreateView{View: v})
	}
	for _, vd := range d.ModifiedViews {
		if vd.DefinitionChanged {
			p.add(&AlterView{View: vd.New, Prior: vd.Old})
		}
	}

	for _, mv := range d.AddedMaterializedViews {
		p.add(&CreateMaterializedView{View: mv})
	}
	for _, md := range d.ModifiedMaterializedViews {
		p.add(&AlterMaterializedView{
			View:            md.New,
			Prior:           md.Old,
			Recreate:        md.Recreate,
			RefreshChanged:  md.RefreshChanged,
			Properties:      md.Properties,
			PriorProperties: md.ReverseProperties,
		})
	}
	return p
}

func (p *Plan) add(op Operation) {
	p.Operations = append(p.Operations, op)
}

// addTableDiff emits index drops before column changes so dropped columns are
// no longer indexed, and index additions after them.
func (p *Plan) addTableDiff(td *diff.TableDiff) {
	ref := TableRef{Schema: td.Schema, Table: td.Name}

	for _, ic := range td.ModifiedIndexes {
		p.add(&DropIndex{TableRef: ref, Index: ic.Old})
	}
	for _, idx := range td.RemovedIndexes {
		p.add(&DropIndex{TableRef: ref, Index: idx})
	}

	for _, c := range td.AddedColumns {
		p.add(&AddColumn{TableRef: ref, Column: c})
	}
	for _, cc := range td.ModifiedColumns {
		p.add(&AlterColumn{TableRef: ref, Column: cc.New, Prior: cc.Old})
	}
	for _, c := range td.RemovedColumns {
		p.add(&DropColumn{TableRef: ref, Column: c})
	}

	for _, idx := range td.AddedIndexes {
		p.add(&AddIndex{TableRef: ref, Index: idx})
	}
	for _, ic := range td.ModifiedIndexes {
		p.add(&AddIndex{TableRef: ref, Index: ic.New})
	}

	for _, oc := range td.ModifiedOptions {
		switch oc.Name {
		case diff.AttrComment:
			p.add(&AlterTableComment{TableRef: ref, Comment: oc.New, PriorComment: oc.Old})
		case diff.AttrDistribution:
			p.add(&AlterTableDistribution{TableRef: ref, Distribution: distributionOf(td.New), Prior: distributionOf(td.Old)})
		case diff.AttrOrderBy:
			p.add(&AlterTableOrder{TableRef: ref, OrderBy: oc.New, PriorOrderBy: oc.Old})
		case diff.AttrProperties:
			p.add(&AlterTableProperties{TableRef: ref, Properties: oc.Properties, PriorProperties: oc.ReverseProperties})
		}
	}
}

// distributionOf treats an unset distribution as the server default.
func distributionOf(t *core.Table) *core.DistributionSpec {
	if t == nil || t.Options.Distribution == nil {
		return core.NewDistribution(core.DefaultDistribution, nil, nil)
	}
	return t.Options.Distribution
}
