// Package operation turns a schema diff into an ordered list of typed
// migration operations. Every operation kind has a static inverse, so a list
// of operations can be reversed into the matching downgrade.
package operation

import (
	"fmt"

	"srschema/internal/core"
)

// Kind identifies an operation variant. The set is closed.
type Kind int

const (
	KindCreateTable Kind = iota + 1
	KindDropTable
	KindAddColumn
	KindDropColumn
	KindAlterColumn
	KindAddIndex
	KindDropIndex
	KindAlterTableComment
	KindAlterTableDistribution
	KindAlterTableOrder
	KindAlterTableProperties
	KindCreateView
	KindAlterView
	KindDropView
	KindCreateMaterializedView
	KindAlterMaterializedView
	KindDropMaterializedView
)

var kindNames = map[Kind]string{
	KindCreateTable:            "create_table",
	KindDropTable:              "drop_table",
	KindAddColumn:              "add_column",
	KindDropColumn:             "drop_column",
	KindAlterColumn:            "alter_column",
	KindAddIndex:               "create_index",
	KindDropIndex:              "drop_index",
	KindAlterTableComment:      "alter_table_comment",
	KindAlterTableDistribution: "alter_table_distribution",
	KindAlterTableOrder:        "alter_table_order",
	KindAlterTableProperties:   "alter_table_properties",
	KindCreateView:             "create_view",
	KindAlterView:              "alter_view",
	KindDropView:               "drop_view",
	KindCreateMaterializedView: "create_materialized_view",
	KindAlterMaterializedView:  "alter_materialized_view",
	KindDropMaterializedView:   "drop_materialized_view",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds returns every operation kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindCreateTable; k <= KindDropMaterializedView; k++ {
		out = append(out, k)
	}
	return out
}

// Operation is one schema change. Implementations are the pointer types in
// this package; the set is closed.
type Operation interface {
	Kind() Kind
	// Target is the qualified name of the table, view or materialized view.
	Target() string
	isOperation()
}

// TableRef names the table an alter operation applies to.
type TableRef struct {
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table"`
}

func (r TableRef) Target() string {
	if r.Schema == "" {
		return r.Table
	}
	return r.Schema + "." + r.Table
}

// CreateTable creates a table from its full declared state.
type CreateTable struct {
	Table *core.Table `json:"table"`
}

// DropTable drops a table. Table holds the full reflected state so the drop
// can be reversed.
type DropTable struct {
	Table *core.Table `json:"table"`
}

// AddColumn adds a column to an existing table.
type AddColumn struct {
	TableRef
	Column *core.Column `json:"column"`
}

// DropColumn drops a column; Column is the reflected definition.
type DropColumn struct {
	TableRef
	Column *core.Column `json:"column"`
}

// AlterColumn replaces a column definition. Prior is the reflected one.
type AlterColumn struct {
	TableRef
	Column *core.Column `json:"column"`
	Prior  *core.Column `json:"prior"`
}

// AddIndex creates a secondary index.
type AddIndex struct {
	TableRef
	Index *core.Index `json:"index"`
}

// DropIndex drops a secondary index; Index is the reflected definition.
type DropIndex struct {
	TableRef
	Index *core.Index `json:"index"`
}

// AlterTableComment sets the table comment.
type AlterTableComment struct {
	TableRef
	Comment      string `json:"comment"`
	PriorComment string `json:"priorComment"`
}

// AlterTableDistribution changes the DISTRIBUTED BY clause.
type AlterTableDistribution struct {
	TableRef
	Distribution *core.DistributionSpec `json:"distribution"`
	Prior        *core.DistributionSpec `json:"prior"`
}

// AlterTableOrder changes the ORDER BY (sort key) clause.
type AlterTableOrder struct {
	TableRef
	OrderBy      string `json:"orderBy"`
	PriorOrderBy string `json:"priorOrderBy"`
}

// AlterTableProperties sets table properties. PriorProperties holds the values
// that restore the reflected state; keys without a known prior value are absent.
type AlterTableProperties struct {
	TableRef
	Properties      map[string]string `json:"properties"`
	PriorProperties map[string]string `json:"priorProperties"`
}

// CreateView creates a view.
type CreateView struct {
	View *core.View `json:"view"`
}

// AlterView replaces the definition of a view. Prior keeps the reflected view.
type AlterView struct {
	View  *core.View `json:"view"`
	Prior *core.View `json:"prior"`
}

// DropView drops a view; View is the reflected state.
type DropView struct {
	View *core.View `json:"view"`
}

// CreateMaterializedView creates an asynchronous materialized view.
type CreateMaterializedView struct {
	View *core.MaterializedView `json:"view"`
}

// AlterMaterializedView changes a materialized view. With Recreate set it is
// rendered as DROP + CREATE; otherwise only the refresh scheme (when
// RefreshChanged) and Properties are altered in place.
type AlterMaterializedView struct {
	View            *core.MaterializedView `json:"view"`
	Prior           *core.MaterializedView `json:"prior"`
	Recreate        bool                   `json:"recreate"`
	RefreshChanged  bool                   `json:"refreshChanged,omitempty"`
	Properties      map[string]string      `json:"properties,omitempty"`
	PriorProperties map[string]string      `json:"priorProperties,omitempty"`
}

// DropMaterializedView drops a materialized view. It cannot be reversed.
type DropMaterializedView struct {
	View *core.MaterializedView `json:"view"`
}

func (*CreateTable) Kind() Kind            { return KindCreateTable }
func (*DropTable) Kind() Kind              { return KindDropTable }
func (*AddColumn) Kind() Kind              { return KindAddColumn }
func (*DropColumn) Kind() Kind             { return KindDropColumn }
func (*AlterColumn) Kind() Kind            { return KindAlterColumn }
func (*AddIndex) Kind() Kind               { return KindAddIndex }
func (*DropIndex) Kind() Kind              { return KindDropIndex }
func (*AlterTableComment) Kind() Kind      { return KindAlterTableComment }
func (*AlterTableDistribution) Kind() Kind { return KindAlterTableDistribution }
func (*AlterTableOrder) Kind() Kind        { return KindAlterTableOrder }
func (*AlterTableProperties) Kind() Kind   { return KindAlterTableProperties }
func (*CreateView) Kind() Kind             { return KindCreateView }
func (*AlterView) Kind() Kind              { return KindAlterView }
func (*DropView) Kind() Kind               { return KindDropView }
func (*CreateMaterializedView) Kind() Kind { return KindCreateMaterializedView }
func (*AlterMaterializedView) Kind() Kind  { return KindAlterMaterializedView }
func (*DropMaterializedView) Kind() Kind   { return KindDropMaterializedView }

func (o *CreateTable) Target() string            { return o.Table.QualifiedName() }
func (o *DropTable) Target() string              { return o.Table.QualifiedName() }
func (o *CreateView) Target() string             { return o.View.QualifiedName() }
func (o *AlterView) Target() string              { return o.View.QualifiedName() }
func (o *DropView) Target() string               { return o.View.QualifiedName() }
func (o *CreateMaterializedView) Target() string { return o.View.QualifiedName() }
func (o *AlterMaterializedView) Target() string  { return o.View.QualifiedName() }
func (o *DropMaterializedView) Target() string   { return o.View.QualifiedName() }

func (*CreateTable) isOperation()            {}
func (*DropTable) isOperation()              {}
func (*AddColumn) isOperation()              {}
func (*DropColumn) isOperation()             {}
func (*AlterColumn) isOperation()            {}
func (*AddIndex) isOperation()               {}
func (*DropIndex) isOperation()              {}
func (*AlterTableComment) isOperation()      {}
func (*AlterTableDistribution) isOperation() {}
func (*AlterTableOrder) isOperation()        {}
func (*AlterTableProperties) isOperation()   {}
func (*CreateView) isOperation()             {}
func (*AlterView) isOperation()              {}
func (*DropView) isOperation()               {}
func (*CreateMaterializedView) isOperation() {}
func (*AlterMaterializedView) isOperation()  {}
func (*DropMaterializedView) isOperation()   {}
