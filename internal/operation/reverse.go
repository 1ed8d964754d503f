package operation

import (
	"fmt"

	"srschema/internal/core"
)

type reverseFunc func(Operation) (Operation, error)

// reverser adapts a typed inverse to the dispatch table.
func reverser[T Operation](fn func(T) (Operation, error)) reverseFunc {
	return func(op Operation) (Operation, error) {
		typed, ok := op.(T)
		if !ok {
			return nil, fmt.Errorf("reverse %s: unexpected operation type %T", op.Kind(), op)
		}
		return fn(typed)
	}
}

var reverseTable = map[Kind]reverseFunc{
	KindCreateTable: reverser(func(o *CreateTable) (Operation, error) {
		return &DropTable{Table: o.Table}, nil
	}),
	KindDropTable: reverser(func(o *DropTable) (Operation, error) {
		return &CreateTable{Table: o.Table}, nil
	}),
	KindAddColumn: reverser(func(o *AddColumn) (Operation, error) {
		return &DropColumn{TableRef: o.TableRef, Column: o.Column}, nil
	}),
	KindDropColumn: reverser(func(o *DropColumn) (Operation, error) {
		return &AddColumn{TableRef: o.TableRef, Column: o.Column}, nil
	}),
	KindAlterColumn: reverser(func(o *AlterColumn) (Operation, error) {
		return &AlterColumn{TableRef: o.TableRef, Column: o.Prior, Prior: o.Column}, nil
	}),
	KindAddIndex: reverser(func(o *AddIndex) (Operation, error) {
		return &DropIndex{TableRef: o.TableRef, Index: o.Index}, nil
	}),
	KindDropIndex: reverser(func(o *DropIndex) (Operation, error) {
		return &AddIndex{TableRef: o.TableRef, Index: o.Index}, nil
	}),
	KindAlterTableComment: reverser(func(o *AlterTableComment) (Operation, error) {
		return &AlterTableComment{TableRef: o.TableRef, Comment: o.PriorComment, PriorComment: o.Comment}, nil
	}),
	KindAlterTableDistribution: reverser(func(o *AlterTableDistribution) (Operation, error) {
		if o.Prior == nil {
			return nil, irreversible(o, "the prior distribution is not known")
		}
		return &AlterTableDistribution{TableRef: o.TableRef, Distribution: o.Prior, Prior: o.Distribution}, nil
	}),
	KindAlterTableOrder: reverser(func(o *AlterTableOrder) (Operation, error) {
		if o.PriorOrderBy == "" {
			return nil, irreversible(o, "the prior sort key is not known")
		}
		return &AlterTableOrder{TableRef: o.TableRef, OrderBy: o.PriorOrderBy, PriorOrderBy: o.OrderBy}, nil
	}),
	KindAlterTableProperties: reverser(func(o *AlterTableProperties) (Operation, error) {
		if len(o.PriorProperties) == 0 {
			return nil, irreversible(o, "no prior property values are known")
		}
		return &AlterTableProperties{TableRef: o.TableRef, Properties: o.PriorProperties, PriorProperties: o.Properties}, nil
	}),
	KindCreateView: reverser(func(o *CreateView) (Operation, error) {
		return &DropView{View: o.View}, nil
	}),
	KindAlterView: reverser(func(o *AlterView) (Operation, error) {
		if o.Prior == nil {
			return nil, irreversible(o, "the prior definition is not known")
		}
		return &AlterView{View: o.Prior, Prior: o.View}, nil
	}),
	KindDropView: reverser(func(o *DropView) (Operation, error) {
		return &CreateView{View: o.View}, nil
	}),
	KindCreateMaterializedView: reverser(func(o *CreateMaterializedView) (Operation, error) {
		return &DropMaterializedView{View: o.View}, nil
	}),
	KindAlterMaterializedView: reverser(func(o *AlterMaterializedView) (Operation, error) {
		if o.Prior == nil {
			return nil, irreversible(o, "the prior materialized view is not known")
		}
		return &AlterMaterializedView{
			View:            o.Prior,
			Prior:           o.View,
			Recreate:        o.Recreate,
			RefreshChanged:  o.RefreshChanged,
			Properties:      o.PriorProperties,
			PriorProperties: o.Properties,
		}, nil
	}),
	KindDropMaterializedView: reverser(func(o *DropMaterializedView) (Operation, error) {
		return nil, irreversible(o, "refresh scheme and properties cannot be recovered from a dropped materialized view")
	}),
}

// Reverse returns the operation that undoes op. Operations whose prior state
// was not captured return a *core.IrreversibleOperationError.
func Reverse(op Operation) (Operation, error) {
	fn, ok := reverseTable[op.Kind()]
	if !ok {
		return nil, fmt.Errorf("reverse: unknown operation kind %s", op.Kind())
	}
	return fn(op)
}

// ReverseAll reverses ops in reverse order. It stops at the first operation
// that cannot be reversed.
func ReverseAll(ops []Operation) ([]Operation, error) {
	out := make([]Operation, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		rev, err := Reverse(ops[i])
		if err != nil {
			return out, err
		}
		out = append(out, rev)
	}
	return out, nil
}

func irreversible(op Operation, reason string) error {
	return &core.IrreversibleOperationError{Kind: op.Kind().String(), Target: op.Target(), Reason: reason}
}
