package starrocks

import (
	"fmt"

	"srschema/internal/operation"
)

type renderFunc func(g *Generator, op operation.Operation) ([]string, error)

// renderer adapts a typed render method to the dispatch table.
func renderer[T operation.Operation](fn func(*Generator, T) ([]string, error)) renderFunc {
	return func(g *Generator, op operation.Operation) ([]string, error) {
		typed, ok := op.(T)
		if !ok {
			return nil, fmt.Errorf("render %s: unexpected operation type %T", op.Kind(), op)
		}
		return fn(g, typed)
	}
}

var renderTable = map[operation.Kind]renderFunc{
	operation.KindCreateTable:            renderer((*Generator).createTable),
	operation.KindDropTable:              renderer((*Generator).dropTable),
	operation.KindAddColumn:              renderer((*Generator).addColumn),
	operation.KindDropColumn:             renderer((*Generator).dropColumn),
	operation.KindAlterColumn:            renderer((*Generator).alterColumn),
	operation.KindAddIndex:               renderer((*Generator).addIndex),
	operation.KindDropIndex:              renderer((*Generator).dropIndex),
	operation.KindAlterTableComment:      renderer((*Generator).alterComment),
	operation.KindAlterTableDistribution: renderer((*Generator).alterDistribution),
	operation.KindAlterTableOrder:        renderer((*Generator).alterOrder),
	operation.KindAlterTableProperties:   renderer((*Generator).alterProperties),
	operation.KindCreateView:             renderer((*Generator).createView),
	operation.KindAlterView:              renderer((*Generator).alterView),
	operation.KindDropView:               renderer((*Generator).dropView),
	operation.KindCreateMaterializedView: renderer((*Generator).createMaterializedView),
	operation.KindAlterMaterializedView:  renderer((*Generator).alterMaterializedView),
	operation.KindDropMaterializedView:   renderer((*Generator).dropMaterializedView),
}

// Render returns the statements for one operation. Most operations render to
// a single statement; property changes and recreated materialized views
// render to several.
func (g *Generator) Render(op operation.Operation) ([]string, error) {
	if op == nil {
		return nil, fmt.Errorf("render: nil operation")
	}
	fn, ok := renderTable[op.Kind()]
	if !ok {
		return nil, fmt.Errorf("render: unknown operation kind %s", op.Kind())
	}
	return fn(g, op)
}
