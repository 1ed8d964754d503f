package output

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"srschema/internal/core"
	"srschema/internal/diff"
	"srschema/internal/kwargs"
	"srschema/internal/migration"
	"srschema/internal/operation"
)

// scriptFormatter writes a migration script with upgrade and downgrade
// functions. Each operation becomes one op.<kind>(...) call; StarRocks
// options are passed as starrocks_* keyword arguments.
type scriptFormatter struct{}

const scriptIndent = "    "

// FormatDiff formats a schema diff as a comment block.
func (scriptFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, line := range strings.Split(d.String(), "\n") {
		sb.WriteString(strings.TrimRight("# "+line, " ") + "\n")
	}
	return sb.String(), nil
}

// FormatMigration wraps already rendered statements in op.execute calls.
func (scriptFormatter) FormatMigration(m *migration.Migration) (string, error) {
	var sb strings.Builder
	writeScriptHeader(&sb, nil)
	if m == nil {
		writeScriptFunc(&sb, "upgrade", nil)
		writeScriptFunc(&sb, "downgrade", nil)
		return sb.String(), nil
	}

	for _, n := range m.InfoNotes() {
		sb.WriteString("# NOTE: " + n + "\n")
	}
	for _, n := range m.UnresolvedNotes() {
		sb.WriteString("# UNRESOLVED: " + n + "\n")
	}

	writeScriptFunc(&sb, "upgrade", executeCalls(m.SQLStatements()))
	writeScriptFunc(&sb, "downgrade", executeCalls(reverseStatements(m.RollbackStatements())))
	return sb.String(), nil
}

// FormatPlan serializes the operations of a plan. The downgrade lists the
// inverse operations in reverse order; an irreversible operation is written
// as a comment.
func (scriptFormatter) FormatPlan(p *operation.Plan) (string, error) {
	var sb strings.Builder
	writeScriptHeader(&sb, p)
	if p == nil {
		writeScriptFunc(&sb, "upgrade", nil)
		writeScriptFunc(&sb, "downgrade", nil)
		return sb.String(), nil
	}

	up := make([]string, 0, len(p.Operations))
	for _, op := range p.Operations {
		call, err := scriptCall(op)
		if err != nil {
			return "", err
		}
		up = append(up, call)
	}

	down := make([]string, 0, len(p.Operations))
	for i := len(p.Operations) - 1; i >= 0; i-- {
		op := p.Operations[i]
		rev, err := operation.Reverse(op)
		if err != nil {
			down = append(down, fmt.Sprintf("# cannot reverse %s %s: %v", op.Kind(), op.Target(), err))
			continue
		}
		call, err := scriptCall(rev)
		if err != nil {
			return "", err
		}
		down = append(down, call)
	}

	writeScriptFunc(&sb, "upgrade", up)
	writeScriptFunc(&sb, "downgrade", down)
	return sb.String(), nil
}

func writeScriptHeader(sb *strings.Builder, p *operation.Plan) {
	sb.WriteString("# srschema migration script\n")
	if p == nil {
		return
	}
	for _, n := range p.Notes {
		sb.WriteString("# NOTE: " + n + "\n")
	}
}

func writeScriptFunc(sb *strings.Builder, name string, calls []string) {
	sb.WriteString("\n\ndef " + name + "():\n")
	if len(calls) == 0 {
		sb.WriteString(scriptIndent + "pass\n")
		return
	}
	for _, c := range calls {
		sb.WriteString(scriptIndent + c + "\n")
	}
}

func executeCalls(stmts []string) []string {
	out := make([]string, 0, len(stmts))
	for _, s := range normalizeStatements(stmts) {
		out = append(out, "op.execute("+pyString(s)+")")
	}
	return out
}

// call builds op.<name>(positional..., key=value...) with keyword arguments
// in sorted order.
type call struct {
	name string
	args []string
	kw   map[string]string
}

func newCall(k operation.Kind, args ...string) *call {
	return &call{name: k.String(), args: args, kw: map[string]string{}}
}

func (c *call) set(key, value string) *call {
	c.kw[key] = value
	return c
}

func (c *call) setIf(ok bool, key, value string) *call {
	if ok {
		c.kw[key] = value
	}
	return c
}

func (c *call) bag(b kwargs.Bag) *call {
	for k, v := range b {
		c.kw[k] = pyLiteral(v)
	}
	return c
}

func (c *call) schema(s string) *call {
	return c.setIf(s != "", "schema", pyString(s))
}

func (c *call) String() string {
	parts := slices.Clone(c.args)
	for _, k := range slices.Sorted(maps.Keys(c.kw)) {
		parts = append(parts, k+"="+c.kw[k])
	}
	return "op." + c.name + "(" + strings.Join(parts, ", ") + ")"
}

func scriptCall(op operation.Operation) (string, error) {
	var c *call
	switch o := op.(type) {
	case *operation.CreateTable:
		t := o.Table
		cols := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			cols = append(cols, scriptColumn(col))
		}
		c = newCall(op.Kind(), pyString(t.Name), "["+strings.Join(cols, ", ")+"]").
			schema(t.Schema).
			setIf(t.Comment != "", "comment", pyString(t.Comment)).
			setIf(len(t.Indexes) > 0, "indexes", scriptIndexes(t.Indexes)).
			bag(kwargs.FromTableOptions(t.Options))
	case *operation.DropTable:
		c = newCall(op.Kind(), pyString(o.Table.Name)).schema(o.Table.Schema)
	case *operation.AddColumn:
		c = newCall(op.Kind(), pyString(o.Table), scriptColumn(o.Column)).schema(o.Schema)
	case *operation.DropColumn:
		c = newCall(op.Kind(), pyString(o.Table), pyString(o.Column.Name)).schema(o.Schema)
	case *operation.AlterColumn:
		c = newCall(op.Kind(), pyString(o.Table), scriptColumn(o.Column)).schema(o.Schema)
		if o.Prior != nil {
			c.set("existing", scriptColumn(o.Prior))
		}
	case *operation.AddIndex:
		c = newCall(op.Kind(), pyString(o.Index.Name), pyString(o.Table), pyList(o.Index.Columns)).
			schema(o.Schema).
			setIf(o.Index.Type != "", "type", pyString(o.Index.Type)).
			setIf(o.Index.Comment != "", "comment", pyString(o.Index.Comment))
	case *operation.DropIndex:
		c = newCall(op.Kind(), pyString(o.Index.Name), pyString(o.Table)).schema(o.Schema)
	case *operation.AlterTableComment:
		c = newCall(op.Kind(), pyString(o.Table), pyString(o.Comment)).
			schema(o.Schema).
			set("existing_comment", pyString(o.PriorComment))
	case *operation.AlterTableDistribution:
		c = newCall(op.Kind(), pyString(o.Table)).schema(o.Schema).
			bag(kwargs.FromTableOptions(core.TableOptions{Distribution: o.Distribution}))
	case *operation.AlterTableOrder:
		c = newCall(op.Kind(), pyString(o.Table)).schema(o.Schema).
			bag(kwargs.FromTableOptions(core.TableOptions{OrderBy: o.OrderBy}))
	case *operation.AlterTableProperties:
		c = newCall(op.Kind(), pyString(o.Table)).schema(o.Schema).
			bag(kwargs.FromTableOptions(core.TableOptions{Properties: o.Properties}))
	case *operation.CreateView:
		c = newCall(op.Kind(), pyString(o.View.Name), pyString(o.View.Definition)).
			schema(o.View.Schema).
			setIf(o.View.Comment != "", "comment", pyString(o.View.Comment)).
			setIf(len(o.View.Columns) > 0, "columns", scriptViewColumns(o.View.Columns)).
			bag(kwargs.FromView(o.View))
	case *operation.AlterView:
		c = newCall(op.Kind(), pyString(o.View.Name), pyString(o.View.Definition)).schema(o.View.Schema)
	case *operation.DropView:
		c = newCall(op.Kind(), pyString(o.View.Name)).schema(o.View.Schema)
	case *operation.CreateMaterializedView:
		c = newCall(op.Kind(), pyString(o.View.Name), pyString(o.View.Definition)).
			schema(o.View.Schema).
			setIf(o.View.Comment != "", "comment", pyString(o.View.Comment)).
			bag(kwargs.FromMaterializedView(o.View))
	case *operation.AlterMaterializedView:
		c = newCall(op.Kind(), pyString(o.View.Name), pyString(o.View.Definition)).schema(o.View.Schema)
		if o.Recreate {
			c.set("recreate", "True").bag(kwargs.FromMaterializedView(o.View))
			break
		}
		b := kwargs.FromMaterializedView(&core.MaterializedView{Properties: o.Properties})
		if o.RefreshChanged {
			b[kwargs.Refresh] = o.View.RefreshType
		}
		c.bag(b)
	case *operation.DropMaterializedView:
		c = newCall(op.Kind(), pyString(o.View.Name)).schema(o.View.Schema)
	default:
		return "", fmt.Errorf("script: unsupported operation %s", op.Kind())
	}
	return c.String(), nil
}

func scriptColumn(col *core.Column) string {
	c := &call{name: "column", args: []string{pyString(col.Name), pyString(col.TypeRaw)}, kw: map[string]string{}}
	c.set("nullable", pyBool(col.Nullable)).
		setIf(col.Default != nil, "server_default", pyString(deref(col.Default))).
		setIf(col.GenerationExpression != "", "computed", pyString(col.GenerationExpression)).
		setIf(col.Comment != "", "comment", pyString(col.Comment)).
		bag(kwargs.FromColumn(col))
	return strings.TrimPrefix(c.String(), "op.")
}

func scriptIndexes(idxs []*core.Index) string {
	parts := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		c := &call{name: "index", args: []string{pyString(idx.Name), pyList(idx.Columns)}, kw: map[string]string{}}
		c.setIf(idx.Type != "", "type", pyString(idx.Type)).
			setIf(idx.Comment != "", "comment", pyString(idx.Comment))
		parts = append(parts, strings.TrimPrefix(c.String(), "op."))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func scriptViewColumns(cols []core.ViewColumn) string {
	parts := make([]string, 0, len(cols))
	for _, vc := range cols {
		if vc.Comment == "" {
			parts = append(parts, "{'name': "+pyString(vc.Name)+"}")
			continue
		}
		parts = append(parts, "{'name': "+pyString(vc.Name)+", 'comment': "+pyString(vc.Comment)+"}")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return "'" + r.Replace(s) + "'"
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyList(items []string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, pyString(it))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func pyLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return pyString(t)
	case bool:
		return pyBool(t)
	case int:
		return strconv.Itoa(t)
	case map[string]string:
		parts := make([]string, 0, len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			parts = append(parts, pyString(k)+": "+pyString(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []string:
		return pyList(t)
	}
	return pyString(fmt.Sprint(v))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
