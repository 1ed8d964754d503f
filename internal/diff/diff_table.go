package diff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"srschema/internal/core"
	"srschema/internal/normalize"
)

// futurePartitionProperties are applied to partitioned tables through their
// "default." variant so the value also covers partitions created later.
var futurePartitionProperties = map[string]bool{
	"replication_num": true,
}

const futurePartitionPrefix = "default."

func (c *comparer) compareTable(oldT, newT *core.Table) (*TableDiff, error) {
	td := &TableDiff{Name: newT.Name, Schema: newT.Schema, Old: oldT, New: newT}
	if td.Schema == "" {
		td.Schema = oldT.Schema
	}

	var errs error
	errs = multierr.Append(errs, c.compareColumns(td, oldT, newT))
	compareIndexes(oldT.Indexes, newT.Indexes, td)
	errs = multierr.Append(errs, c.compareOptions(td, oldT, newT))

	if td.isEmpty() {
		if len(td.Warnings) > 0 {
			c.log.Debug("table has warnings but no changes", zap.String("table", td.Name), zap.Int("warnings", len(td.Warnings)))
		}
		return nil, errs
	}

	td.sort()
	return td, errs
}

// attribute is one table-level clause reduced to comparable text. Empty text
// means the clause is not set.
type attribute struct {
	name      string
	reflected string
	declared  string
	def       string
	supported bool
	// equalsDefault accepts an undeclared reflected value that only looks
	// different from the default, e.g. "DUPLICATE KEY(id)".
	equalsDefault func(reflected, def string) bool
}

// compareAttribute applies the common rule for a single clause and reports
// whether an alter operation is needed.
func (c *comparer) compareAttribute(td *TableDiff, a attribute) (bool, error) {
	object := td.qualifiedName()
	fields := []zap.Field{
		zap.String("attribute", a.name),
		zap.String("reflected", a.reflected),
		zap.String("declared", a.declared),
	}

	if a.declared != "" {
		effective := a.reflected
		if effective == "" {
			effective = a.def
		}
		if a.declared == effective {
			return false, nil
		}
		if strings.EqualFold(a.declared, effective) {
			td.Warnings = append(td.Warnings, c.warn(object, a.name+" differs only in letter case, ignored", fields...))
			return false, nil
		}
		if !a.supported {
			return false, &core.UnsupportedOperationError{
				Object:    object,
				Attribute: a.name,
				Reflected: effective,
				Declared:  a.declared,
			}
		}
		return true, nil
	}

	if a.reflected == "" || a.reflected == a.def {
		return false, nil
	}
	if a.equalsDefault != nil && a.equalsDefault(a.reflected, a.def) {
		return false, nil
	}
	if strings.EqualFold(a.reflected, a.def) {
		td.Warnings = append(td.Warnings, c.warn(object, a.name+" differs from the default only in letter case, ignored", fields...))
		return false, nil
	}
	return false, &core.UnsupportedOperationError{
		Object:    object,
		Attribute: a.name,
		Reflected: a.reflected,
		Declared:  a.declared,
		Reason:    "non-default value present in database but not declared",
	}
}

// compareOptions compares the table clauses in grammar order.
func (c *comparer) compareOptions(td *TableDiff, oldT, newT *core.Table) error {
	oldO, newO := oldT.Options, newT.Options

	var errs error
	_, err := c.compareAttribute(td, attribute{
		name:      AttrEngine,
		reflected: normalize.Upper(oldO.Engine),
		declared:  normalize.Upper(newO.Engine),
		def:       core.DefaultEngine,
	})
	errs = multierr.Append(errs, err)

	errs = multierr.Append(errs, c.compareKey(td, oldO.Key, newO.Key))

	if strings.TrimSpace(oldT.Comment) != strings.TrimSpace(newT.Comment) {
		td.ModifiedOptions = append(td.ModifiedOptions, &TableOptionChange{
			Name: AttrComment,
			Old:  oldT.Comment,
			New:  newT.Comment,
		})
	}

	_, err = c.compareAttribute(td, attribute{
		name:      AttrPartition,
		reflected: partitionMethod(oldO.Partition),
		declared:  partitionMethod(newO.Partition),
	})
	errs = multierr.Append(errs, err)

	errs = multierr.Append(errs, c.compareDistribution(td, oldO.Distribution, newO.Distribution))

	if newO.OrderBy != "" {
		changed, err := c.compareAttribute(td, attribute{
			name:      AttrOrderBy,
			reflected: normalize.ColumnList(oldO.OrderBy),
			declared:  normalize.ColumnList(newO.OrderBy),
			supported: true,
		})
		errs = multierr.Append(errs, err)
		if changed {
			td.ModifiedOptions = append(td.ModifiedOptions, &TableOptionChange{
				Name: AttrOrderBy,
				Old:  normalize.ColumnList(oldO.OrderBy),
				New:  normalize.ColumnList(newO.OrderBy),
			})
		}
	}

	c.compareProperties(td, oldT, newT)

	sort.SliceStable(td.ModifiedOptions, func(i, j int) bool {
		return clauseOrder[td.ModifiedOptions[i].Name] < clauseOrder[td.ModifiedOptions[j].Name]
	})
	return errs
}

// compareKey rejects key type changes. A different column list for the same
// key type is reported but cannot be altered.
func (c *comparer) compareKey(td *TableDiff, oldK, newK *core.KeySpec) error {
	if newK == nil {
		_, err := c.compareAttribute(td, attribute{
			name:      AttrKey,
			reflected: keyText(oldK),
			def:       string(core.DefaultKey),
			equalsDefault: func(reflected, def string) bool {
				return strings.HasPrefix(reflected, def)
			},
		})
		return err
	}

	oldType := core.DefaultKey
	if oldK != nil {
		oldType = oldK.Type
	}
	if oldType != newK.Type {
		return &core.UnsupportedOperationError{
			Object:    td.qualifiedName(),
			Attribute: AttrKey,
			Reflected: keyText(oldK),
			Declared:  keyText(newK),
			Reason:    "the table model cannot be changed",
		}
	}
	if oldK != nil && len(newK.Columns) > 0 && !equalStringSliceCI(oldK.Columns, newK.Columns) {
		td.Warnings = append(td.Warnings, c.warn(td.qualifiedName(), "key columns differ and cannot be altered",
			zap.String("attribute", AttrKey),
			zap.String("reflected", keyText(oldK)),
			zap.String("declared", keyText(newK)),
		))
	}
	return nil
}

// compareDistribution emits a change unless the methods match and the
// declaration leaves the bucket count to the server.
func (c *comparer) compareDistribution(td *TableDiff, oldD, newD *core.DistributionSpec) error {
	if newD != nil && oldD != nil &&
		normalize.Identifiers(oldD.MethodText()) == normalize.Identifiers(newD.MethodText()) &&
		newD.Buckets == nil {
		return nil
	}

	changed, err := c.compareAttribute(td, attribute{
		name:      AttrDistribution,
		reflected: normalize.Identifiers(oldD.String()),
		declared:  normalize.Identifiers(newD.String()),
		def:       string(core.DefaultDistribution),
		supported: true,
		equalsDefault: func(string, string) bool {
			return strings.EqualFold(normalize.Identifiers(oldD.MethodText()), string(core.DefaultDistribution))
		},
	})
	if changed {
		td.ModifiedOptions = append(td.ModifiedOptions, &TableOptionChange{
			Name: AttrDistribution,
			Old:  oldD.String(),
			New:  newD.String(),
		})
	}
	return err
}

// compareProperties compares declared properties against the reflected ones,
// falling back to run mode defaults on both sides. Undeclared properties that
// drifted from their default are reset.
func (c *comparer) compareProperties(td *TableDiff, oldT, newT *core.Table) {
	object := td.qualifiedName()
	reflected := reflectedProperties(oldT.Options.Properties)
	declared := lowerKeys(newT.Options.Properties)
	defaults := core.DefaultProperties(c.opts.RunMode)

	set := make(map[string]string)
	reverse := make(map[string]string)
	for _, k := range unionKeys(reflected, declared) {
		r, rok := reflected[k]
		if !rok {
			r, rok = defaults[k]
		}

		d, dok := declared[k]
		if !dok {
			def, hasDef := defaults[k]
			if !hasDef {
				td.Warnings = append(td.Warnings, c.warn(object, "property present in database but not declared, skipped",
					zap.String("property", k), zap.String("reflected", r)))
				continue
			}
			if r == def {
				continue
			}
			if !strings.EqualFold(r, def) {
				td.Warnings = append(td.Warnings, c.warn(object, "property not declared, resetting to default",
					zap.String("property", k), zap.String("reflected", r), zap.String("default", def)))
			}
			d = def
		}

		if rok && r == d {
			continue
		}
		if rok && strings.EqualFold(r, d) {
			td.Warnings = append(td.Warnings, c.warn(object, "property differs only in letter case, ignored",
				zap.String("property", k), zap.String("reflected", r), zap.String("declared", d)))
			continue
		}

		key := k
		if futurePartitionProperties[k] && oldT.Options.Partition != nil {
			key = futurePartitionPrefix + k
			td.Warnings = append(td.Warnings, c.warn(object, "property of a partitioned table applies to future partitions only",
				zap.String("property", key)))
		}
		set[key] = d
		if rok {
			reverse[key] = r
		}
	}

	if len(set) == 0 {
		return
	}
	td.ModifiedOptions = append(td.ModifiedOptions, &TableOptionChange{
		Name:              AttrProperties,
		Old:               formatProperties(reverse),
		New:               formatProperties(set),
		Properties:        set,
		ReverseProperties: reverse,
	})
}

// reflectedProperties lowercases keys and folds "default.x" onto "x" when x
// itself is not reported.
func reflectedProperties(props map[string]string) map[string]string {
	out := lowerKeys(props)
	for k, v := range out {
		base, ok := strings.CutPrefix(k, futurePartitionPrefix)
		if !ok {
			continue
		}
		delete(out, k)
		if _, exists := out[base]; !exists {
			out[base] = v
		}
	}
	return out
}

func (c *comparer) compareColumns(td *TableDiff, oldT, newT *core.Table) error {
	oldMap, oldCollisions := mapByName(oldT.Columns, func(c *core.Column) string { return c.Name })
	newMap, newCollisions := mapByName(newT.Columns, func(c *core.Column) string { return c.Name })
	for _, col := range oldCollisions {
		td.Warnings = append(td.Warnings, "reflected table columns: "+col)
	}
	for _, col := range newCollisions {
		td.Warnings = append(td.Warnings, "declared table columns: "+col)
	}

	// Errors follow the declared column order.
	var errs error
	for _, col := range newT.Columns {
		name := strings.ToLower(col.Name)
		newItem, ok := newMap[name]
		if !ok || newItem != col {
			continue
		}
		oldItem, exists := oldMap[name]
		if !exists {
			td.AddedColumns = append(td.AddedColumns, newItem)
			continue
		}
		if err := c.checkColumnUnsupported(td, oldItem, newItem, oldT.Options.IsAggregate()); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if changes := columnFieldChanges(oldItem, newItem); len(changes) > 0 {
			td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{
				Name:    newItem.Name,
				Old:     oldItem,
				New:     newItem,
				Changes: changes,
			})
		}
	}

	for _, col := range oldT.Columns {
		name := strings.ToLower(col.Name)
		if oldItem, ok := oldMap[name]; ok && oldItem == col {
			if _, exists := newMap[name]; !exists {
				td.RemovedColumns = append(td.RemovedColumns, oldItem)
			}
		}
	}
	return errs
}

func (td *TableDiff) sort() {
	byName := func(c *core.Column) string { return c.Name }
	sortByFunc(td.AddedColumns, byName)
	sortByFunc(td.RemovedColumns, byName)
	sortNamed(td.ModifiedColumns)
	sortByFunc(td.AddedIndexes, func(i *core.Index) string { return i.Name })
	sortByFunc(td.RemovedIndexes, func(i *core.Index) string { return i.Name })
	sortNamed(td.ModifiedIndexes)
}

func (td *TableDiff) isEmpty() bool {
	return len(td.AddedColumns) == 0 &&
		len(td.RemovedColumns) == 0 &&
		len(td.ModifiedColumns) == 0 &&
		len(td.AddedIndexes) == 0 &&
		len(td.RemovedIndexes) == 0 &&
		len(td.ModifiedIndexes) == 0 &&
		len(td.ModifiedOptions) == 0
}

func (td *TableDiff) qualifiedName() string {
	if td.Schema == "" {
		return td.Name
	}
	return td.Schema + "." + td.Name
}

// FindOption returns the changed clause with the given attribute name.
func (td *TableDiff) FindOption(name string) *TableOptionChange {
	for _, o := range td.ModifiedOptions {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func keyText(k *core.KeySpec) string {
	if k == nil {
		return ""
	}
	if len(k.Columns) == 0 {
		return string(k.Type)
	}
	return fmt.Sprintf("%s(%s)", k.Type, normalize.ColumnList(strings.Join(k.Columns, ", ")))
}

func partitionMethod(p *core.PartitionSpec) string {
	if p == nil {
		return ""
	}
	return normalize.Identifiers(p.Method)
}

func formatProperties(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Quote(k) + "=" + strconv.Quote(props[k])
	}
	return strings.Join(parts, ", ")
}
