package diff

import (
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"srschema/internal/core"
	"srschema/internal/normalize"
)

// Attribute names reported for views and materialized views.
const (
	AttrDefinition = "definition"
	AttrColumns    = "columns"
	AttrSecurity   = "security"
	AttrRefresh    = "refresh"
)

func (c *comparer) diffViews(d *SchemaDiff, oldItems, newItems []*core.View) error {
	oldMap, _ := mapByName(oldItems, func(v *core.View) string { return v.Name })
	newMap, _ := mapByName(newItems, func(v *core.View) string { return v.Name })

	var errs error
	for _, v := range newItems {
		name := strings.ToLower(v.Name)
		nv, ok := newMap[name]
		if !ok || nv != v {
			continue
		}
		ov, ok := oldMap[name]
		if !ok {
			d.AddedViews = append(d.AddedViews, nv)
			continue
		}
		vd, err := c.compareView(ov, nv)
		errs = multierr.Append(errs, err)
		if vd == nil {
			continue
		}
		if vd.DefinitionChanged {
			d.ModifiedViews = append(d.ModifiedViews, vd)
		} else {
			d.Warnings = append(d.Warnings, vd.Warnings...)
		}
	}
	for name, ov := range oldMap {
		if _, ok := newMap[name]; !ok {
			d.RemovedViews = append(d.RemovedViews, ov)
		}
	}

	sortByFunc(d.AddedViews, func(v *core.View) string { return v.Name })
	sortByFunc(d.RemovedViews, func(v *core.View) string { return v.Name })
	sortNamed(d.ModifiedViews)
	return errs
}

// compareView returns nil when the view is unchanged. Comment and security
// differences only produce warnings since ALTER VIEW cannot change them.
func (c *comparer) compareView(ov, nv *core.View) (*ViewDiff, error) {
	object := nv.QualifiedName()
	if nv.Schema == "" {
		object = ov.QualifiedName()
	}
	vd := &ViewDiff{Name: nv.Name, Old: ov, New: nv}

	vd.DefinitionChanged = normalize.SQL(ov.Definition) != normalize.SQL(nv.Definition)

	columnsChanged := false
	if len(nv.Columns) > 0 {
		if len(ov.Columns) == 0 {
			vd.Warnings = append(vd.Warnings, c.warn(object, "view columns are not reflected, declared columns not compared",
				zap.String("attribute", AttrColumns)))
		} else {
			columnsChanged = !equalViewColumns(ov.Columns, nv.Columns)
		}
	}
	if columnsChanged && !vd.DefinitionChanged {
		return nil, &core.UnsupportedOperationError{
			Object:    object,
			Attribute: AttrColumns,
			Reflected: viewColumnNames(ov.Columns),
			Declared:  viewColumnNames(nv.Columns),
			Reason:    "view columns can only change together with the definition",
		}
	}

	if strings.TrimSpace(ov.Comment) != strings.TrimSpace(nv.Comment) {
		vd.Warnings = append(vd.Warnings, c.warn(object, "view comment differs and cannot be altered",
			zap.String("attribute", AttrComment), zap.String("reflected", ov.Comment), zap.String("declared", nv.Comment)))
	}
	if nv.Security != "" && !strings.EqualFold(ov.Security, nv.Security) {
		vd.Warnings = append(vd.Warnings, c.warn(object, "view security differs and cannot be altered",
			zap.String("attribute", AttrSecurity), zap.String("reflected", ov.Security), zap.String("declared", nv.Security)))
	}

	if !vd.DefinitionChanged && len(vd.Warnings) == 0 {
		return nil, nil
	}
	return vd, nil
}

func equalViewColumns(a, b []core.ViewColumn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Name, b[i].Name) || a[i].Comment != b[i].Comment {
			return false
		}
	}
	return true
}

func viewColumnNames(cols []core.ViewColumn) string {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return formatNameList(names)
}

func (c *comparer) diffMaterializedViews(d *SchemaDiff, oldItems, newItems []*core.MaterializedView) error {
	oldMap, _ := mapByName(oldItems, func(mv *core.MaterializedView) string { return mv.Name })
	newMap, _ := mapByName(newItems, func(mv *core.MaterializedView) string { return mv.Name })

	for name, nmv := range newMap {
		omv, ok := oldMap[name]
		if !ok {
			d.AddedMaterializedViews = append(d.AddedMaterializedViews, nmv)
			continue
		}
		md := c.compareMaterializedView(omv, nmv)
		if md == nil {
			continue
		}
		if len(md.Changed) > 0 {
			d.ModifiedMaterializedViews = append(d.ModifiedMaterializedViews, md)
		} else {
			d.Warnings = append(d.Warnings, md.Warnings...)
		}
	}
	for name, omv := range oldMap {
		if _, ok := newMap[name]; !ok {
			d.RemovedMaterializedViews = append(d.RemovedMaterializedViews, omv)
		}
	}

	sortByFunc(d.AddedMaterializedViews, func(mv *core.MaterializedView) string { return mv.Name })
	sortByFunc(d.RemovedMaterializedViews, func(mv *core.MaterializedView) string { return mv.Name })
	sortNamed(d.ModifiedMaterializedViews)
	return nil
}

// compareMaterializedView compares the definition always and the remaining
// clauses only when they are declared. Changes to the definition, partition,
// distribution or order by need the view to be recreated.
func (c *comparer) compareMaterializedView(omv, nmv *core.MaterializedView) *MaterializedViewDiff {
	object := nmv.QualifiedName()
	if nmv.Schema == "" {
		object = omv.QualifiedName()
	}
	md := &MaterializedViewDiff{Name: nmv.Name, Old: omv, New: nmv}

	if normalize.SQL(omv.Definition) != normalize.SQL(nmv.Definition) {
		md.Changed = append(md.Changed, AttrDefinition)
	}
	if nmv.Partition != nil && partitionMethod(omv.Partition) != partitionMethod(nmv.Partition) {
		md.Changed = append(md.Changed, AttrPartition)
	}
	if nmv.Distribution != nil && !sameMaterializedViewDistribution(omv.Distribution, nmv.Distribution) {
		md.Changed = append(md.Changed, AttrDistribution)
	}
	if nmv.OrderBy != "" && normalize.ColumnList(omv.OrderBy) != normalize.ColumnList(nmv.OrderBy) {
		md.Changed = append(md.Changed, AttrOrderBy)
	}
	md.Recreate = len(md.Changed) > 0

	if nmv.RefreshType != "" && !strings.EqualFold(normalize.Whitespace(omv.RefreshType), normalize.Whitespace(nmv.RefreshType)) {
		md.Changed = append(md.Changed, AttrRefresh)
		md.RefreshChanged = true
	}

	reflected := reflectedProperties(omv.Properties)
	for k, v := range lowerKeys(nmv.Properties) {
		if r, ok := reflected[k]; ok && r == v {
			continue
		}
		if md.Properties == nil {
			md.Properties = make(map[string]string)
			md.ReverseProperties = make(map[string]string)
		}
		md.Properties[k] = v
		if r, ok := reflected[k]; ok {
			md.ReverseProperties[k] = r
		}
	}
	if len(md.Properties) > 0 {
		md.Changed = append(md.Changed, AttrProperties)
	}

	if strings.TrimSpace(omv.Comment) != strings.TrimSpace(nmv.Comment) {
		md.Warnings = append(md.Warnings, c.warn(object, "materialized view comment differs and cannot be altered",
			zap.String("attribute", AttrComment), zap.String("reflected", omv.Comment), zap.String("declared", nmv.Comment)))
	}
	if nmv.Security != "" && !strings.EqualFold(omv.Security, nmv.Security) {
		md.Warnings = append(md.Warnings, c.warn(object, "materialized view security differs and cannot be altered",
			zap.String("attribute", AttrSecurity), zap.String("reflected", omv.Security), zap.String("declared", nmv.Security)))
	}

	if len(md.Changed) == 0 && len(md.Warnings) == 0 {
		return nil
	}
	return md
}

func sameMaterializedViewDistribution(oldD, newD *core.DistributionSpec) bool {
	if normalize.Identifiers(oldD.MethodText()) != normalize.Identifiers(newD.MethodText()) {
		return false
	}
	return newD.Buckets == nil || oldD.BucketCount() == newD.BucketCount()
}
