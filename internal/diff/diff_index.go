package diff

import (
	"strings"

	"srschema/internal/core"
)

func compareIndexes(oldItems, newItems []*core.Index, td *TableDiff) {
	oldMap, _ := mapByName(oldItems, indexKey)
	newMap, _ := mapByName(newItems, indexKey)

	for name, newItem := range newMap {
		oldItem, exists := oldMap[name]
		if !exists {
			td.AddedIndexes = append(td.AddedIndexes, newItem)
			continue
		}
		if !equalIndex(oldItem, newItem) {
			td.ModifiedIndexes = append(td.ModifiedIndexes, &IndexChange{
				Name:    newItem.Name,
				Old:     oldItem,
				New:     newItem,
				Changes: indexFieldChanges(oldItem, newItem),
			})
		}
	}

	for name, oldItem := range oldMap {
		if _, exists := newMap[name]; !exists {
			td.RemovedIndexes = append(td.RemovedIndexes, oldItem)
		}
	}
}

func equalIndex(a, b *core.Index) bool {
	if b.Type != "" && !strings.EqualFold(a.Type, b.Type) {
		return false
	}
	if !equalStringSliceCI(a.Columns, b.Columns) {
		return false
	}
	return a.Comment == b.Comment
}

func indexFieldChanges(oldI, newI *core.Index) []*FieldChange {
	c := &fieldChangeCollector{}

	if newI.Type != "" && !strings.EqualFold(oldI.Type, newI.Type) {
		c.Add("type", oldI.Type, newI.Type)
	}
	c.Add("columns", formatNameList(oldI.Columns), formatNameList(newI.Columns))
	c.Add("comment", oldI.Comment, newI.Comment)

	return c.Changes
}

// indexKey identifies unnamed indexes by type and columns.
func indexKey(i *core.Index) string {
	name := strings.ToLower(strings.TrimSpace(i.Name))
	if name != "" {
		return name
	}
	return "idx:" + strings.ToLower(i.Type) + ":" + strings.ToLower(strings.Join(i.Columns, ","))
}
