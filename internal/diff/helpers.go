package diff

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type fieldChangeCollector struct {
	Changes []*FieldChange
}

func (c *fieldChangeCollector) Add(field, oldV, newV string) {
	if oldV == newV {
		return
	}
	c.Changes = append(c.Changes, &FieldChange{Field: field, Old: oldV, New: newV})
}

// Named is implemented by types that have a name identifier.
// This interface enables type-safe sorting and mapping operations.
type Named interface {
	GetName() string
}

// sortNamed sorts a slice of Named items by name (case-insensitive).
func sortNamed[T Named](items []T) {
	sortByFunc(items, func(item T) string { return item.GetName() })
}

// sortByFunc sorts items using a custom name extractor function.
func sortByFunc[T any](items []T, getName func(T) string) {
	if len(items) <= 1 {
		return
	}
	// Pre-compute lowercase keys once
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = strings.ToLower(getName(item))
	}
	sort.Sort(byKey[T]{items: items, keys: keys})
}

type byKey[T any] struct {
	items []T
	keys  []string
}

func (b byKey[T]) Len() int           { return len(b.items) }
func (b byKey[T]) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey[T]) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// mapByName creates a lookup map keyed by lowercase name.
// Returns the map and any case-insensitive name collisions found.
func mapByName[T any](items []T, name func(T) string) (map[string]T, []string) {
	m := make(map[string]T, len(items))
	original := make(map[string]string, len(items))
	var collisions []string

	for _, item := range items {
		n := name(item)
		key := strings.ToLower(n)
		if prev, ok := original[key]; ok {
			if prev != n {
				collisions = append(collisions, fmt.Sprintf("case-insensitive name collision: %q vs %q", prev, n))
			}
			continue
		}
		original[key] = n
		m[key] = item
	}
	return m, collisions
}

// warn logs a warning and returns its text so callers can keep it next to the diff.
func (c *comparer) warn(object, msg string, fields ...zap.Field) string {
	c.log.Warn(msg, append([]zap.Field{zap.String("object", object)}, fields...)...)
	return object + ": " + msg
}

func equalStringSliceCI(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func ptrStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func formatNameList(items []string) string {
	return "(" + strings.Join(items, ", ") + ")"
}

// lowerKeys returns a copy of m with lowercased keys.
func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func unionKeys(a, b map[string]string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
