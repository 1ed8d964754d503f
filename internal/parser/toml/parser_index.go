package toml

import (
	"fmt"
	"strings"

	"srschema/internal/core"
)

// tomlIndex maps [[tables.indexes]].
type tomlIndex struct {
	Name    string   `toml:"name"`
	Columns []string `toml:"columns"`
	Type    string   `toml:"type"`
	Comment string   `toml:"comment"`
}

func (c *converter) convertTableIndex(ti *tomlIndex) (*core.Index, error) {
	if err := c.validateName("index", ti.Name); err != nil {
		return nil, err
	}
	if len(ti.Columns) == 0 {
		return nil, fmt.Errorf("index %s has no columns", ti.Name)
	}

	return &core.Index{
		Name:    ti.Name,
		Columns: ti.Columns,
		Type:    strings.ToUpper(strings.TrimSpace(ti.Type)),
		Comment: ti.Comment,
	}, nil
}

// validateIndexes checks for duplicate names and verifies that every index
// column references an existing table column.
func validateIndexes(table *core.Table) error {
	seen := make(map[string]bool, len(table.Indexes))
	for _, idx := range table.Indexes {
		lower := strings.ToLower(idx.Name)
		if seen[lower] {
			return fmt.Errorf("duplicate index name %q", idx.Name)
		}
		seen[lower] = true
	}

	for _, idx := range table.Indexes {
		for _, name := range idx.Columns {
			if table.FindColumn(name) == nil {
				return fmt.Errorf("index %q references nonexistent column %q", idx.Name, name)
			}
		}
	}

	return nil
}
