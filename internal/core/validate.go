package core

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Validate checks a declared database for problems StarRocks would reject at
// CREATE time. All problems are collected and returned as one combined error;
// use multierr.Errors to split them.
func (db *Database) Validate() error {
	if db == nil {
		return errors.New("database is nil")
	}

	var err error
	err = multierr.Append(err, validateUniqueNames(db))
	for _, t := range db.Tables {
		if tErr := ValidateTable(t); tErr != nil {
			err = multierr.Append(err, fmt.Errorf("table %q: %w", t.Name, tErr))
		}
	}
	for _, v := range db.Views {
		if strings.TrimSpace(v.Definition) == "" {
			err = multierr.Append(err, fmt.Errorf("view %q: definition is empty", v.Name))
		}
	}
	for _, mv := range db.MaterializedViews {
		if strings.TrimSpace(mv.Definition) == "" {
			err = multierr.Append(err, fmt.Errorf("materialized view %q: definition is empty", mv.Name))
		}
		if mv.RefreshMoment != "" && mv.RefreshMoment != RefreshImmediate && mv.RefreshMoment != RefreshDeferred {
			err = multierr.Append(err, fmt.Errorf("materialized view %q: invalid refresh moment %q", mv.Name, mv.RefreshMoment))
		}
	}
	return err
}

// validateUniqueNames checks that tables, views and materialized views do not
// share a name; they live in one namespace.
func validateUniqueNames(db *Database) error {
	seen := make(map[string]string)
	var err error
	check := func(kind, name string) {
		if strings.TrimSpace(name) == "" {
			err = multierr.Append(err, fmt.Errorf("%s name is empty", kind))
			return
		}
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			err = multierr.Append(err, fmt.Errorf("duplicate name %q (%s and %s)", name, prev, kind))
			return
		}
		seen[key] = kind
	}
	for _, t := range db.Tables {
		check("table", t.Name)
	}
	for _, v := range db.Views {
		check("view", v.Name)
	}
	for _, mv := range db.MaterializedViews {
		check("materialized view", mv.Name)
	}
	return err
}

// ValidateTable checks a single declared table: columns are unique, key
// columns exist, and aggregate markers follow the AGGREGATE KEY rules.
func ValidateTable(t *Table) error {
	if len(t.Columns) == 0 {
		return errors.New("table has no columns")
	}

	var err error
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			err = multierr.Append(err, fmt.Errorf("duplicate column name %q", c.Name))
		}
		seen[lower] = true
		err = multierr.Append(err, validateColumn(t, c))
	}

	if t.Options.Key != nil {
		for _, kc := range t.Options.Key.Columns {
			if !seen[strings.ToLower(kc)] {
				err = multierr.Append(err, fmt.Errorf("key column %q does not exist", kc))
			}
		}
	}
	if t.Options.IsAggregate() {
		err = multierr.Append(err, validateAggregateKeyOrder(t))
	}
	return err
}

func validateColumn(t *Table, c *Column) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("column name is empty")
	}
	if c.Default != nil && c.GenerationExpression != "" {
		return fmt.Errorf("column %q: DEFAULT and generated expression are mutually exclusive", c.Name)
	}
	if c.Aggregate == "" {
		return nil
	}
	if !t.Options.IsAggregate() {
		return fmt.Errorf("column %q: KEY/aggregate markers are only valid for AGGREGATE KEY tables", c.Name)
	}
	if _, ok := ParseAggType(string(c.Aggregate)); !ok {
		return fmt.Errorf("column %q: unsupported aggregate type %q", c.Name, c.Aggregate)
	}
	return nil
}

// validateAggregateKeyOrder requires key columns to come first, in the order
// of the KEY clause, followed by value columns.
func validateAggregateKeyOrder(t *Table) error {
	key := t.Options.Key
	if len(key.Columns) == 0 {
		return nil
	}
	if len(t.Columns) < len(key.Columns) {
		return fmt.Errorf("AGGREGATE KEY lists %d columns but the table has %d", len(key.Columns), len(t.Columns))
	}
	for i, kc := range key.Columns {
		got := t.Columns[i]
		if !strings.EqualFold(got.Name, kc) {
			return fmt.Errorf("AGGREGATE KEY column %q must be at position %d, found %q", kc, i+1, got.Name)
		}
		if got.Aggregate.IsFunction() {
			return fmt.Errorf("key column %q cannot carry aggregate function %s", got.Name, got.Aggregate)
		}
	}
	for _, c := range t.Columns[len(key.Columns):] {
		if c.Aggregate == AggKey {
			return fmt.Errorf("key column %q must precede all value columns", c.Name)
		}
	}
	return nil
}
