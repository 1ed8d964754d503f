package toml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/kwargs"
)

// tomlColumn maps [[tables.columns]].
type tomlColumn struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Comment string `toml:"comment"`

	// Nullable is nil when not declared; see convertTableColumns.
	Nullable *bool `toml:"nullable"`

	// DefaultValue accepts string, bool, or number from TOML.
	// The converter normalizes everything to a string.
	DefaultValue any `toml:"default"`

	AutoIncrement *bool `toml:"auto_increment"`

	// Aggregate is KEY for key columns of an AGGREGATE KEY table, or the
	// aggregate function (SUM, REPLACE, ...) of a value column.
	Aggregate string `toml:"aggregate"`

	// GenerationExpression declares a generated column: name TYPE AS expr.
	GenerationExpression string `toml:"generated"`

	Kwargs map[string]any `toml:"kwargs"`
}

func (c *converter) convertColumn(tc *tomlColumn) (*core.Column, error) {
	if err := c.validateName("column", tc.Name); err != nil {
		return nil, err
	}

	col := &core.Column{
		Name:                 tc.Name,
		Comment:              tc.Comment,
		AutoIncrement:        tc.AutoIncrement,
		GenerationExpression: strings.TrimSpace(tc.GenerationExpression),
	}
	if tc.Nullable != nil {
		col.Nullable = *tc.Nullable
	}

	if err := c.resolveColumnType(col, tc); err != nil {
		return nil, err
	}

	if tc.DefaultValue != nil {
		s := normalizeDefault(tc.DefaultValue)
		col.Default = &s
	}

	if tc.Aggregate != "" {
		agg, ok := core.ParseAggType(tc.Aggregate)
		if !ok {
			return nil, fmt.Errorf("unknown aggregate %q", tc.Aggregate)
		}
		col.Aggregate = agg
	}

	if len(tc.Kwargs) > 0 {
		if err := applyColumnKwargs(col, tc.Kwargs); err != nil {
			return nil, err
		}
	}

	return col, nil
}

// applyColumnKwargs sets starrocks_* column options. An option that is also
// declared structurally is an error.
func applyColumnKwargs(col *core.Column, bag map[string]any) error {
	if err := checkKwargs(bag); err != nil {
		return err
	}
	var kw core.Column
	if err := kwargs.ApplyColumn(&kw, bag); err != nil {
		return fmt.Errorf("kwargs: %w", err)
	}
	if kw.Aggregate != "" {
		if col.Aggregate != "" {
			return errors.New("aggregate is declared in both the column and kwargs")
		}
		col.Aggregate = kw.Aggregate
	}
	if kw.AutoIncrement != nil {
		if col.AutoIncrement != nil {
			return errors.New("auto_increment is declared in both the column and kwargs")
		}
		col.AutoIncrement = kw.AutoIncrement
	}
	return nil
}

// resolveColumnType keeps the declared spelling in TypeRaw and the parsed form
// in Type. A type name StarRocks does not know is an error.
func (c *converter) resolveColumnType(col *core.Column, tc *tomlColumn) error {
	raw := strings.TrimSpace(tc.Type)
	if raw == "" {
		return errors.New("type is empty")
	}

	typ, err := c.clauses.ParseColumnType(raw)
	if err != nil {
		var unknown *clause.UnknownTypeError
		if errors.As(err, &unknown) {
			return fmt.Errorf("unknown type %q", unknown.Name)
		}
		return err
	}

	col.TypeRaw = raw
	col.Type = typ
	return nil
}

func normalizeDefault(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
