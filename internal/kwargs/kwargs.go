// Package kwargs translates between the structured StarRocks options of
// package core and the loosely typed option bags used by declaration files
// and migration scripts, where every StarRocks option carries the
// "starrocks_" prefix. No other package knows the prefixed names.
package kwargs

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"srschema/internal/clause"
	"srschema/internal/core"
	"srschema/internal/normalize"
)

// Prefix namespaces StarRocks options inside a generic option bag.
const Prefix = "starrocks_"

// Table options.
const (
	Engine        = Prefix + "engine"
	PrimaryKey    = Prefix + "primary_key"
	DuplicateKey  = Prefix + "duplicate_key"
	AggregateKey  = Prefix + "aggregate_key"
	UniqueKey     = Prefix + "unique_key"
	PartitionBy   = Prefix + "partition_by"
	DistributedBy = Prefix + "distributed_by"
	OrderBy       = Prefix + "order_by"
	Properties    = Prefix + "properties"
)

// Column options.
const (
	IsAggKey      = Prefix + "is_agg_key"
	Agg           = Prefix + "agg"
	AutoIncrement = Prefix + "autoincrement"
)

// View and materialized view options.
const (
	Security = Prefix + "security"
	Refresh  = Prefix + "refresh"
)

var keyOptions = map[string]core.KeyType{
	PrimaryKey:   core.KeyPrimary,
	DuplicateKey: core.KeyDuplicate,
	AggregateKey: core.KeyAggregate,
	UniqueKey:    core.KeyUnique,
}

// Bag is a generic option bag, e.g. the keyword arguments of a migration
// script call or an inline TOML table.
type Bag map[string]any

// Split separates the StarRocks options from the rest. Keys of the returned
// StarRocks bag are lowercased.
func Split(bag map[string]any) (starrocks, rest Bag) {
	starrocks, rest = Bag{}, Bag{}
	for k, v := range bag {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, Prefix) {
			starrocks[lower] = v
			continue
		}
		rest[k] = v
	}
	return starrocks, rest
}

// Keys returns the keys of the bag in sorted order.
func (b Bag) Keys() []string {
	return slices.Sorted(maps.Keys(b))
}

// FromTableOptions renders table options as a StarRocks option bag.
func FromTableOptions(o core.TableOptions) Bag {
	b := Bag{}
	if o.Engine != "" {
		b[Engine] = o.Engine
	}
	if o.Key != nil && len(o.Key.Columns) > 0 {
		for name, kt := range keyOptions {
			if kt == o.Key.Type {
				b[name] = strings.Join(o.Key.Columns, ", ")
			}
		}
	}
	if o.Partition != nil {
		b[PartitionBy] = o.Partition.String()
	}
	if o.Distribution != nil {
		b[DistributedBy] = o.Distribution.String()
	}
	if o.OrderBy != "" {
		b[OrderBy] = o.OrderBy
	}
	if len(o.Properties) > 0 {
		b[Properties] = maps.Clone(o.Properties)
	}
	return b
}

// ToTableOptions parses a StarRocks option bag into table options. Unknown
// starrocks_ keys are an error; keys without the prefix are ignored.
func ToTableOptions(bag map[string]any, p *clause.Parser) (core.TableOptions, error) {
	var o core.TableOptions
	sr, _ := Split(bag)

	for _, k := range sr.Keys() {
		v := sr[k]
		var err error
		switch k {
		case Engine:
			o.Engine, err = str(k, v)
		case PrimaryKey, DuplicateKey, AggregateKey, UniqueKey:
			if o.Key != nil {
				return o, fmt.Errorf("%s: table already has %s", k, o.Key.Type)
			}
			var cols []string
			cols, err = columnList(k, v)
			o.Key = &core.KeySpec{Type: keyOptions[k], Columns: cols}
		case PartitionBy:
			var s string
			if s, err = str(k, v); err == nil {
				o.Partition, err = p.ParsePartition(s)
			}
		case DistributedBy:
			var s string
			if s, err = str(k, v); err == nil {
				o.Distribution, err = p.ParseDistribution(s)
			}
		case OrderBy:
			var cols []string
			if cols, err = columnList(k, v); err == nil {
				o.OrderBy = strings.Join(cols, ", ")
			}
		case Properties:
			o.Properties, err = properties(k, v)
		default:
			err = fmt.Errorf("unknown table option %s", k)
		}
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

// FromColumn renders the StarRocks column options.
func FromColumn(c *core.Column) Bag {
	b := Bag{}
	switch {
	case c.Aggregate == core.AggKey:
		b[IsAggKey] = true
	case c.Aggregate != "":
		b[Agg] = string(c.Aggregate)
	}
	if c.IsAutoIncrement() {
		b[AutoIncrement] = true
	}
	return b
}

// ApplyColumn sets the StarRocks column options of bag on c.
func ApplyColumn(c *core.Column, bag map[string]any) error {
	sr, _ := Split(bag)
	for _, k := range sr.Keys() {
		v := sr[k]
		switch k {
		case IsAggKey:
			on, err := boolean(k, v)
			if err != nil {
				return err
			}
			if on {
				c.Aggregate = core.AggKey
			}
		case Agg:
			s, err := str(k, v)
			if err != nil {
				return err
			}
			agg, ok := core.ParseAggType(s)
			if !ok {
				return fmt.Errorf("%s: unknown aggregate type %q", k, s)
			}
			c.Aggregate = agg
		case AutoIncrement:
			on, err := boolean(k, v)
			if err != nil {
				return err
			}
			c.AutoIncrement = &on
		default:
			return fmt.Errorf("unknown column option %s", k)
		}
	}
	return nil
}

// FromView renders the StarRocks view options.
func FromView(v *core.View) Bag {
	b := Bag{}
	if v.Security != "" {
		b[Security] = v.Security
	}
	return b
}

// ApplyView sets the StarRocks view options of bag on v.
func ApplyView(v *core.View, bag map[string]any) error {
	sr, _ := Split(bag)
	for _, k := range sr.Keys() {
		switch k {
		case Security:
			s, err := str(k, sr[k])
			if err != nil {
				return err
			}
			v.Security = normalize.Upper(s)
		default:
			return fmt.Errorf("unknown view option %s", k)
		}
	}
	return nil
}

// FromMaterializedView renders the StarRocks materialized view options.
func FromMaterializedView(mv *core.MaterializedView) Bag {
	b := Bag{}
	if mv.Partition != nil {
		b[PartitionBy] = mv.Partition.String()
	}
	if mv.Distribution != nil {
		b[DistributedBy] = mv.Distribution.String()
	}
	if mv.OrderBy != "" {
		b[OrderBy] = mv.OrderBy
	}
	if r := mv.Refresh(); r != "" {
		b[Refresh] = r
	}
	if mv.Security != "" {
		b[Security] = mv.Security
	}
	if len(mv.Properties) > 0 {
		b[Properties] = maps.Clone(mv.Properties)
	}
	return b
}

// ApplyMaterializedView sets the StarRocks options of bag on mv.
func ApplyMaterializedView(mv *core.MaterializedView, bag map[string]any, p *clause.Parser) error {
	sr, _ := Split(bag)
	for _, k := range sr.Keys() {
		v := sr[k]
		var err error
		switch k {
		case PartitionBy:
			var s string
			if s, err = str(k, v); err == nil {
				mv.Partition, err = p.ParsePartition(s)
			}
		case DistributedBy:
			var s string
			if s, err = str(k, v); err == nil {
				mv.Distribution, err = p.ParseDistribution(s)
			}
		case OrderBy:
			var cols []string
			if cols, err = columnList(k, v); err == nil {
				mv.OrderBy = strings.Join(cols, ", ")
			}
		case Refresh:
			var s string
			if s, err = str(k, v); err == nil {
				mv.RefreshMoment, mv.RefreshType = p.ParseRefresh(s)
			}
		case Security:
			var s string
			if s, err = str(k, v); err == nil {
				mv.Security = normalize.Upper(s)
			}
		case Properties:
			mv.Properties, err = properties(k, v)
		default:
			err = fmt.Errorf("unknown materialized view option %s", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func str(key string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", fmt.Errorf("%s: expected a string, got %T", key, v)
}

func boolean(key string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return b, nil
	}
	return false, fmt.Errorf("%s: expected a boolean, got %T", key, v)
}

// columnList accepts "a, b", "(a, b)" or a list of names.
func columnList(key string, v any) ([]string, error) {
	var cols []string
	switch t := v.(type) {
	case string:
		cols = normalize.SplitColumns(t)
	case []string:
		for _, s := range t {
			cols = append(cols, normalize.SplitColumns(s)...)
		}
	case []any:
		for _, item := range t {
			s, err := str(key, item)
			if err != nil {
				return nil, err
			}
			cols = append(cols, normalize.SplitColumns(s)...)
		}
	default:
		return nil, fmt.Errorf("%s: expected a column list, got %T", key, v)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: column list is empty", key)
	}
	return cols, nil
}

// properties accepts a table of scalars or a PROPERTIES body such as
// ("replication_num" = "1"). Keys are lowercased.
func properties(key string, v any) (map[string]string, error) {
	out := map[string]string{}
	switch t := v.(type) {
	case string:
		for k, val := range clause.ParseProperties(t) {
			out[strings.ToLower(k)] = val
		}
	case map[string]string:
		for k, val := range t {
			out[strings.ToLower(k)] = val
		}
	case map[string]any:
		for k, val := range t {
			s, err := scalar(val)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", key, k, err)
			}
			out[strings.ToLower(k)] = s
		}
	default:
		return nil, fmt.Errorf("%s: expected a table of properties, got %T", key, v)
	}
	return out, nil
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("expected a scalar, got %T", v)
}
