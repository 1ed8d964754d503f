package toml

import (
	"fmt"
	"strings"

	"srschema/internal/core"
	"srschema/internal/kwargs"
)

// tomlTable maps [[tables]].
type tomlTable struct {
	Name    string           `toml:"name"`
	Comment string           `toml:"comment"`
	Options tomlTableOptions `toml:"options"`
	Columns []tomlColumn     `toml:"columns"`
	Indexes []tomlIndex      `toml:"indexes"`

	// Kwargs holds StarRocks options by their starrocks_* names, e.g.
	// starrocks_primary_key = "id".
	Kwargs map[string]any `toml:"kwargs"`
}

// tomlTableOptions maps [tables.options].
type tomlTableOptions struct {
	Engine        string         `toml:"engine"`
	Key           string         `toml:"key"`
	PartitionBy   string         `toml:"partition_by"`
	DistributedBy string         `toml:"distributed_by"`
	OrderBy       any            `toml:"order_by"`
	Properties    map[string]any `toml:"properties"`
}

func (c *converter) convertTable(tt *tomlTable) (*core.Table, error) {
	if err := c.validateName("table", tt.Name); err != nil {
		return nil, err
	}

	opts, err := c.convertTableOptions(&tt.Options)
	if err != nil {
		return nil, err
	}
	if len(tt.Kwargs) > 0 {
		if err := checkKwargs(tt.Kwargs); err != nil {
			return nil, err
		}
		kw, err := kwargs.ToTableOptions(tt.Kwargs, c.clauses)
		if err != nil {
			return nil, fmt.Errorf("kwargs: %w", err)
		}
		if opts, err = mergeTableOptions(opts, kw); err != nil {
			return nil, err
		}
	}

	table := &core.Table{
		Name:    tt.Name,
		Comment: tt.Comment,
		Options: opts,
	}

	if err := c.convertTableColumns(table, tt); err != nil {
		return nil, err
	}

	table.Indexes = make([]*core.Index, 0, len(tt.Indexes))
	for i := range tt.Indexes {
		idx, err := c.convertTableIndex(&tt.Indexes[i])
		if err != nil {
			return nil, err
		}
		table.Indexes = append(table.Indexes, idx)
	}
	if err := validateIndexes(table); err != nil {
		return nil, err
	}

	return table, nil
}

// convertTableOptions parses the clause texts of [tables.options]. The
// properties table goes through kwargs so scalar values are rendered the same
// way as in a starrocks_properties bag.
func (c *converter) convertTableOptions(to *tomlTableOptions) (core.TableOptions, error) {
	var (
		opts core.TableOptions
		err  error
	)
	opts.Engine = strings.TrimSpace(to.Engine)

	if opts.Key, err = c.clauses.ParseKey(to.Key); err != nil {
		return opts, err
	}
	if opts.Partition, err = c.clauses.ParsePartition(to.PartitionBy); err != nil {
		return opts, err
	}
	if opts.Distribution, err = c.clauses.ParseDistribution(to.DistributedBy); err != nil {
		return opts, err
	}

	bag := kwargs.Bag{}
	if to.OrderBy != nil {
		bag[kwargs.OrderBy] = to.OrderBy
	}
	if to.Properties != nil {
		bag[kwargs.Properties] = to.Properties
	}
	if len(bag) > 0 {
		parsed, err := kwargs.ToTableOptions(bag, c.clauses)
		if err != nil {
			return opts, fmt.Errorf("options: %w", err)
		}
		opts.OrderBy = parsed.OrderBy
		opts.Properties = parsed.Properties
	}
	return opts, nil
}

// mergeTableOptions combines the structured options with the kwargs ones.
// An option set both ways is an error.
func mergeTableOptions(opts, kw core.TableOptions) (core.TableOptions, error) {
	conflict := func(name string) error {
		return fmt.Errorf("%s is declared in both options and kwargs", name)
	}

	if kw.Engine != "" {
		if opts.Engine != "" {
			return opts, conflict("engine")
		}
		opts.Engine = kw.Engine
	}
	if kw.Key != nil {
		if opts.Key != nil {
			return opts, conflict("key")
		}
		opts.Key = kw.Key
	}
	if kw.Partition != nil {
		if opts.Partition != nil {
			return opts, conflict("partition_by")
		}
		opts.Partition = kw.Partition
	}
	if kw.Distribution != nil {
		if opts.Distribution != nil {
			return opts, conflict("distributed_by")
		}
		opts.Distribution = kw.Distribution
	}
	if kw.OrderBy != "" {
		if opts.OrderBy != "" {
			return opts, conflict("order_by")
		}
		opts.OrderBy = kw.OrderBy
	}
	if kw.Properties != nil {
		if opts.Properties != nil {
			return opts, conflict("properties")
		}
		opts.Properties = kw.Properties
	}
	return opts, nil
}

// convertTableColumns populates table.Columns. Columns without an explicit
// nullable flag are nullable, except PRIMARY KEY and AUTO_INCREMENT columns
// which StarRocks always creates NOT NULL.
func (c *converter) convertTableColumns(table *core.Table, tt *tomlTable) error {
	keyCols := map[string]bool{}
	if k := table.Options.Key; k != nil && k.Type == core.KeyPrimary {
		for _, name := range k.Columns {
			keyCols[strings.ToLower(name)] = true
		}
	}

	table.Columns = make([]*core.Column, 0, len(tt.Columns))
	for i := range tt.Columns {
		tc := &tt.Columns[i]
		col, err := c.convertColumn(tc)
		if err != nil {
			return fmt.Errorf("column %q: %w", tc.Name, err)
		}
		if tc.Nullable == nil {
			col.Nullable = !keyCols[strings.ToLower(col.Name)] && !col.IsAutoIncrement()
		}
		table.Columns = append(table.Columns, col)
	}
	return nil
}
