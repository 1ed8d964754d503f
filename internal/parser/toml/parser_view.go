package toml

import (
	"errors"
	"fmt"
	"strings"

	"srschema/internal/core"
	"srschema/internal/kwargs"
	"srschema/internal/normalize"
)

// tomlView maps [[views]].
type tomlView struct {
	Name       string           `toml:"name"`
	Definition string           `toml:"definition"`
	Comment    string           `toml:"comment"`
	Security   string           `toml:"security"`
	Columns    []tomlViewColumn `toml:"columns"`
	Kwargs     map[string]any   `toml:"kwargs"`
}

// tomlViewColumn maps [[views.columns]].
type tomlViewColumn struct {
	Name    string `toml:"name"`
	Comment string `toml:"comment"`
}

// tomlMaterializedView maps [[materialized_views]].
type tomlMaterializedView struct {
	Name          string         `toml:"name"`
	Definition    string         `toml:"definition"`
	Comment       string         `toml:"comment"`
	Security      string         `toml:"security"`
	PartitionBy   string         `toml:"partition_by"`
	DistributedBy string         `toml:"distributed_by"`
	OrderBy       any            `toml:"order_by"`
	Refresh       string         `toml:"refresh"`
	Properties    map[string]any `toml:"properties"`
	Kwargs        map[string]any `toml:"kwargs"`
}

func (c *converter) convertView(tv *tomlView) (*core.View, error) {
	if err := c.validateName("view", tv.Name); err != nil {
		return nil, err
	}

	v := &core.View{
		Name:       tv.Name,
		Definition: strings.TrimSpace(tv.Definition),
		Comment:    tv.Comment,
		Security:   normalize.Upper(tv.Security),
	}
	for _, col := range tv.Columns {
		if err := c.validateName("column", col.Name); err != nil {
			return nil, err
		}
		v.Columns = append(v.Columns, core.ViewColumn{Name: col.Name, Comment: col.Comment})
	}

	if len(tv.Kwargs) > 0 {
		if err := checkKwargs(tv.Kwargs); err != nil {
			return nil, err
		}
		var kw core.View
		if err := kwargs.ApplyView(&kw, tv.Kwargs); err != nil {
			return nil, fmt.Errorf("kwargs: %w", err)
		}
		if kw.Security != "" {
			if v.Security != "" {
				return nil, errors.New("security is declared in both the view and kwargs")
			}
			v.Security = kw.Security
		}
	}
	return v, nil
}

// convertMaterializedView builds the structured options into a starrocks_*
// bag first, so both spellings share the kwargs parsing and conflicts are
// detected per option.
func (c *converter) convertMaterializedView(tm *tomlMaterializedView) (*core.MaterializedView, error) {
	if err := c.validateName("materialized view", tm.Name); err != nil {
		return nil, err
	}

	bag := kwargs.Bag{}
	set := func(key string, value any, present bool) {
		if present {
			bag[key] = value
		}
	}
	set(kwargs.PartitionBy, tm.PartitionBy, strings.TrimSpace(tm.PartitionBy) != "")
	set(kwargs.DistributedBy, tm.DistributedBy, strings.TrimSpace(tm.DistributedBy) != "")
	set(kwargs.OrderBy, tm.OrderBy, tm.OrderBy != nil)
	set(kwargs.Refresh, tm.Refresh, strings.TrimSpace(tm.Refresh) != "")
	set(kwargs.Security, tm.Security, strings.TrimSpace(tm.Security) != "")
	set(kwargs.Properties, tm.Properties, tm.Properties != nil)

	if err := checkKwargs(tm.Kwargs); err != nil {
		return nil, err
	}
	kw, _ := kwargs.Split(tm.Kwargs)
	for _, k := range kw.Keys() {
		if _, ok := bag[k]; ok {
			return nil, fmt.Errorf("%s is declared in both the materialized view and kwargs", strings.TrimPrefix(k, kwargs.Prefix))
		}
		bag[k] = kw[k]
	}

	mv := &core.MaterializedView{
		Name:       tm.Name,
		Definition: strings.TrimSpace(tm.Definition),
		Comment:    tm.Comment,
	}
	if err := kwargs.ApplyMaterializedView(mv, bag, c.clauses); err != nil {
		return nil, err
	}
	return mv, nil
}
