package diff

import (
	"strconv"
	"strings"

	"srschema/internal/core"
	"srschema/internal/normalize"
)

// maxVarcharLength is the length the server reports for STRING columns.
const maxVarcharLength = "65533"

// checkColumnUnsupported rejects column changes StarRocks cannot apply with
// ALTER TABLE: flipping AUTO_INCREMENT and swapping an aggregate function.
func (c *comparer) checkColumnUnsupported(td *TableDiff, oldC, newC *core.Column, aggregate bool) error {
	if oldC.AutoIncrement != nil && newC.AutoIncrement != nil && *oldC.AutoIncrement != *newC.AutoIncrement {
		return &core.UnsupportedOperationError{
			Object:    td.qualifiedName() + "." + newC.Name,
			Attribute: "AUTO_INCREMENT",
			Reflected: strconv.FormatBool(*oldC.AutoIncrement),
			Declared:  strconv.FormatBool(*newC.AutoIncrement),
		}
	}

	oldAgg, newAgg := aggMarker(oldC.Aggregate, aggregate), aggMarker(newC.Aggregate, aggregate)
	if newC.Aggregate != "" && oldAgg != newAgg {
		return &core.UnsupportedOperationError{
			Object:    td.qualifiedName() + "." + newC.Name,
			Attribute: "aggregate type",
			Reflected: string(oldAgg),
			Declared:  string(newAgg),
		}
	}
	return nil
}

// aggMarker treats an unmarked column of an AGGREGATE KEY table as a key column.
func aggMarker(a core.AggType, aggregate bool) core.AggType {
	a = core.AggType(strings.ToUpper(strings.TrimSpace(string(a))))
	if a == "" && aggregate {
		return core.AggKey
	}
	return a
}

func columnFieldChanges(oldC, newC *core.Column) []*FieldChange {
	c := &fieldChangeCollector{}

	if !columnTypesEqual(oldC, newC) {
		c.Add("type", oldC.TypeRaw, newC.TypeRaw)
	}
	c.Add("nullable", strconv.FormatBool(oldC.Nullable), strconv.FormatBool(newC.Nullable))
	if defaultText(oldC.Default) != defaultText(newC.Default) {
		c.Add("default", ptrStr(oldC.Default), ptrStr(newC.Default))
	}
	c.Add("comment", strings.TrimSpace(oldC.Comment), strings.TrimSpace(newC.Comment))
	if normalize.SQL(oldC.GenerationExpression) != normalize.SQL(newC.GenerationExpression) {
		c.Add("generation_expression", oldC.GenerationExpression, newC.GenerationExpression)
	}

	return c.Changes
}

// defaultText canonicalizes a column default; nil stays distinct from ''.
func defaultText(p *string) string {
	if p == nil {
		return "\x00"
	}
	return normalize.DefaultValue(*p)
}

func columnTypesEqual(oldC, newC *core.Column) bool {
	if oldC.Type != nil && newC.Type != nil {
		return typesEqual(oldC.Type, newC.Type)
	}
	return strings.EqualFold(normalize.Identifiers(oldC.TypeRaw), normalize.Identifiers(newC.TypeRaw))
}

// typesEqual compares a reflected type with a declared one. BOOLEAN matches
// TINYINT(1) and STRING matches VARCHAR(65533), at any nesting level. A
// declared scalar without arguments matches any arguments of the same type.
func typesEqual(reflected, declared *core.ColumnType) bool {
	if reflected == nil || declared == nil {
		return reflected == declared
	}
	if equivalentScalars(reflected, declared) || equivalentScalars(declared, reflected) {
		return true
	}
	if reflected.Name != declared.Name {
		return false
	}

	switch declared.Name {
	case core.TypeArray:
		return typesEqual(reflected.Elem, declared.Elem)
	case core.TypeMap:
		return typesEqual(reflected.Key, declared.Key) && typesEqual(reflected.Value, declared.Value)
	case core.TypeStruct:
		if len(reflected.Fields) != len(declared.Fields) {
			return false
		}
		for i := range declared.Fields {
			if !strings.EqualFold(reflected.Fields[i].Name, declared.Fields[i].Name) {
				return false
			}
			if !typesEqual(reflected.Fields[i].Type, declared.Fields[i].Type) {
				return false
			}
		}
		return true
	}

	if reflected.Unsigned != declared.Unsigned {
		return false
	}
	if len(declared.Args) == 0 {
		return true
	}
	if len(reflected.Args) != len(declared.Args) {
		return false
	}
	for i := range declared.Args {
		if !strings.EqualFold(strings.TrimSpace(reflected.Args[i]), strings.TrimSpace(declared.Args[i])) {
			return false
		}
	}
	return true
}

func equivalentScalars(a, b *core.ColumnType) bool {
	switch {
	case a.Name == "BOOLEAN" && len(a.Args) == 0:
		return b.Name == "TINYINT" && len(b.Args) == 1 && b.Args[0] == "1"
	case a.Name == "STRING" && len(a.Args) == 0:
		return b.Name == "VARCHAR" && len(b.Args) == 1 && b.Args[0] == maxVarcharLength
	}
	return false
}
