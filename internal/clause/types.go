package clause

import (
	"fmt"
	"strings"

	"srschema/internal/core"
)

// typeExpr is the grammar of a StarRocks column type as echoed by
// information_schema.columns.COLUMN_TYPE or written in a declared schema.
type typeExpr struct {
	Array  *typeExpr    `  "ARRAY" "<" @@ ">"`
	Map    *mapExpr     `| "MAP" "<" @@ ">"`
	Struct []*fieldExpr `| "STRUCT" "<" @@ ( "," @@ )* ">"`
	Scalar *scalarExpr  `| @@`
}

type mapExpr struct {
	Key   *typeExpr `@@ ","`
	Value *typeExpr `@@`
}

type fieldExpr struct {
	Name string    `@(QuotedIdent | Ident | String) ":"?`
	Type *typeExpr `@@`
}

type scalarExpr struct {
	Name     string   `@Ident`
	Args     []string `( "(" ( @(Int | String) ( "," @(Int | String) )* )? ")" )?`
	Unsigned bool     `@"UNSIGNED"?`
}

// UnknownTypeError reports a syntactically valid type whose base name is not
// known. Type carries the parse result so callers may still use it.
type UnknownTypeError struct {
	Name string
	Type *core.ColumnType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown column type %q", e.Name)
}

// ParseColumnType parses a type such as "varchar(65533)", "decimal(10, 2)",
// "array<int(11)>" or "struct<a int, b map<string, bigint>>". Base names are
// canonicalized and uppercased. A base name the parser does not know yields an
// *UnknownTypeError; malformed text yields a *core.ParseError.
func (p *Parser) ParseColumnType(raw string) (*core.ColumnType, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &core.ParseError{Clause: "column type", Text: raw, Reason: "empty type"}
	}
	expr, err := p.types.ParseString("", text)
	if err != nil {
		return nil, &core.ParseError{Clause: "column type", Text: text, Reason: err.Error()}
	}

	var unknown string
	typ := convertType(expr, &unknown)
	if unknown != "" {
		return typ, &UnknownTypeError{Name: unknown, Type: typ}
	}
	return typ, nil
}

func convertType(e *typeExpr, unknown *string) *core.ColumnType {
	switch {
	case e.Array != nil:
		return &core.ColumnType{Name: core.TypeArray, Elem: convertType(e.Array, unknown)}
	case e.Map != nil:
		return &core.ColumnType{
			Name:  core.TypeMap,
			Key:   convertType(e.Map.Key, unknown),
			Value: convertType(e.Map.Value, unknown),
		}
	case e.Struct != nil:
		t := &core.ColumnType{Name: core.TypeStruct}
		for _, f := range e.Struct {
			t.Fields = append(t.Fields, core.StructField{
				Name: unquoteIdent(f.Name),
				Type: convertType(f.Type, unknown),
			})
		}
		return t
	}

	s := e.Scalar
	name, ok := core.CanonicalTypeName(s.Name)
	if !ok {
		name = strings.ToUpper(s.Name)
		if *unknown == "" {
			*unknown = name
		}
	}
	t := &core.ColumnType{Name: name, Unsigned: s.Unsigned}
	for _, a := range s.Args {
		t.Args = append(t.Args, unquoteArg(a))
	}
	return t
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && (s[0] == '`' || s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// unquoteArg keeps string arguments quoted with single quotes so "ENUM('a')"
// style arguments survive a round trip, and trims integer arguments.
func unquoteArg(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return "'" + s[1:len(s)-1] + "'"
	}
	return strings.TrimPrefix(s, "+")
}
