package core

import "strings"

// ColumnType is a parsed StarRocks column type. Scalar types use Name and
// Args; ARRAY uses Elem, MAP uses Key and Value, STRUCT uses Fields.
type ColumnType struct {
	Name     string
	Args     []string
	Unsigned bool

	Elem   *ColumnType
	Key    *ColumnType
	Value  *ColumnType
	Fields []StructField
}

// StructField is a named member of a STRUCT type.
type StructField struct {
	Name string
	Type *ColumnType
}

const (
	TypeArray  = "ARRAY"
	TypeMap    = "MAP"
	TypeStruct = "STRUCT"
)

// knownTypes lists base type names the server may report; synonyms map onto
// their canonical spelling.
var knownTypes = map[string]string{
	"BOOLEAN":    "BOOLEAN",
	"BOOL":       "BOOLEAN",
	"TINYINT":    "TINYINT",
	"SMALLINT":   "SMALLINT",
	"INT":        "INT",
	"INTEGER":    "INT",
	"BIGINT":     "BIGINT",
	"LARGEINT":   "LARGEINT",
	"FLOAT":      "FLOAT",
	"DOUBLE":     "DOUBLE",
	"DECIMAL":    "DECIMAL",
	"DECIMALV2":  "DECIMAL",
	"DECIMAL32":  "DECIMAL",
	"DECIMAL64":  "DECIMAL",
	"DECIMAL128": "DECIMAL",
	"DATE":       "DATE",
	"DATETIME":   "DATETIME",
	"CHAR":       "CHAR",
	"VARCHAR":    "VARCHAR",
	"STRING":     "STRING",
	"BINARY":     "BINARY",
	"VARBINARY":  "VARBINARY",
	"JSON":       "JSON",
	"HLL":        "HLL",
	"BITMAP":     "BITMAP",
	"PERCENTILE": "PERCENTILE",
	TypeArray:    TypeArray,
	TypeMap:      TypeMap,
	TypeStruct:   TypeStruct,
}

// CanonicalTypeName returns the canonical base name for name and whether the
// name is known.
func CanonicalTypeName(name string) (string, bool) {
	n, ok := knownTypes[strings.ToUpper(strings.TrimSpace(name))]
	return n, ok
}

// IsComplex reports whether t is ARRAY, MAP or STRUCT.
func (t *ColumnType) IsComplex() bool {
	return t != nil && (t.Name == TypeArray || t.Name == TypeMap || t.Name == TypeStruct)
}

func (t *ColumnType) String() string {
	if t == nil {
		return ""
	}
	switch t.Name {
	case TypeArray:
		return "ARRAY<" + t.Elem.String() + ">"
	case TypeMap:
		return "MAP<" + t.Key.String() + ", " + t.Value.String() + ">"
	case TypeStruct:
		fields := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, f.Name+" "+f.Type.String())
		}
		return "STRUCT<" + strings.Join(fields, ", ") + ">"
	}
	s := t.Name
	if len(t.Args) > 0 {
		s += "(" + strings.Join(t.Args, ", ") + ")"
	}
	if t.Unsigned {
		s += " UNSIGNED"
	}
	return s
}
