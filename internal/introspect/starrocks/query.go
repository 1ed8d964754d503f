package starrocks

import (
	"context"
	"database/sql"
	"strings"

	"srschema/internal/reflection"
)

// filter is one equality condition of an information_schema lookup.
type filter struct {
	column string
	value  string
}

// infoSchemaQuery builds SELECT * FROM information_schema.<table> with the
// given equality filters. Values are inlined as escaped literals because the
// frontend does not accept prepared statements on every version.
func infoSchemaQuery(table string, filters ...filter) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM information_schema.")
	sb.WriteString(table)
	for n, f := range filters {
		if n == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(f.column)
		sb.WriteString(" = ")
		sb.WriteString(quoteLiteral(f.value))
	}
	return sb.String()
}

func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func qualifiedIdent(schema, name string) string {
	if schema == "" {
		return quoteIdent(name)
	}
	return quoteIdent(schema) + "." + quoteIdent(name)
}

// queryRows runs query and returns every row keyed by uppercased column name.
// When reading fails midway the rows read so far are returned with the error.
func (i *introspecter) queryRows(ctx context.Context, query string) ([]reflection.Row, error) {
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []reflection.Row
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for n := range values {
			dest[n] = &values[n]
		}
		if err := rows.Scan(dest...); err != nil {
			return out, err
		}
		row := make(reflection.Row, len(cols))
		for n, c := range cols {
			row[strings.ToUpper(c)] = values[n]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// queryColumn runs query and returns the value of the column at index col of
// every row. SHOW statements are addressed by position since their headers
// differ across versions.
func (i *introspecter) queryColumn(ctx context.Context, query string, col int) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if col >= len(cols) {
		return nil, sql.ErrNoRows
	}

	var out []string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for n := range values {
			dest[n] = &values[n]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, values[col].String)
	}
	return out, rows.Err()
}
