// Package clause parses the raw StarRocks clause texts returned by
// introspection (PARTITION BY, DISTRIBUTED BY, KEY, REFRESH and column types)
// into the structured types of package core.
package clause

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"srschema/internal/core"
)

// Parser holds the compiled column type grammar and clause patterns. Build
// one with New and share it; a Parser is immutable and safe for concurrent use.
type Parser struct {
	types *participle.Parser[typeExpr]

	bucketsRe       *regexp.Regexp
	bucketsRemoveRe *regexp.Regexp
	partitionByRe   *regexp.Regexp
	keyRe           *regexp.Regexp
	refreshRe       *regexp.Regexp
}

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "QuotedIdent", Pattern: "`[^`]*`"},
	{Name: "String", Pattern: `'(?:\\.|''|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[<>(),:]`},
})

// New builds a Parser. It panics only if the built-in grammar is invalid.
func New() *Parser {
	return &Parser{
		types: participle.MustBuild[typeExpr](
			participle.Lexer(typeLexer),
			participle.Elide("Whitespace"),
			participle.CaseInsensitive("Ident"),
			participle.UseLookahead(2),
		),
		bucketsRe:       regexp.MustCompile(`(?i)(?:^|\s)BUCKETS\s+(\d+)`),
		bucketsRemoveRe: regexp.MustCompile(`(?i)(?:^|\s+)BUCKETS\s+\d+`),
		partitionByRe:   regexp.MustCompile(`(?is)PARTITION BY\s+(.*?)(?:\s+DISTRIBUTED BY|\s+ORDER BY|\s+PROPERTIES|;|$)`),
		keyRe:           regexp.MustCompile(`(?is)^\s*(PRIMARY|DUPLICATE|AGGREGATE|UNIQUE)\s+KEY\s*(\(.*\))?\s*$`),
		refreshRe:       regexp.MustCompile(`(?is)^\s*(?:REFRESH\s+)?(IMMEDIATE|DEFERRED)?\s*(.*?)\s*$`),
	}
}

// ParsePartition parses a PARTITION BY clause body. RANGE and LIST clauses are
// split into the method and the pre-created partition definitions; anything
// else is an expression partition kept verbatim. Empty input yields nil.
func (p *Parser) ParsePartition(raw string) (*core.PartitionSpec, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}

	var typ core.PartitionType
	upper := strings.ToUpper(text)
	switch {
	case hasKeyword(upper, string(core.PartitionRange)):
		typ = core.PartitionRange
	case hasKeyword(upper, string(core.PartitionList)):
		typ = core.PartitionList
	default:
		return &core.PartitionSpec{Type: core.PartitionExpression, Method: text}, nil
	}

	open := strings.IndexByte(text[len(typ):], '(')
	if open < 0 {
		return nil, &core.ParseError{Clause: "partition", Text: text, Reason: "missing column list after " + string(typ)}
	}
	open += len(typ)

	end := matchingParen(text, open)
	if end < 0 {
		return nil, &core.ParseError{Clause: "partition", Text: text, Reason: "unbalanced parentheses"}
	}

	return &core.PartitionSpec{
		Type:       typ,
		Method:     text[:end+1],
		PreCreated: strings.TrimSpace(text[end+1:]),
	}, nil
}

// hasKeyword reports whether s starts with kw as a whole word.
func hasKeyword(s, kw string) bool {
	if !strings.HasPrefix(s, kw) {
		return false
	}
	if len(s) == len(kw) {
		return true
	}
	c := s[len(kw)]
	return !(c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
}

// matchingParen returns the index of the parenthesis closing s[open], skipping
// parentheses inside quoted literals, or -1 when the text ends first.
func matchingParen(s string, open int) int {
	depth := 1
	var quote byte
	escaped := false
	for i := open + 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case quote != 0 && ch == '\\':
			escaped = true
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseDistribution parses a DISTRIBUTED BY clause body such as
// "HASH(id) BUCKETS 8". Type and columns are left unset; only the method text
// and the bucket count are extracted. Empty input yields nil.
func (p *Parser) ParseDistribution(raw string) (*core.DistributionSpec, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}

	m := p.bucketsRe.FindStringSubmatch(text)
	if m == nil {
		return &core.DistributionSpec{Method: text}, nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &core.ParseError{Clause: "distribution", Text: text, Reason: "invalid bucket count " + m[1]}
	}
	method := strings.TrimSpace(p.bucketsRemoveRe.ReplaceAllString(text, ""))
	return &core.DistributionSpec{Method: method, Buckets: &n}, nil
}

// ParseKey parses a KEY clause such as "PRIMARY KEY(id, dt)".
func (p *Parser) ParseKey(raw string) (*core.KeySpec, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}
	m := p.keyRe.FindStringSubmatch(text)
	if m == nil {
		return nil, &core.ParseError{Clause: "key", Text: text, Reason: "expected PRIMARY|DUPLICATE|AGGREGATE|UNIQUE KEY(columns)"}
	}
	if m[2] == "" {
		return nil, &core.ParseError{Clause: "key", Text: text, Reason: "column list is required"}
	}
	if matchingParen(m[2], 0) != len(m[2])-1 {
		return nil, &core.ParseError{Clause: "key", Text: text, Reason: "unbalanced parentheses"}
	}
	cols := splitColumns(m[2][1 : len(m[2])-1])
	if len(cols) == 0 {
		return nil, &core.ParseError{Clause: "key", Text: text, Reason: "column list is empty"}
	}
	return &core.KeySpec{Type: core.KeyType(strings.ToUpper(m[1]) + " KEY"), Columns: cols}, nil
}

// ParseRefresh splits a materialized view REFRESH clause into its moment
// (IMMEDIATE/DEFERRED) and refresh type, e.g. "DEFERRED ASYNC EVERY(INTERVAL 1 DAY)".
func (p *Parser) ParseRefresh(raw string) (core.RefreshMoment, string) {
	m := p.refreshRe.FindStringSubmatch(raw)
	return core.RefreshMoment(strings.ToUpper(m[1])), strings.Join(strings.Fields(m[2]), " ")
}

// ExtractPartitionClause finds the PARTITION BY clause body in the output of
// SHOW CREATE TABLE. It returns "" when the table is not partitioned.
func (p *Parser) ExtractPartitionClause(createTable string) string {
	m := p.partitionByRe.FindStringSubmatch(createTable)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// splitColumns splits "`a`, b" into unquoted names.
func splitColumns(s string) []string {
	var cols []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), "`")
		if part != "" {
			cols = append(cols, part)
		}
	}
	return cols
}

// SplitColumnList splits a raw comma-separated column list as stored in
// tables_config (DISTRIBUTE_KEY, SORT_KEY) into unquoted names.
func SplitColumnList(s string) []string {
	return splitColumns(s)
}
