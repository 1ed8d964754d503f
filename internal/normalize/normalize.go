// Package normalize canonicalizes SQL fragments so that two texts describing
// the same thing compare equal. All functions are pure.
package normalize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	spaceBeforeRe = regexp.MustCompile(`\s+([),])`)
	spaceAfterRe  = regexp.MustCompile(`\(\s+`)
	openParenRe   = regexp.MustCompile(`\s+\(`)
	commaRe       = regexp.MustCompile(`,\s*`)
)

// SQL returns the canonical form of a SQL statement used for definition
// comparison: comments stripped, identifier backticks removed outside string
// literals, whitespace collapsed and everything lowercased.
func SQL(sql string) string {
	s := StripComments(sql)
	s = StripIdentifierQuotes(s)
	s = Whitespace(s)
	return strings.ToLower(s)
}

// SQLPtr is SQL for optional text; nil stays nil.
func SQLPtr(sql *string) *string {
	if sql == nil {
		return nil
	}
	s := SQL(*sql)
	return &s
}

// Whitespace collapses runs of whitespace into one space and trims the ends.
func Whitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripIdentifierQuotes removes backticks that lie outside single- or
// double-quoted string literals. Backslash escapes inside literals are honored.
func StripIdentifierQuotes(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case quote != 0 && ch == '\\':
			escaped = true
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '\'' || ch == '"'):
			quote = ch
		case quote == 0 && ch == '`':
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// StripComments removes "--" line comments that start outside string literals.
func StripComments(s string) string {
	if !strings.Contains(s, "--") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote == 0 && ch == '-' && i+1 < len(s) && s[i+1] == '-' {
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				sb.WriteByte('\n')
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case quote != 0 && ch == '\\':
			escaped = true
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '\'' || ch == '"' || ch == '`'):
			quote = ch
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// Identifiers canonicalizes clause text without changing identifier case:
// backticks are stripped, whitespace collapsed, no space around the inside of
// parentheses and exactly one space after each comma.
func Identifiers(s string) string {
	s = Whitespace(StripIdentifierQuotes(s))
	if s == "" {
		return s
	}
	s = openParenRe.ReplaceAllString(s, "(")
	s = spaceAfterRe.ReplaceAllString(s, "(")
	s = spaceBeforeRe.ReplaceAllString(s, "$1")
	s = commaRe.ReplaceAllString(s, ", ")
	return strings.TrimSpace(s)
}

// RemoveOuterParentheses strips one or more pairs of parentheses that wrap the
// whole text, e.g. "((a, b))" becomes "a, b". "(a), (b)" is left alone.
func RemoveOuterParentheses(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && closingParen(s, 0) == len(s)-1 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// closingParen returns the index of the parenthesis matching s[open], or -1.
func closingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ColumnList canonicalizes a comma-separated column list, optionally wrapped
// in parentheses, e.g. "(`a`,b )" becomes "a, b".
func ColumnList(s string) string {
	return Identifiers(RemoveOuterParentheses(StripIdentifierQuotes(s)))
}

// SplitColumns splits a column list into trimmed, unquoted names.
func SplitColumns(s string) []string {
	s = ColumnList(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// DefaultValue strips one level of matching single or double quotes from a
// column default so that '0' and 0 compare equal.
func DefaultValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Upper trims and uppercases s; used for keyword-like attributes.
func Upper(s string) string {
	return strings.ToUpper(Whitespace(s))
}
