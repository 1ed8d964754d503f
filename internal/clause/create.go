package clause

import (
	"regexp"
	"strings"
)

// MaterializedViewClauses holds the clause bodies found in the output of
// SHOW CREATE MATERIALIZED VIEW. Missing clauses are empty.
type MaterializedViewClauses struct {
	Comment      string
	Partition    string
	Distribution string
	OrderBy      string
	Refresh      string
	Properties   map[string]string
	Definition   string
}

var mvSections = []struct {
	name  string
	words []string
}{
	{"COMMENT", []string{"COMMENT"}},
	{"PARTITION", []string{"PARTITION", "BY"}},
	{"DISTRIBUTED", []string{"DISTRIBUTED", "BY"}},
	{"ORDER", []string{"ORDER", "BY"}},
	{"REFRESH", []string{"REFRESH"}},
	{"PROPERTIES", []string{"PROPERTIES"}},
	{"AS", []string{"AS"}},
}

var propertyRe = regexp.MustCompile(`"([^"]+)"\s*=\s*"((?:[^"\\]|\\.)*)"`)

// SplitMaterializedView splits a CREATE MATERIALIZED VIEW statement into its
// clauses. Keywords are recognized only outside quotes and parentheses, and
// everything after the first top-level AS is the definition.
func SplitMaterializedView(ddl string) MaterializedViewClauses {
	var out MaterializedViewClauses
	text := strings.TrimSpace(ddl)
	upper := strings.ToUpper(text)

	section, start := "", 0
	flush := func(end int) {
		body := strings.TrimSpace(text[start:end])
		switch section {
		case "COMMENT":
			out.Comment = unquoteLiteral(body)
		case "PARTITION":
			out.Partition = body
		case "DISTRIBUTED":
			out.Distribution = body
		case "ORDER":
			out.OrderBy = body
		case "REFRESH":
			out.Refresh = body
		case "PROPERTIES":
			out.Properties = ParseProperties(body)
		}
	}

	depth := 0
	var quote byte
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
			continue
		case quote != 0 && ch == '\\':
			escaped = true
			continue
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			continue
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			continue
		case ch == '(':
			depth++
			continue
		case ch == ')':
			depth--
			continue
		}
		if depth != 0 || (i > 0 && isWordChar(upper[i-1])) {
			continue
		}
		for _, s := range mvSections {
			end := matchWords(upper, i, s.words)
			if end < 0 {
				continue
			}
			flush(i)
			if s.name == "AS" {
				out.Definition = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text[end:]), ";"))
				return out
			}
			section, start = s.name, end
			i = end - 1
			break
		}
	}
	flush(len(text))
	return out
}

// ParseProperties reads the "key" = "value" pairs of a PROPERTIES clause.
func ParseProperties(body string) map[string]string {
	matches := propertyRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	props := make(map[string]string, len(matches))
	for _, m := range matches {
		props[m[1]] = strings.ReplaceAll(m[2], `\"`, `"`)
	}
	return props
}

// matchWords reports the end offset of words starting at s[i], separated by
// whitespace and followed by a word boundary, or -1.
func matchWords(s string, i int, words []string) int {
	pos := i
	for n, w := range words {
		if n > 0 {
			j := pos
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j == pos {
				return -1
			}
			pos = j
		}
		if !strings.HasPrefix(s[pos:], w) {
			return -1
		}
		pos += len(w)
	}
	if pos < len(s) && isWordChar(s[pos]) {
		return -1
	}
	return pos
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func unquoteLiteral(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		inner := s[1 : len(s)-1]
		return strings.ReplaceAll(inner, `\`+string(s[0]), string(s[0]))
	}
	return s
}
