package apply

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations

	"srschema/internal/normalize"
)

// AlterJob names the SHOW ALTER TABLE job type an asynchronous statement
// creates.
type AlterJob string

const (
	JobNone     AlterJob = ""
	JobColumn   AlterJob = "COLUMN"
	JobOptimize AlterJob = "OPTIMIZE"
)

type alterTableSpecEffect struct {
	job               AlterJob
	asyncReason       string
	destructive       bool
	destructiveReason string
}

var alterTableSpecEffects = map[ast.AlterTableType]alterTableSpecEffect{
	ast.AlterTableAddColumns: {
		job:         JobColumn,
		asyncReason: "ADD COLUMN runs as an asynchronous schema change job",
	},
	ast.AlterTableDropColumn: {
		job:               JobColumn,
		asyncReason:       "DROP COLUMN runs as an asynchronous schema change job",
		destructive:       true,
		destructiveReason: "DROP COLUMN will permanently delete the column and its data",
	},
	ast.AlterTableModifyColumn: {
		job:         JobColumn,
		asyncReason: "MODIFY COLUMN runs as an asynchronous schema change job and may rewrite the table",
	},
	ast.AlterTableChangeColumn: {
		job:         JobColumn,
		asyncReason: "CHANGE COLUMN runs as an asynchronous schema change job",
	},
	ast.AlterTableDropIndex: {
		job:         JobColumn,
		asyncReason: "DROP INDEX runs as an asynchronous schema change job",
	},
}

// textRule classifies a statement the TiDB grammar cannot parse, such as
// StarRocks-only clauses (DISTRIBUTED BY, PROPERTIES, MATERIALIZED VIEW).
type textRule struct {
	re                *regexp.Regexp
	statementType     string
	job               AlterJob
	asyncReason       string
	destructiveReason string
}

var textRules = []textRule{
	{
		re:                regexp.MustCompile(`^DROP\s+MATERIALIZED\s+VIEW\b`),
		statementType:     "DROP MATERIALIZED VIEW",
		destructiveReason: "DROP MATERIALIZED VIEW deletes the view data; its refresh scheme and properties cannot be restored",
	},
	{
		re:                regexp.MustCompile(`^DROP\s+TABLE\b`),
		statementType:     "DROP TABLE",
		destructiveReason: "DROP TABLE will permanently delete the table and all its data",
	},
	{
		re:                regexp.MustCompile(`^DROP\s+(DATABASE|SCHEMA)\b`),
		statementType:     "DROP DATABASE",
		destructiveReason: "DROP DATABASE will permanently delete the entire database",
	},
	{
		re:                regexp.MustCompile(`^TRUNCATE\b`),
		statementType:     "TRUNCATE TABLE",
		destructiveReason: "TRUNCATE TABLE will delete all rows from the table",
	},
	{
		re:                regexp.MustCompile(`^DELETE\b`),
		statementType:     "DELETE",
		destructiveReason: "DELETE will remove rows from the table",
	},
	{
		re:                regexp.MustCompile(`^ALTER\s+TABLE\b.*\bDROP\s+COLUMN\b`),
		statementType:     "ALTER TABLE",
		job:               JobColumn,
		asyncReason:       "DROP COLUMN runs as an asynchronous schema change job",
		destructiveReason: "DROP COLUMN will permanently delete the column and its data",
	},
	{
		re:            regexp.MustCompile(`^ALTER\s+TABLE\b.*\b(ADD|MODIFY)\s+COLUMN\b`),
		statementType: "ALTER TABLE",
		job:           JobColumn,
		asyncReason:   "ADD/MODIFY COLUMN runs as an asynchronous schema change job",
	},
	{
		re:            regexp.MustCompile(`^ALTER\s+TABLE\b.*\bORDER\s+BY\b`),
		statementType: "ALTER TABLE",
		job:           JobColumn,
		asyncReason:   "changing the sort key runs as an asynchronous schema change job",
	},
	{
		re:            regexp.MustCompile(`^ALTER\s+TABLE\b.*\bDISTRIBUTED\s+BY\b`),
		statementType: "ALTER TABLE",
		job:           JobOptimize,
		asyncReason:   "changing the distribution rewrites all tablets in an asynchronous optimize job",
	},
	{
		re:            regexp.MustCompile(`^(CREATE|DROP)\s+INDEX\b`),
		statementType: "INDEX",
		job:           JobColumn,
		asyncReason:   "index changes run as an asynchronous schema change job",
	},
}

var (
	alterTableTargetRe = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+(\S+)`)
	indexTargetRe      = regexp.MustCompile(`(?i)^(?:CREATE|DROP)\s+INDEX\s+\S+\s+ON\s+([^\s(]+)`)
	literalRe          = regexp.MustCompile(`'(?:\\.|''|[^'\\])*'|"(?:\\.|[^"\\])*"`)
)

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	StatementType     string
	IsDestructive     bool
	DestructiveReason string
	// Job is the alter job the statement starts; JobNone for synchronous statements.
	Job          AlterJob
	AsyncReasons []string
	// Schema and Table name the altered table of an asynchronous statement.
	Schema string
	Table  string
}

// IsAsync reports whether the statement returns before its schema change
// job has finished.
func (s *StatementAnalysis) IsAsync() bool {
	return s.Job != JobNone
}

// StatementAnalyzer uses TiDB's AST parser for the MySQL-compatible statements
// and keyword rules for StarRocks-only syntax.
type StatementAnalyzer struct {
	parser *parser.Parser
}

// NewStatementAnalyzer creates a new statement analyzer.
func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{
		parser: parser.New(),
	}
}

// AnalyzeStatement parses a single SQL statement and returns analysis results.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return a.analyzeText(sql)
	}
	return a.analyzeNode(stmtNodes[0], sql)
}

// AnalyzeStatements analyzes multiple SQL statements and returns a PreflightResult.
func (a *StatementAnalyzer) AnalyzeStatements(statements []string, unsafeAllowed bool) *PreflightResult {
	result := &PreflightResult{}

	for _, stmt := range statements {
		analysis := a.AnalyzeStatement(stmt)
		result.Statements = append(result.Statements, analysis)

		a.addAsyncWarnings(result, analysis, stmt)
		a.addDestructiveWarning(result, analysis, stmt, unsafeAllowed)
	}

	return result
}

func (a *StatementAnalyzer) addAsyncWarnings(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	for _, reason := range analysis.AsyncReasons {
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: fmt.Sprintf("Asynchronous DDL: %s", reason),
			SQL:     stmt,
		})
	}
}

func (a *StatementAnalyzer) addDestructiveWarning(result *PreflightResult, analysis *StatementAnalysis, stmt string, unsafeAllowed bool) {
	if !analysis.IsDestructive {
		return
	}
	msg := analysis.DestructiveReason
	if !unsafeAllowed {
		msg = fmt.Sprintf("%s (requires --unsafe flag)", msg)
	}
	result.Warnings = append(result.Warnings, Warning{
		Level:   WarnDanger,
		Message: msg,
		SQL:     stmt,
	})
}

func (a *StatementAnalyzer) analyzeNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{}

	switch stmt := node.(type) {
	case *ast.DropTableStmt:
		if stmt.IsView {
			analysis.StatementType = "DROP VIEW"
			return analysis
		}
		analysis.StatementType = "DROP TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP TABLE will permanently delete the table and all its data"
	case *ast.DropDatabaseStmt:
		analysis.StatementType = "DROP DATABASE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP DATABASE will permanently delete the entire database"
	case *ast.TruncateTableStmt:
		analysis.StatementType = "TRUNCATE TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "TRUNCATE TABLE will delete all rows from the table"
	case *ast.DeleteStmt:
		analysis.StatementType = "DELETE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DELETE will remove rows from the table"
	case *ast.CreateIndexStmt:
		analysis.StatementType = "CREATE INDEX"
		analysis.setAsync(JobColumn, "CREATE INDEX runs as an asynchronous schema change job", stmt.Table)
	case *ast.DropIndexStmt:
		analysis.StatementType = "DROP INDEX"
		analysis.setAsync(JobColumn, "DROP INDEX runs as an asynchronous schema change job", stmt.Table)
	case *ast.AlterTableStmt:
		analysis.StatementType = "ALTER TABLE"
		a.analyzeAlterTable(stmt, analysis)
		if !analysis.IsAsync() && !analysis.IsDestructive {
			// ORDER BY and DISTRIBUTED BY have no StarRocks meaning in the TiDB AST.
			if text := a.analyzeText(originalSQL); text.IsAsync() || text.IsDestructive {
				return text
			}
		}
	case *ast.CreateTableStmt:
		analysis.StatementType = "CREATE TABLE"
	case *ast.CreateViewStmt:
		analysis.StatementType = "CREATE VIEW"
	default:
		return a.analyzeText(originalSQL)
	}

	return analysis
}

func (a *StatementAnalyzer) analyzeAlterTable(stmt *ast.AlterTableStmt, analysis *StatementAnalysis) {
	for _, spec := range stmt.Specs {
		effect, ok := alterTableSpecEffects[spec.Tp]
		if !ok {
			continue
		}
		analysis.setAsync(effect.job, effect.asyncReason, stmt.Table)
		if effect.destructive {
			analysis.IsDestructive = true
			analysis.DestructiveReason = effect.destructiveReason
		}
	}
}

func (s *StatementAnalysis) setAsync(job AlterJob, reason string, table *ast.TableName) {
	s.Job = job
	s.AsyncReasons = append(s.AsyncReasons, reason)
	if table != nil {
		s.Schema = table.Schema.O
		s.Table = table.Name.O
	}
}

// analyzeText applies the keyword rules to statements the TiDB grammar does
// not accept. String literals are blanked first so a comment or default value
// cannot trigger a rule.
func (a *StatementAnalyzer) analyzeText(originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{StatementType: "OTHER"}
	text := strings.TrimSpace(normalize.StripComments(originalSQL))
	upper := normalize.Whitespace(strings.ToUpper(literalRe.ReplaceAllString(text, "''")))

	for _, rule := range textRules {
		if !rule.re.MatchString(upper) {
			continue
		}
		analysis.StatementType = rule.statementType
		if rule.destructiveReason != "" {
			analysis.IsDestructive = true
			analysis.DestructiveReason = rule.destructiveReason
		}
		if rule.job != JobNone {
			analysis.Job = rule.job
			analysis.AsyncReasons = append(analysis.AsyncReasons, rule.asyncReason)
			analysis.Schema, analysis.Table = textTarget(text)
		}
		break
	}

	if analysis.StatementType == "OTHER" {
		for _, kw := range []string{"CREATE", "ALTER", "DROP", "REFRESH"} {
			if strings.HasPrefix(upper, kw+" ") {
				analysis.StatementType = kw
				break
			}
		}
	}
	return analysis
}

// textTarget extracts the table of an ALTER TABLE or index statement.
func textTarget(text string) (schema, table string) {
	m := alterTableTargetRe.FindStringSubmatch(text)
	if m == nil {
		m = indexTargetRe.FindStringSubmatch(text)
	}
	if m == nil {
		return "", ""
	}
	ref := strings.ReplaceAll(m[1], "`", "")
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}
