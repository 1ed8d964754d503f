// Package apply connects to a StarRocks cluster and executes a migration.
// Statements are analyzed before execution so destructive changes need an
// explicit opt-in, and asynchronous schema change jobs can be awaited before
// the next statement runs.
package apply

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"srschema/internal/introspect/starrocks"
	"srschema/internal/normalize"
)

// DefaultPollInterval is the delay between two SHOW ALTER TABLE polls.
const DefaultPollInterval = 5 * time.Second

// PreflightResult contains the warnings about a migration and the analysis
// of each statement, in statement order.
type PreflightResult struct {
	Warnings   []Warning
	Statements []*StatementAnalysis
}

// Warning contains a Level of a warning, message, and actual SQL from migration.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel is a const that is expandable for later and contains different levels of danger.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Options struct contains all setting available for user to choose during apply command.
type Options struct {
	DSN    string
	DryRun bool
	Unsafe bool
	// WaitAsync waits for the schema change job of each asynchronous
	// statement to finish before running the next one. StarRocks rejects a
	// second schema change on a table while one is running.
	WaitAsync    bool
	PollInterval time.Duration
	Out          io.Writer
	Logger       *zap.Logger
}

type serializedMigration struct {
	Format string   `json:"format" yaml:"format"`
	SQL    []string `json:"sql,omitempty" yaml:"sql,omitempty"`
}

// Applier executes a migration against one StarRocks cluster.
type Applier struct {
	db       *sql.DB
	schema   string
	options  Options
	analyzer *StatementAnalyzer
	out      io.Writer
	log      *zap.Logger
}

// NewApplier returns a pointer to Applier for user use, with provided options.
func NewApplier(options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	return &Applier{
		options:  options,
		analyzer: NewStatementAnalyzer(),
		out:      out,
		log:      log,
	}
}

// NewApplierWithDB returns an Applier using an already open connection.
// schema is the default database of the connection.
func NewApplierWithDB(db *sql.DB, schema string, options Options) *Applier {
	a := NewApplier(options)
	a.db = db
	a.schema = schema
	return a
}

func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Apply runs the statements, or only reports them in dry-run mode.
// Destructive statements are refused unless Options.Unsafe is set.
func (a *Applier) Apply(ctx context.Context, statements []string, preflight *PreflightResult) error {
	if preflight == nil {
		preflight = a.PreflightChecks(statements, a.options.Unsafe)
	}
	if a.options.DryRun {
		return a.dryRun(statements, preflight)
	}
	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return errors.New("destructive operations detected; use --unsafe to proceed")
	}
	if a.db == nil {
		return errors.New("not connected")
	}
	return a.execute(ctx, statements, preflight)
}

// Connect establishes a connection with the cluster and pings it.
func (a *Applier) Connect(ctx context.Context) error {
	db, schema, err := starrocks.Open(ctx, a.options.DSN)
	if err != nil {
		return err
	}
	a.db = db
	a.schema = schema
	return nil
}

// Close closes the connection of the applier. It is safe to call more than once.
func (a *Applier) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// ParseStatements extracts the statements of a migration file. A json or
// yaml migration produced by the migrate command contributes its sql list;
// anything else is split as a SQL script.
func (a *Applier) ParseStatements(content string) []string {
	content = strings.TrimSpace(content)

	var m serializedMigration
	if err := json.Unmarshal([]byte(content), &m); err == nil && m.Format == "json" {
		if statements := cleanStatements(m.SQL); len(statements) > 0 {
			return statements
		}
	}
	m = serializedMigration{}
	if err := yaml.Unmarshal([]byte(content), &m); err == nil && m.Format == "yaml" {
		if statements := cleanStatements(m.SQL); len(statements) > 0 {
			return statements
		}
	}

	return a.splitStatements(content)
}

// PreflightChecks analyzes the statements for destructive and asynchronous
// operations.
func (a *Applier) PreflightChecks(statements []string, unsafe bool) *PreflightResult {
	return a.analyzer.AnalyzeStatements(statements, unsafe)
}

// splitStatements uses the TiDB parser when the whole script is MySQL
// compatible and a quote-aware splitter otherwise.
func (a *Applier) splitStatements(content string) []string {
	stmtNodes, _, err := a.analyzer.parser.Parse(content, "", "")
	if err == nil && len(stmtNodes) > 0 {
		texts := make([]string, 0, len(stmtNodes))
		for _, node := range stmtNodes {
			if node != nil {
				texts = append(texts, node.Text())
			}
		}
		if statements := cleanStatements(texts); len(statements) > 0 {
			return statements
		}
	}
	return cleanStatements(SplitStatements(content))
}

// SplitStatements splits a SQL script on semicolons that lie outside quoted
// literals, identifiers and comments.
func SplitStatements(content string) []string {
	content = normalize.StripComments(content)

	var (
		statements []string
		current    strings.Builder
		quote      byte
		escaped    bool
	)
	for i := 0; i < len(content); i++ {
		ch := content[i]
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
		case ch == '/' && i+1 < len(content) && content[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				i = len(content)
			} else {
				i += end + 3
			}
			current.WriteByte(' ')
			continue
		case ch == ';':
			statements = append(statements, current.String())
			current.Reset()
			continue
		}
		current.WriteByte(ch)
	}
	statements = append(statements, current.String())
	return statements
}

// cleanStatements trims statements, drops empty ones and removes the
// trailing semicolon.
func cleanStatements(in []string) []string {
	var out []string
	for _, stmt := range in {
		stmt = strings.TrimSpace(normalize.StripComments(stmt))
		stmt = strings.TrimSpace(strings.TrimRight(stmt, ";"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func truncateSQL(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}

func (a *Applier) dryRun(statements []string, preflight *PreflightResult) error {
	a.println("=== DRY RUN MODE ===")

	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	} else {
		for _, w := range preflight.Warnings {
			a.printf("[%s] %s\n", w.Level, w.Message)
			if w.SQL != "" {
				a.printf("    SQL: %s\n", w.SQL)
			}
		}
	}

	a.println("--- Statements to Execute ---")
	for i, stmt := range statements {
		a.printf("%d. %s;\n", i+1, stmt)
		if an := analysisAt(preflight, i); an != nil && an.IsAsync() {
			a.printf("   (async %s job on %s)\n", an.Job, an.Table)
		}
	}

	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return errors.New("preflight checks failed: destructive operations detected without --unsafe flag")
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("All preflight checks passed. Run without --dry-run to apply.")
	return nil
}

// execute runs statements one by one. StarRocks DDL is not transactional, so
// a failure leaves the earlier statements applied.
func (a *Applier) execute(ctx context.Context, statements []string, preflight *PreflightResult) error {
	successCount := 0
	for i, stmt := range statements {
		a.printf("Executing statement %d/%d...\n", i+1, len(statements))
		a.log.Debug("executing statement", zap.Int("index", i+1), zap.String("sql", truncateSQL(stmt)))
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
				i+1, err, truncateSQL(stmt), successCount)
		}
		successCount++

		an := analysisAt(preflight, i)
		if a.options.WaitAsync && an != nil && an.IsAsync() && an.Table != "" {
			if err := a.waitForAlterJob(ctx, an); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

func analysisAt(preflight *PreflightResult, i int) *StatementAnalysis {
	if preflight == nil || i >= len(preflight.Statements) {
		return nil
	}
	return preflight.Statements[i]
}

// HasDestructiveOperations checks if there is a dangerous warning inside a preflight
// analysis of a migration. If it has returns true, otherwise false.
func HasDestructiveOperations(preflight *PreflightResult) bool {
	for _, w := range preflight.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}
