// Package main contains the srschema command line tool. It uses the cobra
// package for commands and viper for configuration.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"srschema/internal/config"
	"srschema/internal/core"
	"srschema/internal/diff"
	"srschema/internal/introspect/starrocks"
	"srschema/internal/migration"
	"srschema/internal/output"
	"srschema/internal/parser"
)

type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "srschema",
		Short: "StarRocks schema reflection and migration tool",
		Long: `srschema reflects the live schema of a StarRocks database, compares it
with a schema declared in TOML and generates the DDL migration between them.

Settings can be given as flags, SRSCHEMA_* environment variables or in a
srschema.toml / srschema.yaml file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a configuration file")
	flags.String("dsn", "", "StarRocks FE connection string, e.g. user:pass@tcp(fe:9030)/db")
	flags.String("schema", "", "Database to reflect (defaults to the declared or connected database)")
	flags.String("run-mode", "", "Cluster run mode: shared_nothing or shared_data (detected when empty)")
	flags.Int("concurrency", starrocks.DefaultConcurrency, "Number of tables reflected in parallel")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newDiffCommand(a))
	rootCmd.AddCommand(newMigrateCommand(a))
	rootCmd.AddCommand(newApplyCommand(a))
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v, a.configPath)
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) connect(ctx context.Context) (*sql.DB, string, error) {
	if a.cfg.DSN == "" {
		return nil, "", errors.New("--dsn is required (or set SRSCHEMA_DSN)")
	}
	return starrocks.Open(ctx, a.cfg.DSN)
}

// reflect reads schema from the cluster. The schema falls back to the
// configured one and then to the database of the DSN.
func (a *app) reflect(ctx context.Context, schema string) (*core.Database, error) {
	db, dsnSchema, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			a.log.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	if schema == "" {
		schema = a.cfg.Schema
	}
	if schema == "" {
		schema = dsnSchema
	}

	inspector := starrocks.New(db, starrocks.Options{
		Logger:      a.log,
		Concurrency: a.cfg.Concurrency,
		RunMode:     a.cfg.RunModeOverride(),
	})
	reflected, err := inspector.Introspect(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	a.log.Info("reflected schema",
		zap.String("schema", reflected.Name),
		zap.String("run_mode", string(reflected.RunMode)),
		zap.Int("tables", len(reflected.Tables)),
		zap.Int("views", len(reflected.Views)),
		zap.Int("materialized_views", len(reflected.MaterializedViews)))
	return reflected, nil
}

// compare parses the declared schema, reflects its database and diffs the
// two. The diff is returned together with a comparison error so callers can
// still show the supported changes.
func (a *app) compare(ctx context.Context, declaredPath string) (*diff.SchemaDiff, error) {
	declared, err := parser.ParseFile(declaredPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse declared schema: %w", err)
	}

	reflected, err := a.reflect(ctx, declared.Name)
	if err != nil {
		return nil, err
	}

	return diff.Diff(reflected, declared, diff.Options{Logger: a.log})
}

func (a *app) format(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Output.Format
}

// printInfo keeps machine readable formats clean on stdout.
func printInfo(format string, msg string) {
	switch output.Format(strings.ToLower(strings.TrimSpace(format))) {
	case output.FormatJSON, output.FormatYAML, output.FormatScript:
		_, _ = fmt.Fprintln(os.Stderr, msg)
	default:
		fmt.Println(msg)
	}
}

func writeRollbackFile(path string, m *migration.Migration) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return output.WriteRollback(m, f)
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
