package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"srschema/internal/apply"
	"srschema/internal/diff"
	"srschema/internal/dialect"
	"srschema/internal/dialect/starrocks"
	"srschema/internal/operation"
	"srschema/internal/output"
)

func newInspectCommand(a *app) *cobra.Command {
	var outFile string
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [schema]",
		Short: "Reflect a live StarRocks schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema string
			if len(args) == 1 {
				schema = args[0]
			}
			reflected, err := a.reflect(cmd.Context(), schema)
			if err != nil {
				return err
			}

			format = a.format(format)
			formatted, err := output.FormatDatabase(reflected, format)
			if err != nil {
				return err
			}
			if err := writeOutput(outFile, formatted); err != nil {
				return err
			}
			if outFile != "" {
				printInfo(format, fmt.Sprintf("Output saved to %s", outFile))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the reflected schema")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: summary, json or yaml")
	return cmd
}

func newDiffCommand(a *app) *cobra.Command {
	var outFile string
	var format string

	cmd := &cobra.Command{
		Use:   "diff <schema.toml>",
		Short: "Compare a live schema with a declared one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaDiff, compareErr := a.compare(cmd.Context(), args[0])
			if schemaDiff == nil {
				return compareErr
			}

			format = a.format(format)
			formatted, err := formatDiff(schemaDiff, format)
			if err != nil {
				return err
			}
			if err := writeOutput(outFile, formatted); err != nil {
				return err
			}
			if outFile != "" {
				printInfo(format, fmt.Sprintf("Output saved to %s", outFile))
			}
			if compareErr != nil {
				return fmt.Errorf("unsupported differences: %w", compareErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the diff")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json, yaml or summary")
	return cmd
}

func formatDiff(d *diff.SchemaDiff, format string) (string, error) {
	if format == "" || format == "text" {
		return d.String() + "\n", nil
	}
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return "", err
	}
	formatted, err := formatter.FormatDiff(d)
	if err != nil {
		return "", fmt.Errorf("failed to format output: %w", err)
	}
	return formatted, nil
}

func newMigrateCommand(a *app) *cobra.Command {
	var outFile string
	var rollbackOutFile string
	var format string
	var unsafe bool
	var skipDrops bool

	cmd := &cobra.Command{
		Use:   "migrate <schema.toml>",
		Short: "Generate the migration from the live schema to a declared one",
		Long: `Migrate reflects the database named by the declared schema, compares it
with the declaration and renders the DDL that brings the database in line.

Formats:
  sql      forward statements with rollback comments (default)
  json     statements, rollback and notes as JSON
  yaml     the same as YAML
  summary  counts of changes and notes
  script   migration script calls (op.<kind>(...)) with upgrade and downgrade`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = a.format(format)
			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}

			schemaDiff, err := a.compare(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("compare schemas: %w", err)
			}
			plan := operation.Synthesize(schemaDiff)
			printInfo(format, fmt.Sprintf("Synthesized %d operation(s)", len(plan.Operations)))

			opts := dialect.DefaultMigrationOptions(dialect.StarRocks)
			opts.IncludeUnsafe = unsafe
			opts.IncludeDrops = !skipDrops
			migration, err := starrocks.New(a.log).GenerateMigration(plan, opts)
			if err != nil {
				return fmt.Errorf("generate migration: %w", err)
			}

			var formatted string
			if pf, ok := formatter.(output.PlanFormatter); ok {
				formatted, err = pf.FormatPlan(plan)
			} else {
				formatted, err = formatter.FormatMigration(migration)
			}
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			if err := writeOutput(outFile, formatted); err != nil {
				return err
			}
			if outFile != "" {
				printInfo(format, fmt.Sprintf("Output saved to %s", outFile))
			}
			if rollbackOutFile != "" {
				if err := writeRollbackFile(rollbackOutFile, migration); err != nil {
					return fmt.Errorf("failed to write rollback output: %w", err)
				}
				printInfo(format, fmt.Sprintf("Rollback saved to %s", rollbackOutFile))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the generated migration")
	cmd.Flags().StringVarP(&rollbackOutFile, "rollback-output", "r", "", "Output file for generated rollback SQL (run separately)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql, json, yaml, summary or script")
	cmd.Flags().BoolVarP(&unsafe, "unsafe", "u", false, "Drop tables and columns instead of renaming them to a backup name")
	cmd.Flags().BoolVar(&skipDrops, "skip-drops", false, "Report removed tables and views as notes instead of dropping them")
	return cmd
}

func newApplyCommand(a *app) *cobra.Command {
	var dryRun bool
	var unsafe bool
	var wait bool
	var pollInterval time.Duration
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Apply a migration to a StarRocks database",
		Long: `Connects to the cluster and applies a migration file: a SQL script or the
json / yaml output of the migrate command.

This command performs preflight checks before execution:
- Warns about asynchronous schema change jobs (ADD/DROP/MODIFY COLUMN, ORDER BY, DISTRIBUTED BY, indexes)
- Refuses destructive operations (DROP, TRUNCATE, DELETE) without --unsafe

StarRocks DDL is not transactional: statements that ran before a failure stay applied.

Examples:
  srschema apply --dsn "user:pass@tcp(fe:9030)/shop" migration.sql
  srschema apply --dsn "user:pass@tcp(fe:9030)/shop" migration.sql --dry-run
  srschema apply --dsn "user:pass@tcp(fe:9030)/shop" migration.json --unsafe --wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read migration file: %w", err)
			}

			applier := apply.NewApplier(apply.Options{
				DSN:          a.cfg.DSN,
				DryRun:       dryRun,
				Unsafe:       unsafe,
				WaitAsync:    wait,
				PollInterval: pollInterval,
				Out:          cmd.OutOrStdout(),
				Logger:       a.log,
			})

			statements := applier.ParseStatements(string(content))
			if len(statements) == 0 {
				fmt.Println("No SQL statements found in migration file")
				return nil
			}
			fmt.Printf("Found %d statement(s) in %s\n\n", len(statements), args[0])

			preflight := applier.PreflightChecks(statements, unsafe)
			if dryRun {
				return applier.Apply(cmd.Context(), statements, preflight)
			}

			if apply.HasDestructiveOperations(preflight) && !unsafe {
				fmt.Println("--- Preflight Warnings ---")
				for _, w := range preflight.Warnings {
					if w.Level == apply.WarnDanger {
						fmt.Printf("✗ [%s] %s\n", w.Level, w.Message)
						if w.SQL != "" {
							fmt.Printf("    SQL: %s\n", w.SQL)
						}
					}
				}
				return fmt.Errorf("destructive operations detected; use --unsafe to allow these operations")
			}

			if a.cfg.DSN == "" {
				return fmt.Errorf("--dsn is required (or set SRSCHEMA_DSN)")
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel func()
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			fmt.Println("Connecting to database...")
			if err := applier.Connect(ctx); err != nil {
				return err
			}
			defer func() {
				if err := applier.Close(); err != nil {
					fmt.Printf("Failed to close database connection: %v\n", err)
				}
			}()

			return applier.Apply(ctx, statements, preflight)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print statements and run preflight checks without executing")
	cmd.Flags().BoolVarP(&unsafe, "unsafe", "u", false, "Allow destructive operations (DROP, TRUNCATE, etc.)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for each asynchronous schema change job before the next statement")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", apply.DefaultPollInterval, "Delay between SHOW ALTER TABLE polls with --wait")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Hour, "Overall timeout; zero disables it")
	return cmd
}
