package apply

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Alter job states reported by SHOW ALTER TABLE.
const (
	jobFinished  = "FINISHED"
	jobCancelled = "CANCELLED"
)

// alterJob is the latest SHOW ALTER TABLE row of a table.
type alterJob struct {
	ID    string
	State string
	Msg   string
}

func alterJobQuery(job AlterJob, schema, table string) string {
	var sb strings.Builder
	sb.WriteString("SHOW ALTER TABLE ")
	sb.WriteString(string(job))
	if schema != "" {
		sb.WriteString(" FROM `" + strings.ReplaceAll(schema, "`", "``") + "`")
	}
	sb.WriteString(" WHERE TableName = '" + strings.ReplaceAll(table, "'", "''") + "'")
	sb.WriteString(" ORDER BY CreateTime DESC LIMIT 1")
	return sb.String()
}

// waitForAlterJob polls the latest alter job of the statement's table until
// it finishes. A cancelled job is an error.
func (a *Applier) waitForAlterJob(ctx context.Context, an *StatementAnalysis) error {
	schema := an.Schema
	if schema == "" {
		schema = a.schema
	}
	query := alterJobQuery(an.Job, schema, an.Table)

	for {
		job, err := a.latestAlterJob(ctx, query)
		if err != nil {
			return fmt.Errorf("check %s job on %s: %w", an.Job, an.Table, err)
		}
		switch {
		case job == nil, job.State == jobFinished:
			return nil
		case job.State == jobCancelled:
			return fmt.Errorf("%s job %s on %s was cancelled: %s", an.Job, job.ID, an.Table, job.Msg)
		}

		a.log.Info("waiting for schema change job",
			zap.String("table", an.Table),
			zap.String("job", job.ID),
			zap.String("state", job.State))
		a.printf("Waiting for %s job %s on %s (%s)...\n", an.Job, job.ID, an.Table, job.State)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.options.PollInterval):
		}
	}
}

// latestAlterJob reads the first row of query. Column sets differ between
// server versions, so the row is read by column name.
func (a *Applier) latestAlterJob(ctx context.Context, query string) (*alterJob, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	job := &alterJob{}
	for i, c := range cols {
		switch strings.ToLower(c) {
		case "jobid":
			job.ID = values[i].String
		case "state":
			job.State = strings.ToUpper(values[i].String)
		case "msg":
			job.Msg = values[i].String
		}
	}
	return job, rows.Err()
}
