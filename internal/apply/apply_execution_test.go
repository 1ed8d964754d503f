package apply

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func q(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}

var alterJobColumns = []string{"JobId", "TableName", "CreateTime", "FinishTime", "State", "Msg"}

func newMockApplier(t *testing.T, opts Options) (*Applier, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var buf bytes.Buffer
	opts.Out = &buf
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	return NewApplierWithDB(db, "shop", opts), mock, &buf
}

func TestApplyExecutesStatements(t *testing.T) {
	applier, mock, buf := newMockApplier(t, Options{})
	statements := []string{
		"CREATE TABLE t (id INT)",
		"ALTER TABLE t SET (\"replication_num\" = \"1\")",
	}

	mock.ExpectExec(q(statements[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q(statements[1])).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, applier.Apply(context.Background(), statements, nil))
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "Executing statement 1/2...")
	assert.Contains(t, out, "Executing statement 2/2...")
	assert.Contains(t, out, "Successfully applied 2 statements")
}

func TestApplyStatementFailure(t *testing.T) {
	applier, mock, _ := newMockApplier(t, Options{})
	statements := []string{
		"CREATE TABLE a (id INT)",
		"CREATE TABLE b (id INT)",
		"CREATE TABLE c (id INT)",
	}

	mock.ExpectExec(q(statements[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q(statements[1])).WillReturnError(errors.New("table b already exists"))

	err := applier.Apply(context.Background(), statements, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2 failed: table b already exists")
	assert.Contains(t, err.Error(), "1 statements were already applied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRefusesDestructive(t *testing.T) {
	applier, mock, _ := newMockApplier(t, Options{})

	err := applier.Apply(context.Background(), []string{"DROP TABLE orders"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --unsafe to proceed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyUnsafeRunsDestructive(t *testing.T) {
	applier, mock, _ := newMockApplier(t, Options{Unsafe: true})

	mock.ExpectExec(q("DROP TABLE orders")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, applier.Apply(context.Background(), []string{"DROP TABLE orders"}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyNotConnected(t *testing.T) {
	applier := NewApplier(Options{})
	err := applier.Apply(context.Background(), []string{"CREATE TABLE t (id INT)"}, nil)
	assert.EqualError(t, err, "not connected")
}

func TestApplyWaitsForAlterJob(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	applier, mock, buf := newMockApplier(t, Options{WaitAsync: true, Logger: zap.New(core)})
	statements := []string{
		"ALTER TABLE `orders` ADD COLUMN `note` VARCHAR(200) NULL",
		"ALTER TABLE `orders` MODIFY COLUMN `note` VARCHAR(500) NULL",
	}
	jobQuery := q(alterJobQuery(JobColumn, "shop", "orders"))

	mock.ExpectExec(q(statements[0])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(jobQuery).WillReturnRows(sqlmock.NewRows(alterJobColumns).
		AddRow("101", "orders", "2026-01-01 00:00:00", nil, "RUNNING", ""))
	mock.ExpectQuery(jobQuery).WillReturnRows(sqlmock.NewRows(alterJobColumns).
		AddRow("101", "orders", "2026-01-01 00:00:00", "2026-01-01 00:00:05", "FINISHED", ""))
	mock.ExpectExec(q(statements[1])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(jobQuery).WillReturnRows(sqlmock.NewRows(alterJobColumns).
		AddRow("102", "orders", "2026-01-01 00:00:06", "2026-01-01 00:00:09", "finished", ""))

	require.NoError(t, applier.Apply(context.Background(), statements, nil))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, buf.String(), "Waiting for COLUMN job 101 on orders (RUNNING)...")
	entries := logs.FilterMessage("waiting for schema change job").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "101", entries[0].ContextMap()["job"])
}

func TestApplyCancelledAlterJob(t *testing.T) {
	applier, mock, _ := newMockApplier(t, Options{WaitAsync: true})
	stmt := "ALTER TABLE `shop`.`orders` DISTRIBUTED BY HASH(`id`) BUCKETS 16"

	mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(alterJobQuery(JobOptimize, "shop", "orders"))).
		WillReturnRows(sqlmock.NewRows([]string{"JobId", "State", "Msg"}).AddRow("7", "CANCELLED", "bucket num too large"))

	err := applier.Apply(context.Background(), []string{stmt}, nil)
	require.Error(t, err)
	assert.EqualError(t, err, "statement 1: OPTIMIZE job 7 on orders was cancelled: bucket num too large")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAlterJobWithoutRows(t *testing.T) {
	applier, mock, _ := newMockApplier(t, Options{WaitAsync: true})
	stmt := "ALTER TABLE orders ADD COLUMN c INT NULL"

	mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(alterJobQuery(JobColumn, "shop", "orders"))).
		WillReturnRows(sqlmock.NewRows(alterJobColumns))

	require.NoError(t, applier.Apply(context.Background(), []string{stmt}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWithoutWaitSkipsPolling(t *testing.T) {
	applier, mock, _ := newMockApplier(t, Options{})
	stmt := "ALTER TABLE orders ADD COLUMN c INT NULL"

	mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, applier.Apply(context.Background(), []string{stmt}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForAlterJobContextCancelled(t *testing.T) {
	applier, _, _ := newMockApplier(t, Options{PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := applier.waitForAlterJob(ctx, &StatementAnalysis{Job: JobColumn, Table: "orders"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAlterJobQuery(t *testing.T) {
	tests := []struct {
		name   string
		job    AlterJob
		schema string
		table  string
		want   string
	}{
		{
			name:   "column job",
			job:    JobColumn,
			schema: "shop",
			table:  "orders",
			want:   "SHOW ALTER TABLE COLUMN FROM `shop` WHERE TableName = 'orders' ORDER BY CreateTime DESC LIMIT 1",
		},
		{
			name:  "optimize job without schema",
			job:   JobOptimize,
			table: "orders",
			want:  "SHOW ALTER TABLE OPTIMIZE WHERE TableName = 'orders' ORDER BY CreateTime DESC LIMIT 1",
		},
		{
			name:   "quoting",
			job:    JobColumn,
			schema: "a`b",
			table:  "it's",
			want:   "SHOW ALTER TABLE COLUMN FROM `a``b` WHERE TableName = 'it''s' ORDER BY CreateTime DESC LIMIT 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alterJobQuery(tt.job, tt.schema, tt.table))
		})
	}
}
