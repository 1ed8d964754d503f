package apply

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

// StarRocks speaks the MySQL protocol; a MySQL server covers connection
// handling and plain statement execution.
type testMySQLContainer struct {
	dsn string
	db  *sql.DB
}

func TestApplierConnectIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	t.Run("successful connection", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn})
		require.NoError(t, applier.Connect(ctx))
		assert.Equal(t, "testdb", applier.schema)
		require.NoError(t, applier.Close())
	})

	t.Run("invalid DSN fails", func(t *testing.T) {
		applier := NewApplier(Options{DSN: "invalid:user@tcp(127.0.0.1:1)/nope"})
		assert.Error(t, applier.Connect(ctx))
		assert.NoError(t, applier.Close())
	})

	t.Run("malformed DSN fails", func(t *testing.T) {
		applier := NewApplier(Options{DSN: "not a dsn"})
		err := applier.Connect(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse dsn")
	})

	t.Run("close without connect is safe", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn})
		assert.NoError(t, applier.Close())
	})

	t.Run("double close is safe", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn})
		require.NoError(t, applier.Connect(ctx))
		require.NoError(t, applier.Close())
		assert.NoError(t, applier.Close())
	})
}

func TestApplierApplyIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	applier := NewApplier(Options{DSN: tc.dsn})
	require.NoError(t, applier.Connect(ctx))
	t.Cleanup(func() { _ = applier.Close() })

	statements := applier.ParseStatements("CREATE TABLE events (id INT PRIMARY KEY);\nCREATE VIEW recent AS SELECT id FROM events;\n")
	require.Len(t, statements, 2)
	require.NoError(t, applier.Apply(ctx, statements, nil))

	var count int
	require.NoError(t, tc.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'testdb' AND table_name IN ('events', 'recent')").Scan(&count))
	assert.Equal(t, 2, count)
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close db: %v", err)
		}
	})

	return &testMySQLContainer{dsn: dsn, db: db}
}
