package starrocks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Open connects to a StarRocks frontend over the MySQL protocol and pings
// it. The returned schema is the database named in the DSN, empty when the
// DSN selects none.
func Open(ctx context.Context, dsn string) (*sql.DB, string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, "", fmt.Errorf("parse dsn: %w", err)
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}
	db := sql.OpenDB(connector)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, "", fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return nil, "", fmt.Errorf("failed to ping database: %w", pingErr)
	}
	return db, cfg.DBName, nil
}
