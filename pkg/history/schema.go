package history

import (
	"context"
	"database/sql"
	"fmt"
)

func initSchema(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case "mysql":
		stmts = []string{`
CREATE TABLE IF NOT EXISTS analysis_records (
	id VARCHAR(26) NOT NULL PRIMARY KEY,
	file_name TEXT NOT NULL,
	query MEDIUMTEXT NOT NULL,
	analysis MEDIUMTEXT NOT NULL,
	analysis_type VARCHAR(32) NOT NULL,
	created_at BIGINT NOT NULL,
	INDEX idx_analysis_records_created_at (created_at)
)`}
	default:
		stmts = []string{`
CREATE TABLE IF NOT EXISTS analysis_records (
	id VARCHAR(26) NOT NULL PRIMARY KEY,
	file_name TEXT NOT NULL,
	query TEXT NOT NULL,
	analysis TEXT NOT NULL,
	analysis_type VARCHAR(32) NOT NULL,
	created_at BIGINT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_analysis_records_created_at ON analysis_records (created_at)`,
		}
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
