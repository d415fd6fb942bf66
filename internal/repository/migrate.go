package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		branch TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		user_name TEXT NOT NULL DEFAULT '',
		user_branch TEXT NOT NULL DEFAULT '',
		course_data TEXT NOT NULL,
		result TEXT NOT NULL,
		cgpa REAL NOT NULL,
		calculated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calculations_user_time
		ON calculations (user_id, calculated_at DESC)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		branch VARCHAR(16) NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calculations (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		user_name VARCHAR(255) NOT NULL DEFAULT '',
		user_branch VARCHAR(16) NOT NULL DEFAULT '',
		course_data JSON NOT NULL,
		result JSON NOT NULL,
		cgpa DOUBLE NOT NULL,
		calculated_at BIGINT NOT NULL,
		INDEX idx_calculations_user_time (user_id, calculated_at),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
}

// Schema returns the DDL statements for the given database/sql driver name.
func Schema(driver string) ([]string, error) {
	switch driver {
	case "sqlite3":
		return sqliteSchema, nil
	case "mysql":
		return mysqlSchema, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates the tables if they do not exist yet. Statements run one at
// a time since the mysql driver rejects multi-statement Exec by default.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, err := Schema(driver)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
