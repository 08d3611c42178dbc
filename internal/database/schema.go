package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Supported database/sql driver names.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// CreateSchema creates all tables needed by the application.
// Safe to call on every start: statements use IF NOT EXISTS and there is no
// migration step, so an existing file keeps whatever columns it was created
// with.  users, suggestions and replies match the columns of databases
// written by the legacy desktop app, so those files open unchanged.
//
// No foreign keys are declared.  Suggestions authored by the admin reference
// a username that has no users row, and replies may outlive their suggestion.
func CreateSchema(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = sqliteSchema
	case DriverMySQL:
		stmts = mysqlSchema
	default:
		return fmt.Errorf("no schema for driver %q", driver)
	}
	// one statement per Exec: the mysql driver rejects multi-statement strings by default
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		contact_number TEXT,
		suggestion_access BOOLEAN NOT NULL CHECK (suggestion_access IN (0, 1))
	)`,
	`CREATE TABLE IF NOT EXISTS suggestions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		suggestion TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS replies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		suggestion_id INTEGER NOT NULL,
		username TEXT NOT NULL,
		reply TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_replies_suggestion_id ON replies(suggestion_id)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('refresh', 'reset')),
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tokens_subject ON tokens(subject, kind)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		contact_number VARCHAR(32) NULL,
		suggestion_access BOOLEAN NOT NULL DEFAULT FALSE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS suggestions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(191) NOT NULL,
		suggestion TEXT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS replies (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		suggestion_id BIGINT UNSIGNED NOT NULL,
		username VARCHAR(191) NOT NULL,
		reply TEXT NOT NULL,
		INDEX idx_replies_suggestion_id (suggestion_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		subject VARCHAR(191) NOT NULL,
		kind VARCHAR(16) NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_tokens_subject (subject, kind)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
