package db

import (
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const userSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	f_name TEXT NOT NULL,
	password_hash TEXT NOT NULL
);`

// Connect opens the SQLite database at dbPath. Writes are serialized through a
// single connection and concurrent writers wait on the busy timeout instead of
// failing with SQLITE_BUSY.
func Connect(dbPath string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	pool, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	pool.SetMaxOpenConns(1)

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database at %s: %w", dbPath, err)
	}
	slog.Info("connected to database", "path", dbPath)
	return pool, nil
}

// InitializeDB creates the schema if it does not exist yet.
func InitializeDB(db *sqlx.DB) error {
	if _, err := db.Exec(userSchema); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	slog.Info("database schema verified")
	return nil
}
