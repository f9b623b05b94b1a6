// Package sqlite provides the SQLite-based run history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// pragma is a connection setting applied on Open.
type pragma struct {
	stmt   string
	onDisk bool // skipped for in-memory databases
}

// pragmas configure the single connection. WAL is unavailable in memory.
var pragmas = []pragma{
	{stmt: "PRAGMA busy_timeout = 5000"},
	{stmt: "PRAGMA journal_mode = WAL", onDisk: true},
	{stmt: "PRAGMA foreign_keys = ON"},
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() (err error) {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			conn.Close()
		}
	}()

	// One writer at a time.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, p := range pragmas {
		if p.onDisk && db.path == ":memory:" {
			continue
		}
		if _, err := conn.Exec(p.stmt); err != nil {
			return fmt.Errorf("%s: %w", p.stmt, err)
		}
	}
	if err := createSchema(conn); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	db.db = conn
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// createSchema creates the run history tables if they don't exist. Feature
// statuses are not stored; see RunStore.
func createSchema(conn *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			query TEXT NOT NULL,
			location TEXT NOT NULL,
			search_query TEXT NOT NULL,
			policy TEXT NOT NULL,
			promote_signals INTEGER NOT NULL DEFAULT 0,
			intent TEXT NOT NULL DEFAULT '',
			top_themes TEXT NOT NULL DEFAULT '[]',
			serp_url TEXT NOT NULL DEFAULT '',
			rendered_serp INTEGER NOT NULL DEFAULT 0,
			aio_probe_used INTEGER NOT NULL DEFAULT 0,
			aio_probe_hl TEXT NOT NULL DEFAULT '',
			targets TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS observations (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			feature TEXT NOT NULL,
			from_structured INTEGER NOT NULL DEFAULT 0,
			from_rendered INTEGER NOT NULL DEFAULT 0,
			signals TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, feature)
		);

		CREATE TABLE IF NOT EXISTS pages (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			meta TEXT NOT NULL DEFAULT '{}',
			headings TEXT NOT NULL DEFAULT '{}',
			fingerprint TEXT NOT NULL DEFAULT '',
			frames TEXT NOT NULL DEFAULT '[]',
			skipped_frames INTEGER NOT NULL DEFAULT 0,
			retried INTEGER NOT NULL DEFAULT 0,
			word_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, position)
		);

		CREATE TABLE IF NOT EXISTS omissions (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			code TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
		CREATE INDEX IF NOT EXISTS idx_pages_fingerprint ON pages(fingerprint);
	`

	_, err := conn.Exec(schema)
	return err
}
