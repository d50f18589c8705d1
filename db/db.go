// Package db implements the record store for posts and their
// classifications on PostgreSQL.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrDuplicate is returned by InsertPost when a post with the same
// fingerprint already exists. Duplicate ingestion is an expected outcome,
// not a fault.
var ErrDuplicate = errors.New("post already exists")

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// ConstraintError reports a classification persisted against a post that
// does not exist. It indicates a store invariant violation and aborts the
// classification batch.
type ConstraintError struct {
	PostID string
	Err    error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("classification references missing post %s: %v", e.PostID, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (class 23503).
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// DB wraps the database connection and provides data access methods
type DB struct {
	conn *sql.DB
}

// Config contains database configuration
type Config struct {
	DSN string // PostgreSQL connection string
}

// New creates a new database connection
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}
