package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a persistent Store backed by a SQLite database file.
// It holds a single connection for its lifetime, so concurrent callers in
// one process are serialized on it.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dsn and verifies the
// connection. Use ":memory:" for an in-memory database. The requests and
// users tables must already exist; see [InitSchema].
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("userstore/store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("userstore/store: ping: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying database handle, for schema setup.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// IncrementRequests reads the singleton counter row and writes counter+1,
// inserting it at 1 when absent, inside one transaction.
func (s *SQLiteStore) IncrementRequests(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("userstore/store: begin: %w", err)
	}
	defer tx.Rollback()

	var counter int64
	err = tx.QueryRowContext(ctx, `SELECT counter FROM requests WHERE id = 1`).Scan(&counter)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		counter = 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO requests (id, counter) VALUES (1, ?)`, counter); err != nil {
			return 0, fmt.Errorf("userstore/store: insert counter: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("userstore/store: read counter: %w", err)
	default:
		counter++
		if _, err := tx.ExecContext(ctx, `UPDATE requests SET counter = ? WHERE id = 1`, counter); err != nil {
			return 0, fmt.Errorf("userstore/store: update counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("userstore/store: commit: %w", err)
	}
	return counter, nil
}

// Requests returns the global request counter.
func (s *SQLiteStore) Requests(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("userstore/store: begin: %w", err)
	}
	defer tx.Rollback()

	var counter int64
	err = tx.QueryRowContext(ctx, `SELECT counter FROM requests WHERE id = 1`).Scan(&counter)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("userstore/store: read counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("userstore/store: commit: %w", err)
	}
	return counter, nil
}

// GetUser returns the first record matching (user, service) in insertion
// order, or nil if there is none.
func (s *SQLiteStore) GetUser(ctx context.Context, user, service string) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("userstore/store: begin: %w", err)
	}
	defer tx.Rollback()

	var (
		u       User
		blocked int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, service, times, blocked, last_request FROM users
		 WHERE id = ? AND service = ? ORDER BY rowid LIMIT 1`,
		user, service,
	).Scan(&u.User, &u.Service, &u.Times, &blocked, &u.LastRequest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("userstore/store: get user: %w", err)
	}
	u.Blocked = blocked != 0

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("userstore/store: commit: %w", err)
	}
	return &u, nil
}

// AddUser inserts u. A second insert with the same key adds another row.
func (s *SQLiteStore) AddUser(ctx context.Context, u User) error {
	return s.exec(ctx, "add user",
		`INSERT INTO users (id, service, times, blocked, last_request) VALUES (?, ?, ?, ?, ?)`,
		u.User, u.Service, u.Times, boolToInt(u.Blocked), u.LastRequest,
	)
}

// UpdateUser overwrites times, blocked and last_request for every row
// matching (user, service). No matching row is a no-op.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user, service string, times int64, blocked bool, lastRequest string) error {
	return s.exec(ctx, "update user",
		`UPDATE users SET times = ?, blocked = ?, last_request = ? WHERE id = ? AND service = ?`,
		times, boolToInt(blocked), lastRequest, user, service,
	)
}

// Close closes the underlying SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// exec runs a single statement in its own transaction.
func (s *SQLiteStore) exec(ctx context.Context, what, query string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("userstore/store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("userstore/store: %s: %w", what, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("userstore/store: commit: %w", err)
	}
	return nil
}

// withPragmas appends the connection pragmas to dsn so that every
// connection the pool opens gets them.
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
