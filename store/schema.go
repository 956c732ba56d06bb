package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the requests and users tables. The (id, service) pair of
// users is a key by convention only; no uniqueness constraint is declared.
const Schema = `
CREATE TABLE IF NOT EXISTS requests (
	id      INTEGER PRIMARY KEY,
	counter INTEGER
);

CREATE TABLE IF NOT EXISTS users (
	id           TEXT,
	service      TEXT,
	times        INTEGER,
	blocked      INTEGER,
	last_request TEXT
);
`

// InitSchema executes [Schema] against db. SQLiteStore never calls it; it is
// the setup step run by tools and tests before a store is used.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("userstore/store: create tables: %w", err)
	}
	return nil
}
