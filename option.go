package userstore

import (
	"log/slog"
	"time"

	"github.com/ryhazerus/userstore/store"
)

// Option configures the DB.
type Option func(*DB)

// WithStore sets the backend used by Connect. If not provided, Connect opens
// a SQLiteStore at the DB's path. The DB takes ownership: Close closes s and
// the DB cannot be connected again afterwards.
func WithStore(s store.Store) Option {
	return func(d *DB) {
		d.backend = s
		d.external = true
	}
}

// WithLogger sets the logger for operation tracing. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) {
		d.log = l
	}
}

// WithClock sets the time source used to stamp last_request.
func WithClock(now func() time.Time) Option {
	return func(d *DB) {
		d.now = now
	}
}
