package userstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ryhazerus/userstore/store"
)

// DB is the throttling state store. It must be connected before use.
type DB struct {
	path string
	log  *slog.Logger
	now  func() time.Time

	mu        sync.RWMutex
	backend   store.Store
	external  bool // backend came from WithStore
	connected bool

	stampMu   sync.Mutex
	lastStamp time.Time
}

// New creates a DB for the SQLite database file at path. No connection is
// made until Connect.
func New(path string, opts ...Option) *DB {
	d := &DB{path: path}
	for _, o := range opts {
		o(d)
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Path returns the database file path the DB was created with.
func (d *DB) Path() string {
	return d.path
}

// Connect acquires the backend. Calling Connect on a connected DB is a no-op.
func (d *DB) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return wrap("connect", err)
	}

	if d.backend == nil {
		if d.external {
			return wrap("connect", ErrClosed)
		}
		s, err := store.NewSQLiteStore(d.path)
		if err != nil {
			d.log.Error("connect failed", "path", d.path, "error", err)
			return wrap("connect", err)
		}
		d.backend = s
	}

	d.connected = true
	d.log.Debug("connected", "path", d.path)
	return nil
}

// Close releases the backend. A DB that opened its own SQLite store can be
// connected again; one given a backend with WithStore fails with ErrClosed.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	d.connected = false

	err := d.backend.Close()
	d.backend = nil
	return wrap("close", err)
}

// RecordRequest increments the global request counter.
func (d *DB) RecordRequest(ctx context.Context) error {
	return d.do(ctx, "record_request", func(s store.Store) error {
		n, err := s.IncrementRequests(ctx)
		if err == nil {
			d.log.Debug("request recorded", "counter", n)
		}
		return err
	})
}

// Requests returns the global request counter, 0 if it was never incremented.
func (d *DB) Requests(ctx context.Context) (int64, error) {
	var n int64
	err := d.do(ctx, "requests", func(s store.Store) error {
		var err error
		n, err = s.Requests(ctx)
		return err
	})
	return n, err
}

// GetUser returns the record for (user, service), or nil with no error if
// there is none.
func (d *DB) GetUser(ctx context.Context, user, service string) (*store.User, error) {
	var u *store.User
	err := d.do(ctx, "get_user", func(s store.Store) error {
		var err error
		u, err = s.GetUser(ctx, user, service)
		return err
	}, "user", user, "service", service)
	return u, err
}

// AddUser inserts a record for (user, service) with times=1 and
// last_request set to now. It does not check whether a record already
// exists; callers look up with GetUser first.
func (d *DB) AddUser(ctx context.Context, user, service string, blocked bool) error {
	return d.do(ctx, "add_user", func(s store.Store) error {
		return s.AddUser(ctx, store.User{
			User:        user,
			Service:     service,
			Times:       1,
			Blocked:     blocked,
			LastRequest: d.stamp(),
		})
	}, "user", user, "service", service, "blocked", blocked)
}

// UpdateUser overwrites times and blocked for (user, service) and sets
// last_request to now. Updating a missing record succeeds and changes nothing.
func (d *DB) UpdateUser(ctx context.Context, user, service string, times int64, blocked bool) error {
	return d.do(ctx, "update_user", func(s store.Store) error {
		return s.UpdateUser(ctx, user, service, times, blocked, d.stamp())
	}, "user", user, "service", service, "times", times, "blocked", blocked)
}

// do runs fn against the connected backend and converts any failure into a
// *StoreError for op.
func (d *DB) do(ctx context.Context, op string, fn func(store.Store) error, attrs ...any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return wrap(op, ErrNotConnected)
	}

	if err := fn(d.backend); err != nil {
		d.log.ErrorContext(ctx, "store operation failed", append([]any{"op", op, "error", err}, attrs...)...)
		return wrap(op, err)
	}
	d.log.DebugContext(ctx, "store operation", append([]any{"op", op}, attrs...)...)
	return nil
}

// stamp returns the current time in the on-disk last_request format. Stamps
// issued by one DB strictly increase, even when the clock does not advance
// by a full microsecond between calls.
func (d *DB) stamp() string {
	d.stampMu.Lock()
	defer d.stampMu.Unlock()

	t := d.now().Truncate(time.Microsecond)
	if !t.After(d.lastStamp) {
		t = d.lastStamp.Add(time.Microsecond)
	}
	d.lastStamp = t
	return store.FormatTimestamp(t)
}
