package store

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Store = (*TieredStore)(nil)

// TieredStore wraps a persistent backend with an in-memory cache of user
// records. Updates go to the persistent store first and then to the cache
// (write-through); GetUser checks the cache and falls back to the persistent
// store on a miss. The request counter always lives in the persistent store.
type TieredStore struct {
	// mu orders a cache miss and its backfill against write-throughs, so a
	// row read before an update is never cached after it.
	mu         sync.Mutex
	memory     *MemoryStore
	persistent Store
}

// NewTieredStore creates a TieredStore backed by the given persistent store.
// An internal MemoryStore is created automatically.
func NewTieredStore(persistent Store) *TieredStore {
	return &TieredStore{
		memory:     NewMemoryStore(),
		persistent: persistent,
	}
}

// IncrementRequests delegates to the persistent store.
func (t *TieredStore) IncrementRequests(ctx context.Context) (int64, error) {
	return t.persistent.IncrementRequests(ctx)
}

// Requests delegates to the persistent store.
func (t *TieredStore) Requests(ctx context.Context) (int64, error) {
	return t.persistent.Requests(ctx)
}

// GetUser reads from memory first. On a miss it reads the persistent store
// and backfills memory.
func (t *TieredStore) GetUser(ctx context.Context, user, service string) (*User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, err := t.memory.GetUser(ctx, user, service)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u, err = t.persistent.GetUser(ctx, user, service)
	if err != nil {
		return nil, err
	}
	if u != nil {
		t.memory.AddUser(ctx, *u)
	}
	return u, nil
}

// AddUser writes to the persistent store only. The cache is filled by the
// next GetUser, which keeps the oldest row visible when keys are duplicated.
func (t *TieredStore) AddUser(ctx context.Context, u User) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.persistent.AddUser(ctx, u)
}

// UpdateUser writes through to the persistent store, then refreshes the
// cached record if present.
func (t *TieredStore) UpdateUser(ctx context.Context, user, service string, times int64, blocked bool, lastRequest string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.persistent.UpdateUser(ctx, user, service, times, blocked, lastRequest); err != nil {
		return err
	}
	return t.memory.UpdateUser(ctx, user, service, times, blocked, lastRequest)
}

// Close closes the persistent backend. The in-memory cache needs no cleanup.
func (t *TieredStore) Close() error {
	return t.persistent.Close()
}
