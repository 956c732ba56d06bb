package store

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store implementation with the same row
// semantics as SQLiteStore, duplicate keys included.
// It is safe for concurrent use. State is lost on process restart.
type MemoryStore struct {
	mu       sync.Mutex
	requests int64
	users    []User
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// IncrementRequests adds one to the global request counter.
func (m *MemoryStore) IncrementRequests(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	return m.requests, nil
}

// Requests returns the global request counter.
func (m *MemoryStore) Requests(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.requests, nil
}

// GetUser returns a copy of the first record matching (user, service).
func (m *MemoryStore) GetUser(_ context.Context, user, service string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].User == user && m.users[i].Service == service {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// AddUser appends u.
func (m *MemoryStore) AddUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = append(m.users, u)
	return nil
}

// UpdateUser overwrites every record matching (user, service).
func (m *MemoryStore) UpdateUser(_ context.Context, user, service string, times int64, blocked bool, lastRequest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].User == user && m.users[i].Service == service {
			m.users[i].Times = times
			m.users[i].Blocked = blocked
			m.users[i].LastRequest = lastRequest
		}
	}
	return nil
}

// Len returns the number of stored user records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.users)
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
