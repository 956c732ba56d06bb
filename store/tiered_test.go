package store

import (
	"context"
	"sync"
	"testing"
)

func newTestTieredStore(t *testing.T) (*TieredStore, *SQLiteStore) {
	t.Helper()
	persistent := newTestSQLiteStore(t)
	return NewTieredStore(persistent), persistent
}

func TestTieredStoreIncrementRequests(t *testing.T) {
	s, persistent := newTestTieredStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		got, err := s.IncrementRequests(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != i {
			t.Errorf("increment %d: got %d, want %d", i, got, i)
		}
	}

	if got, _ := persistent.Requests(ctx); got != 3 {
		t.Errorf("persistent requests = %d, want 3", got)
	}
}

func TestTieredStoreGetBackfills(t *testing.T) {
	s, persistent := newTestTieredStore(t)
	ctx := context.Background()

	persistent.AddUser(ctx, User{User: "u", Service: "smtp", Times: 3, LastRequest: "1.000000"})

	got, err := s.GetUser(ctx, "u", "smtp")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Times != 3 {
		t.Fatalf("got %+v, want times=3", got)
	}
	if s.memory.Len() != 1 {
		t.Errorf("cache len = %d, want 1", s.memory.Len())
	}
}

func TestTieredStoreUpdateWritesThrough(t *testing.T) {
	s, persistent := newTestTieredStore(t)
	ctx := context.Background()

	s.AddUser(ctx, User{User: "u", Service: "smtp", Times: 1, LastRequest: "1.000000"})
	s.GetUser(ctx, "u", "smtp")

	if err := s.UpdateUser(ctx, "u", "smtp", 6, true, "2.000000"); err != nil {
		t.Fatal(err)
	}

	cached, _ := s.GetUser(ctx, "u", "smtp")
	stored, _ := persistent.GetUser(ctx, "u", "smtp")
	if cached == nil || stored == nil {
		t.Fatalf("cached=%+v stored=%+v", cached, stored)
	}
	if *cached != *stored {
		t.Errorf("cache %+v diverged from persistent %+v", *cached, *stored)
	}
	if stored.Times != 6 || !stored.Blocked {
		t.Errorf("stored = %+v, want times=6 blocked", *stored)
	}
}

func TestTieredStorePersistentFallback(t *testing.T) {
	persistent := newTestSQLiteStore(t)
	ctx := context.Background()

	// Write data through a tiered store.
	ts1 := NewTieredStore(persistent)
	ts1.AddUser(ctx, User{User: "u", Service: "smtp", Times: 1, LastRequest: "1.000000"})
	ts1.UpdateUser(ctx, "u", "smtp", 2, false, "2.000000")

	// Simulate memory loss by creating a new tiered store with the same
	// persistent backend but a fresh MemoryStore.
	ts2 := NewTieredStore(persistent)

	got, err := ts2.GetUser(ctx, "u", "smtp")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Times != 2 {
		t.Errorf("persistent fallback: got %+v, want times=2", got)
	}
}

// gatedStore pauses GetUser until release is closed.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) GetUser(ctx context.Context, user, service string) (*User, error) {
	u, err := g.MemoryStore.GetUser(ctx, user, service)
	close(g.entered)
	<-g.release
	return u, err
}

func TestTieredStoreUpdateDuringBackfill(t *testing.T) {
	ctx := context.Background()
	persistent := &gatedStore{
		MemoryStore: NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	persistent.MemoryStore.AddUser(ctx, User{User: "u", Service: "smtp", Times: 1, LastRequest: "1.000000"})
	s := NewTieredStore(persistent)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.GetUser(ctx, "u", "smtp")
	}()

	<-persistent.entered
	go func() {
		defer wg.Done()
		if err := s.UpdateUser(ctx, "u", "smtp", 9, true, "2.000000"); err != nil {
			t.Error(err)
		}
	}()
	close(persistent.release)
	wg.Wait()

	cached, _ := s.memory.GetUser(ctx, "u", "smtp")
	stored, _ := persistent.MemoryStore.GetUser(ctx, "u", "smtp")
	if cached == nil || stored == nil {
		t.Fatalf("cached=%+v stored=%+v", cached, stored)
	}
	if *cached != *stored {
		t.Errorf("cache %+v diverged from persistent %+v", *cached, *stored)
	}
	if !stored.Blocked || stored.Times != 9 {
		t.Errorf("stored = %+v, want times=9 blocked", *stored)
	}
}
