package store

import (
	"context"
	"testing"
)

func TestMemoryStoreIncrementRequests(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		got, err := s.IncrementRequests(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != i {
			t.Errorf("increment %d: got %d, want %d", i, got, i)
		}
	}
}

func TestMemoryStoreGetUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Get before any insert should return nil.
	got, err := s.GetUser(ctx, "u", "smtp")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("initial get: got %+v, want nil", got)
	}

	s.AddUser(ctx, User{User: "u", Service: "smtp", Times: 1, LastRequest: "1.000000"})

	got, _ = s.GetUser(ctx, "u", "smtp")
	if got == nil || got.Times != 1 {
		t.Fatalf("after add: got %+v", got)
	}

	// Returned records are copies.
	got.Times = 99
	again, _ := s.GetUser(ctx, "u", "smtp")
	if again.Times != 1 {
		t.Errorf("stored record mutated through returned pointer: %+v", again)
	}
}

func TestMemoryStoreUpdateUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.AddUser(ctx, User{User: "u", Service: "smtp", Times: 1, LastRequest: "1.000000"})
	s.UpdateUser(ctx, "u", "smtp", 4, true, "2.000000")

	got, _ := s.GetUser(ctx, "u", "smtp")
	want := User{User: "u", Service: "smtp", Times: 4, Blocked: true, LastRequest: "2.000000"}
	if got == nil || *got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Missing key is a no-op.
	if err := s.UpdateUser(ctx, "other", "smtp", 4, true, "3.000000"); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestMemoryStoreDuplicateAdd(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.AddUser(ctx, User{User: "u", Service: "smtp", Times: 1})
	s.AddUser(ctx, User{User: "u", Service: "smtp", Times: 2})

	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
	got, _ := s.GetUser(ctx, "u", "smtp")
	if got.Times != 1 {
		t.Errorf("times = %d, want the first row", got.Times)
	}
}
