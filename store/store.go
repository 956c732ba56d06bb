package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// User is one row of the users table: the throttling state of a hashed user
// identity for a single service.
type User struct {
	User        string // hashed user identifier, column "id"
	Service     string // e.g. "smtp"
	Times       int64  // requests attributed to the user for this service
	Blocked     bool   // stored as 0/1
	LastRequest string // float Unix seconds, e.g. "1700000000.123456"
}

// LastRequestTime parses LastRequest into a time.Time.
func (u User) LastRequestTime() (time.Time, error) {
	secs, err := strconv.ParseFloat(u.LastRequest, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("userstore/store: parse last_request %q: %w", u.LastRequest, err)
	}
	return time.UnixMicro(int64(math.Round(secs * 1e6))), nil
}

// FormatTimestamp renders t the way last_request is stored on disk: Unix
// seconds as a decimal float with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

// Store defines the interface for throttling state backends.
type Store interface {
	// IncrementRequests adds one to the global request counter, creating it
	// at 1 if absent, and returns the new value.
	IncrementRequests(ctx context.Context) (int64, error)

	// Requests returns the global request counter, or 0 if it was never incremented.
	Requests(ctx context.Context) (int64, error)

	// GetUser returns the record for (user, service), or nil if none exists.
	GetUser(ctx context.Context, user, service string) (*User, error)

	// AddUser inserts u as a new record. It does not check for an existing
	// record with the same key.
	AddUser(ctx context.Context, u User) error

	// UpdateUser overwrites times, blocked and last_request of the matching
	// record. A missing record is not an error.
	UpdateUser(ctx context.Context, user, service string, times int64, blocked bool, lastRequest string) error

	// Close releases any resources held by the store.
	Close() error
}
