package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/ryhazerus/userstore/store"
)

// Compile-time interface check.
var _ store.Store = (*RedisStore)(nil)

const requestsKey = "userstore:requests"

// RedisStore is a Store backed by Redis. The request counter is a plain
// integer key. Each user record is a hash with fields "times", "blocked" and
// "last_request" under a key built from the service and user, so a second
// AddUser for the same pair overwrites the first instead of duplicating it.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// updateScript overwrites a user hash only when it already exists.
//
// KEYS[1] = user key
// ARGV[1] = times
// ARGV[2] = blocked (0/1)
// ARGV[3] = last_request
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
    return 0
end
redis.call("HSET", KEYS[1], "times", ARGV[1], "blocked", ARGV[2], "last_request", ARGV[3])
return 1
`)

// IncrementRequests atomically increments the global request counter.
func (r *RedisStore) IncrementRequests(ctx context.Context) (int64, error) {
	n, err := r.client.Incr(ctx, requestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("userstore/store/redis: increment: %w", err)
	}
	return n, nil
}

// Requests returns the global request counter.
func (r *RedisStore) Requests(ctx context.Context) (int64, error) {
	n, err := r.client.Get(ctx, requestsKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("userstore/store/redis: requests: %w", err)
	}
	return n, nil
}

// GetUser returns the record for (user, service), or nil if the hash does not exist.
func (r *RedisStore) GetUser(ctx context.Context, user, service string) (*store.User, error) {
	vals, err := r.client.HGetAll(ctx, userKey(user, service)).Result()
	if err != nil {
		return nil, fmt.Errorf("userstore/store/redis: get user: %w", err)
	}

	if len(vals) == 0 {
		return nil, nil
	}

	times, err := strconv.ParseInt(vals["times"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("userstore/store/redis: parse times: %w", err)
	}

	return &store.User{
		User:        user,
		Service:     service,
		Times:       times,
		Blocked:     vals["blocked"] == "1",
		LastRequest: vals["last_request"],
	}, nil
}

// AddUser writes the hash for u.
func (r *RedisStore) AddUser(ctx context.Context, u store.User) error {
	err := r.client.HSet(ctx, userKey(u.User, u.Service),
		"times", u.Times,
		"blocked", boolToInt(u.Blocked),
		"last_request", u.LastRequest,
	).Err()
	if err != nil {
		return fmt.Errorf("userstore/store/redis: add user: %w", err)
	}
	return nil
}

// UpdateUser overwrites the hash for (user, service) if it exists.
func (r *RedisStore) UpdateUser(ctx context.Context, user, service string, times int64, blocked bool, lastRequest string) error {
	err := updateScript.Run(ctx, r.client, []string{userKey(user, service)},
		times, boolToInt(blocked), lastRequest,
	).Err()
	if err != nil {
		return fmt.Errorf("userstore/store/redis: update user: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// userKey length-prefixes the service so that no two (user, service) pairs
// share a key, whatever separators they contain.
func userKey(user, service string) string {
	return fmt.Sprintf("userstore:user:%d:%s:%s", len(service), service, user)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
