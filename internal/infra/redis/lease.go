package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only while it still holds our token, so a
// fetch that outlived its TTL cannot drop a lease another process now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// FetchLease is a cross-process lease serializing feed fetches between
// recipefetch instances sharing one Redis.
type FetchLease struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewFetchLease creates a lease on key. The TTL bounds how long a crashed
// holder can block other processes.
func NewFetchLease(client *Client, key string, ttl time.Duration) *FetchLease {
	return &FetchLease{
		rdb: client.rdb,
		key: leaseKey(key),
		ttl: ttl,
	}
}

// Key helpers
func leaseKey(name string) string {
	if name == "" {
		name = "default"
	}
	return fmt.Sprintf("fetch_lease:%s", name)
}

// Acquire takes the lease for token. It reports false when another holder has it.
func (l *FetchLease) Acquire(ctx context.Context, token string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// Release drops the lease if token still holds it.
func (l *FetchLease) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lease failed: %w", err)
	}
	return nil
}

// Holder returns the token currently holding the lease, or "" when free.
func (l *FetchLease) Holder(ctx context.Context) (string, error) {
	val, err := l.rdb.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}
