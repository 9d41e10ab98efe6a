// Package runlock provides a redis-backed mutual exclusion lock for jobs that
// must not run concurrently across instances.
package runlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker acquires and releases named locks with a TTL so a crashed holder
// cannot block the job forever.
type Locker struct {
	client *redis.Client
	prefix string
}

// New creates a Locker backed by the given redis client.
func New(client *redis.Client) *Locker {
	return &Locker{
		client: client,
		prefix: "lock:",
	}
}

// Acquire tries to take the lock. It returns false when another holder owns it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
}

// Release frees the lock. Releasing an expired or foreign lock is a no-op.
func (l *Locker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
