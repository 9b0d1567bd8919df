package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AllocationLockKey builds the redis key guarding the allocation loop
// for one payer. Two bulk payments for the same payer must never run
// their allocation concurrently.
func AllocationLockKey(payerKind string, payerID int64) string {
	return fmt.Sprintf("ledger:alloc:%s:%d:lock", payerKind, payerID)
}

// RedisLocker is a SetNX-based mutual exclusion helper.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lock if free; false means someone else holds it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

// Release frees the lock.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
