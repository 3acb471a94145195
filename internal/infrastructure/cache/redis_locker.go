package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	syncapp "github.com/crosslist/backend/internal/application/sync"
)

const defaultLockPrefix = "sync:lock:"

// releaseScript deletes the lock key only when this instance still owns
// it, so a lock that expired and was re-acquired elsewhere is never
// released by the old holder.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// RedisProductLocker is a Redis lease lock for deployments where several
// instances share the ledger. Each acquisition is a SETNX with a TTL, so
// a crashed holder frees its locks after the lease expires.
type RedisProductLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	owner     string
}

// NewRedisProductLocker creates a Redis-backed product locker
func NewRedisProductLocker(client *redis.Client, ttl time.Duration) *RedisProductLocker {
	return &RedisProductLocker{
		client:    client,
		keyPrefix: defaultLockPrefix,
		ttl:       ttl,
		owner:     uuid.New().String(),
	}
}

// TryLock attempts to acquire the lease for a product without blocking
func (l *RedisProductLocker) TryLock(ctx context.Context, productID uuid.UUID) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key(productID), l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: acquire product lock: %w", err)
	}
	return acquired, nil
}

// Unlock releases the lease when this instance still owns it
func (l *RedisProductLocker) Unlock(ctx context.Context, productID uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(productID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("cache: release product lock: %w", err)
	}
	return nil
}

func (l *RedisProductLocker) key(productID uuid.UUID) string {
	return l.keyPrefix + productID.String()
}

// Ensure RedisProductLocker implements the locker port
var _ syncapp.ProductLocker = (*RedisProductLocker)(nil)
