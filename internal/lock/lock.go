package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive locks by key. ok is false when the key is
// already held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, key string) (l Lock, ok bool, err error)
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker uses SET NX with a TTL and an ownership token so a lock that
// expired and was taken by someone else is never released by us.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// NewRedisLockerFromURL parses REDIS_URL and checks connectivity.
func NewRedisLockerFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisLocker(client, ttl), nil
}

func (r *RedisLocker) TryLock(ctx context.Context, key string) (Lock, bool, error) {
	l := &redisLock{client: r.client, key: "lock:" + key, value: uuid.NewString()}
	ok, err := r.client.SetNX(ctx, l.key, l.value, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return l, true, nil
}

func (r *RedisLocker) Close() error {
	return r.client.Close()
}

type redisLock struct {
	client *redis.Client
	key    string
	value  string
}

func (l *redisLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err()
}

// Noop always grants the lock. Used when no Redis is configured; the
// database status guard still prevents double sends.
type Noop struct{}

func (Noop) TryLock(context.Context, string) (Lock, bool, error) { return noopLock{}, true, nil }

type noopLock struct{}

func (noopLock) Release(context.Context) error { return nil }
