package lock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only if this holder still owns the key.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a Locker shared by every process pointing at the same Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a locker whose keys expire after ttl as a guard
// against crashed holders. A live holder renews its key every ttl/3, so a
// long import keeps its locks however long the batch runs.
func NewRedisLocker(client *redis.Client, ttl, retry time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	return &RedisLocker{client: client, ttl: ttl, retry: retry}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Lock implements Locker by polling SET NX until the key is free.
func (r *RedisLocker) Lock(ctx context.Context, locomotiveID int64) (func(), error) {
	key := Key(locomotiveID)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}

	stop := make(chan struct{})
	go r.keepAlive(key, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			// The caller's ctx may already be cancelled; release regardless.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
				log.Printf("Failed to release lock %s: %v", key, err)
			}
		})
	}, nil
}

// keepAlive extends key until stop is closed or the key is no longer ours.
func (r *RedisLocker) keepAlive(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
			n, err := extendScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				log.Printf("Failed to extend lock %s: %v", key, err)
				continue
			}
			if n == 0 {
				log.Printf("Lock %s expired before it could be extended", key)
				return
			}
		}
	}
}
