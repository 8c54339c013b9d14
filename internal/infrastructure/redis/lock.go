package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"daily-habits-tracker/internal/config"
	"daily-habits-tracker/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockKey = "habits:table-lock"
	retryInterval  = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// TableLock serializes habit mutations across processes sharing one Redis
type TableLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewTableLock creates a lock held for at most ttl, so a crashed holder
// cannot block other processes forever
func NewTableLock(client *redis.Client, ttl time.Duration) *TableLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &TableLock{
		client: client,
		key:    defaultLockKey,
		ttl:    ttl,
	}
}

// Lock retries until the lock is acquired or ctx is done
func (l *TableLock) Lock(ctx context.Context) (func(), error) {
	token := uuid.New().String()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire table lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(token) })
	}, nil
}

func (l *TableLock) release(token string) {
	// Release even if the caller's context is already cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("failed to release table lock", "key", l.key, "error", err)
	}
}
