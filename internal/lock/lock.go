package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes orchestration runs per appointment id. Each run holds a
// lease for at most the TTL, a crashed holder expires rather than deadlocks.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

type redisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Release only our own lease. A plain DEL could drop a lease taken
		// over after our TTL expired.
		script := redis.NewScript(`
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			end
			return 0
		`)
		_ = script.Run(context.Background(), l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
