package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the intake lock could not be taken in time.
var ErrLockTimeout = errors.New("intake lock wait exceeded")

// Locker serialises the dedup-and-persist section of intake.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// MutexLocker is an in-process Locker for single-instance deployments.
type MutexLocker struct {
	sem chan struct{}
}

// NewMutexLocker creates an in-process lock.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is free or ctx is done.
func (m *MutexLocker) Acquire(ctx context.Context) (func(), error) {
	select {
	case m.sem <- struct{}{}:
		return func() { <-m.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a SET NX PX lock shared by every API instance.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker creates a lock on key. ttl bounds how long a crashed holder
// can block others; wait bounds how long Acquire retries.
func NewRedisLocker(client *redis.Client, key string, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLocker{client: client, key: key, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

// Acquire retries SET NX until it succeeds, wait elapses or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire intake lock: %w", err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{l.key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
