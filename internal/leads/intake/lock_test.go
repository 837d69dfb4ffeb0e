package intake

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	first := NewRedisLocker(client, "intake:lock", time.Minute, 50*time.Millisecond)
	second := NewRedisLocker(client, "intake:lock", time.Minute, 50*time.Millisecond)

	release, err := first.Acquire(ctx)
	require.NoError(t, err)

	_, err = second.Acquire(ctx)
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()

	release2, err := second.Acquire(ctx)
	require.NoError(t, err)
	release2()
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	locker := NewRedisLocker(client, "intake:lock", time.Second, 50*time.Millisecond)
	staleRelease, err := locker.Acquire(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("intake:lock"))

	freshRelease, err := locker.Acquire(ctx)
	require.NoError(t, err)

	staleRelease()
	assert.True(t, mr.Exists("intake:lock"), "stale holder must not release the new lock")

	freshRelease()
	assert.False(t, mr.Exists("intake:lock"))
}

func TestMutexLockerHonoursContext(t *testing.T) {
	locker := NewMutexLocker()
	release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
