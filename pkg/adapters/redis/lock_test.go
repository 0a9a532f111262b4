package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/todobot/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	// 1. Acquire Lock
	unlock, err := locker.Lock(ctx, "user:1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:user:1"), "Lock key should be set in Redis")

	// 2. Release Lock
	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:user:1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:") // Same prefix -> contention
	ctx := context.Background()
	key := "user:2"

	// 1. Replica 1 acquires lock
	unlock1, err := locker1.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	// 2. Replica 2 blocks until its context expires
	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	_, err = locker2.Lock(ctxTimeout, key, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 3. Replica 1 unlocks
	require.NoError(t, unlock1(ctx))

	// 4. Replica 2 tries again (should succeed)
	unlock2, err := locker2.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()

	assert.True(t, mr.Exists("test:lock:"+key))
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()
	key := "user:3"

	unlockOld, err := locker.Lock(ctx, key, time.Second)
	require.NoError(t, err)

	// The old holder's lease runs out and somebody else takes over.
	mr.FastForward(2 * time.Second)
	unlockNew, err := locker.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	// Releasing the stale lease must not free the new holder's lock.
	require.NoError(t, unlockOld(ctx))
	assert.True(t, mr.Exists("test:lock:"+key))

	require.NoError(t, unlockNew(ctx))
	assert.False(t, mr.Exists("test:lock:"+key))
}
