package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutex_ExclusiveUntilUnlocked(t *testing.T) {
	client, mr := newTestClient(t)
	f := NewLockFactory(client, "test:", nil)
	ctx := context.Background()

	first := f.NewMutex("fp1", WithLockTTL(time.Minute))
	second := f.NewMutex("fp1", WithLockRetry(2, time.Millisecond))

	require.NoError(t, first.Lock(ctx))
	assert.True(t, mr.Exists("test:lock:fp1"))
	assert.Equal(t, time.Minute, mr.TTL("test:lock:fp1"))

	ok, err := second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, second.Lock(ctx), ErrLockNotAcquired)

	assert.ErrorIs(t, second.Unlock(ctx), ErrLockNotHeld)
	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutex_Extend(t *testing.T) {
	client, mr := newTestClient(t)
	m := NewLockFactory(client, "test:", nil).NewMutex("fp2", WithLockTTL(time.Second))
	ctx := context.Background()
	require.NoError(t, m.Lock(ctx))

	held, err := m.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, time.Minute, mr.TTL("test:lock:fp2"))

	mr.FastForward(2 * time.Minute)
	held, err = m.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestMutex_LockHonoursContext(t *testing.T) {
	client, _ := newTestClient(t)
	f := NewLockFactory(client, "test:", nil)
	require.NoError(t, f.NewMutex("fp3").Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.NewMutex("fp3").Lock(ctx), context.DeadlineExceeded)
}

func TestMutex_ClosedClient(t *testing.T) {
	client, _ := newTestClient(t)
	m := NewLockFactory(client, "test:", nil).NewMutex("fp")
	require.NoError(t, client.Close())

	_, err := m.TryLock(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.Error(t, m.Unlock(context.Background()))
}

func TestLockFactory_AcquireAndRelease(t *testing.T) {
	client, mr := newTestClient(t)
	f := NewLockFactory(client, "test:", nil)
	ctx := context.Background()

	release, err := f.Acquire(ctx, "fp4")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:fp4"))

	impatient := NewLockFactory(client, "test:", nil, WithLockRetry(1, time.Millisecond))
	_, err = impatient.Acquire(ctx, "fp4")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	release()
	release()
	assert.False(t, mr.Exists("test:lock:fp4"))
}

func TestLockFactory_AcquireKeepsLockAlive(t *testing.T) {
	client, mr := newTestClient(t)
	f := NewLockFactory(client, "test:", nil, WithLockTTL(300*time.Millisecond))

	release, err := f.Acquire(context.Background(), "fp5")
	require.NoError(t, err)
	defer release()

	// Miniredis only expires keys on FastForward: move close to expiry and
	// wait for a refresh to restore the TTL.
	mr.FastForward(250 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return mr.TTL("test:lock:fp5") > 200*time.Millisecond
	}, 2*time.Second, 10*time.Millisecond)
}
