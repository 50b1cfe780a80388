//go:build !integration

package redis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	red "telegram-storefront/internal/infra/redis"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *red.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := red.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestStateRepo_GetSet(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestClient(t)
	repo := red.NewStateRepo(c, "conv_state:", 0)

	_, ok, err := repo.GetState(ctx, "100")
	require.NoError(t, err)
	assert.False(t, ok, "absent user must report ok=false")

	require.NoError(t, repo.SetState(ctx, "100", model.StateCartShown))

	got, ok, err := repo.GetState(ctx, "100")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.StateCartShown, got)

	// Stored as plain text under the prefixed key.
	raw, err := mr.Get("conv_state:100")
	require.NoError(t, err)
	assert.Equal(t, "CART_SHOWN", raw)
}

func TestStateRepo_TTL(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestClient(t)
	repo := red.NewStateRepo(c, "s:", time.Minute)

	require.NoError(t, repo.SetState(ctx, "7", model.StateMenuShown))
	assert.Equal(t, time.Minute, mr.TTL("s:7"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := repo.GetState(ctx, "7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateRepo_Unavailable(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestClient(t)
	repo := red.NewStateRepo(c, "s:", 0)
	mr.Close()

	_, _, err := repo.GetState(ctx, "1")
	var sue *domain.StoreUnavailableError
	require.True(t, errors.As(err, &sue), "want StoreUnavailableError, got %v", err)
	assert.Equal(t, "get", sue.Op)

	err = repo.SetState(ctx, "1", model.StateStart)
	require.True(t, errors.As(err, &sue))
	assert.Equal(t, "set", sue.Op)

	assert.Error(t, repo.Ping(ctx))
}

func TestLocker_SerializesSameKey(t *testing.T) {
	ctx := context.Background()
	_, c := newTestClient(t)
	locker := red.NewLocker(c, "test:")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "user-1", 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocker_UnlockOnlyOwnToken(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestClient(t)
	locker := red.NewLocker(c, "test:")

	unlock, err := locker.Lock(ctx, "u", time.Second)
	require.NoError(t, err)

	// Simulate expiry and takeover by another owner.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("test:lock:u", "someone-else"))

	require.NoError(t, unlock(ctx))
	v, err := mr.Get("test:lock:u")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestLocker_RenewsWhileHeld(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestClient(t)
	locker := red.NewLocker(c, "test:")

	unlock, err := locker.Lock(ctx, "slow", 300*time.Millisecond)
	require.NoError(t, err)

	// The handler outlives most of the TTL; the renewal pushes it back out.
	mr.FastForward(250 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return mr.TTL("test:lock:slow") > 200*time.Millisecond
	}, time.Second, 10*time.Millisecond)

	mr.FastForward(250 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return mr.TTL("test:lock:slow") > 200*time.Millisecond
	}, time.Second, 10*time.Millisecond)
	assert.True(t, mr.Exists("test:lock:slow"), "lock kept past its original TTL")

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:slow"))
	time.Sleep(150 * time.Millisecond)
	assert.False(t, mr.Exists("test:lock:slow"), "no renewal after unlock")
}

func TestLocker_ContextCancel(t *testing.T) {
	_, c := newTestClient(t)
	locker := red.NewLocker(c, "test:")

	_, err := locker.Lock(context.Background(), "busy", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "busy", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestClient(t)
	rl := red.NewRateLimiter(c)
	key := red.UserEventKey("55")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "call %d should be allowed", i+1)
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = rl.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window should reset")
}
