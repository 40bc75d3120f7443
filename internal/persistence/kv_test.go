package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/movie-service/internal/domain"
)

type kvBackend struct {
	name    string
	store   KeyValueStore
	advance func(time.Duration)
}

func backends(t *testing.T) []kvBackend {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var (
		mu  sync.Mutex
		now = time.Unix(1_760_000_000, 0)
	)
	mem := NewMemoryKV().WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	return []kvBackend{
		{name: "redis", store: NewRedisKV(client), advance: mr.FastForward},
		{name: "memory", store: mem, advance: func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(d)
		}},
	}
}

func TestKeyValueStore_SetAndGet(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.store.SetWithTTL(ctx, "verify:a", []byte(`{"code":"123456"}`), 10*time.Minute))

			value, ttl, err := b.store.GetWithRemainingTTL(ctx, "verify:a")
			require.NoError(t, err)
			assert.Equal(t, `{"code":"123456"}`, string(value))
			assert.InDelta(t, float64(10*time.Minute), float64(ttl), float64(time.Second))

			value, _, err = b.store.GetWithRemainingTTL(ctx, "verify:missing")
			require.NoError(t, err)
			assert.Nil(t, value)
		})
	}
}

func TestKeyValueStore_Expiry(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.store.SetWithTTL(ctx, "k", []byte("v"), time.Minute))

			b.advance(59 * time.Second)
			value, ttl, err := b.store.GetWithRemainingTTL(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(value))
			assert.InDelta(t, float64(time.Second), float64(ttl), float64(100*time.Millisecond))

			b.advance(time.Second)
			value, _, err = b.store.GetWithRemainingTTL(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, value)

			swapped, err := b.store.CompareAndSwapOrDelete(ctx, "k", []byte("v"), []byte("w"))
			require.NoError(t, err)
			assert.False(t, swapped)
		})
	}
}

func TestKeyValueStore_RejectsNonPositiveTTL(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			require.Error(t, b.store.SetWithTTL(context.Background(), "k", []byte("v"), 0))
		})
	}
}

func TestKeyValueStore_CompareAndSwapKeepsTTL(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.store.SetWithTTL(ctx, "k", []byte("v1"), 10*time.Minute))
			b.advance(4 * time.Minute)

			swapped, err := b.store.CompareAndSwapOrDelete(ctx, "k", []byte("v1"), []byte("v2"))
			require.NoError(t, err)
			require.True(t, swapped)

			value, ttl, err := b.store.GetWithRemainingTTL(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(value))
			assert.InDelta(t, float64(6*time.Minute), float64(ttl), float64(time.Second))

			swapped, err = b.store.CompareAndSwapOrDelete(ctx, "k", []byte("v1"), []byte("v3"))
			require.NoError(t, err)
			assert.False(t, swapped, "stale expected value must not swap")

			value, _, err = b.store.GetWithRemainingTTL(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(value))
		})
	}
}

func TestKeyValueStore_CompareAndDelete(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.store.SetWithTTL(ctx, "k", []byte("v"), time.Minute))

			swapped, err := b.store.CompareAndSwapOrDelete(ctx, "k", []byte("other"), nil)
			require.NoError(t, err)
			assert.False(t, swapped)

			swapped, err = b.store.CompareAndSwapOrDelete(ctx, "k", []byte("v"), nil)
			require.NoError(t, err)
			assert.True(t, swapped)

			value, _, err := b.store.GetWithRemainingTTL(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, value)

			swapped, err = b.store.CompareAndSwapOrDelete(ctx, "k", []byte("v"), nil)
			require.NoError(t, err)
			assert.False(t, swapped, "second delete must fail")
		})
	}
}

func TestKeyValueStore_ConcurrentSwapHasOneWinner(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.store.SetWithTTL(ctx, "k", []byte("v"), time.Minute))

			var (
				wg      sync.WaitGroup
				winners atomic.Int32
			)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := b.store.CompareAndSwapOrDelete(ctx, "k", []byte("v"), nil)
					assert.NoError(t, err)
					if ok {
						winners.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), winners.Load())
		})
	}
}

func TestRedisKV_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	kv := NewRedisKV(client)
	ctx := context.Background()

	require.ErrorIs(t, kv.SetWithTTL(ctx, "k", []byte("v"), time.Minute), domain.ErrDependencyUnavailable)

	_, _, err := kv.GetWithRemainingTTL(ctx, "k")
	require.ErrorIs(t, err, domain.ErrDependencyUnavailable)

	_, err = kv.CompareAndSwapOrDelete(ctx, "k", []byte("v"), nil)
	require.ErrorIs(t, err, domain.ErrDependencyUnavailable)
}

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	var nilRedis *Redis
	require.Error(t, nilRedis.Ping(context.Background()))

	r := &Redis{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(r.Close)
	require.NoError(t, r.Ping(context.Background()))
}

func TestPostgres_PingWithoutPool(t *testing.T) {
	require.Error(t, (&Postgres{}).Ping(context.Background()))
}
