package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLocal_AllowsBurstThenDenies(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewLocal(time.Hour).WithClock(clock.Now)
	ctx := context.Background()
	limit := Limit{Count: 2, Interval: time.Minute}

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k", limit)
		require.NoError(t, err)
		assert.True(t, ok, "call %d", i)
	}
	ok, err := l.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(31 * time.Second)
	ok, _ = l.Allow(ctx, "k", limit)
	assert.True(t, ok, "one token refilled after half the interval")
}

func TestLocal_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewLocal(time.Hour).WithClock(clock.Now)
	ctx := context.Background()
	limit := Limit{Count: 1, Interval: time.Minute}

	ok, _ := l.Allow(ctx, Key("a", "op"), limit)
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, Key("a", "op"), limit)
	assert.False(t, ok)
	ok, _ = l.Allow(ctx, Key("b", "op"), limit)
	assert.True(t, ok)
}

func TestLocal_EvictsIdleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewLocal(time.Minute).WithClock(clock.Now)
	ctx := context.Background()
	limit := Limit{Count: 1, Interval: time.Hour}

	_, _ = l.Allow(ctx, "old", limit)
	clock.Advance(2 * time.Minute)
	_, _ = l.Allow(ctx, "new", limit)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "old")
	assert.Contains(t, l.clients, "new")
}
