package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/movie-service/internal/domain"
)

func TestRedisMailQueue_EnqueueFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := NewRedisMailQueue(client, "")
	ctx := context.Background()

	first := VerificationMail{From: "noreply@example.com", Email: "a@example.com", Username: "alice", SessionID: "s1", Code: "123456"}
	second := VerificationMail{From: "noreply@example.com", Email: "b@example.com", Username: "bob", SessionID: "s2", Code: "654321"}
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := client.LLen(ctx, DefaultQueue).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	raw, err := client.RPop(ctx, DefaultQueue).Bytes()
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]string{
		"from": "noreply@example.com", "email": "a@example.com", "username": "alice",
		"session_id": "s1", "code": "123456",
	}, got)
}

func TestRedisMailQueue_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	err := NewRedisMailQueue(client, "q").Enqueue(context.Background(), VerificationMail{Email: "a@example.com"})
	require.ErrorIs(t, err, domain.ErrDependencyUnavailable)
}
