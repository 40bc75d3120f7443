package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/movie-service/internal/domain"
)

// casScript swaps or deletes KEYS[1] when it still holds ARGV[1], keeping the
// key's remaining TTL on a swap.
var casScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false or current ~= ARGV[1] then
  return 0
end
if ARGV[2] == 'del' then
  redis.call('DEL', KEYS[1])
  return 1
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[3], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[3])
end
return 1
`)

// RedisKV implements KeyValueStore on go-redis.
type RedisKV struct {
	client redis.UniversalClient
}

var _ KeyValueStore = (*RedisKV)(nil)

// NewRedisKV builds a store on client.
func NewRedisKV(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("kv set %s: ttl must be positive", key)
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("kv set", err)
	}
	return nil
}

func (r *RedisKV) GetWithRemainingTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	var (
		get *redis.StringCmd
		ttl *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, unavailable("kv get", err)
	}

	value, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, unavailable("kv get", err)
	}
	return value, ttl.Val(), nil
}

func (r *RedisKV) CompareAndSwapOrDelete(ctx context.Context, key string, expected, replacement []byte) (bool, error) {
	mode, value := "set", replacement
	if replacement == nil {
		mode, value = "del", []byte{}
	}
	swapped, err := casScript.Run(ctx, r.client, []string{key}, expected, mode, value).Int()
	if err != nil {
		return false, unavailable("kv compare-and-swap", err)
	}
	return swapped == 1, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrDependencyUnavailable, op, err)
}
