package persistence

import (
	"context"
	"time"
)

// KeyValueStore is the expiring byte store behind verification sessions.
// Implementations must make CompareAndSwapOrDelete atomic with respect to every
// other call on the same key.
type KeyValueStore interface {
	// SetWithTTL stores value under key, replacing any previous value.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// GetWithRemainingTTL returns the value and its remaining lifetime.
	// A nil value means the key is missing or expired.
	GetWithRemainingTTL(ctx context.Context, key string) ([]byte, time.Duration, error)
	// CompareAndSwapOrDelete replaces the value only while it still equals expected.
	// A nil replacement deletes the key. The remaining TTL is preserved.
	CompareAndSwapOrDelete(ctx context.Context, key string, expected, replacement []byte) (bool, error)
}
