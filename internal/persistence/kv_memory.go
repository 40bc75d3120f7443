package persistence

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryKV is a process-local KeyValueStore for single-instance deployments and tests.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

var _ KeyValueStore = (*MemoryKV)(nil)

// NewMemoryKV creates an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]memoryEntry), now: time.Now}
}

// WithClock replaces the time source used for expiry.
func (m *MemoryKV) WithClock(now func() time.Time) *MemoryKV {
	m.now = now
	return m
}

func (m *MemoryKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("kv set %s: ttl must be positive", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: bytes.Clone(value), expiresAt: m.now().Add(ttl)}
	m.sweepLocked()
	return nil
}

func (m *MemoryKV) GetWithRemainingTTL(_ context.Context, key string) ([]byte, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.liveLocked(key)
	if !ok {
		return nil, 0, nil
	}
	return bytes.Clone(entry.value), entry.expiresAt.Sub(m.now()), nil
}

func (m *MemoryKV) CompareAndSwapOrDelete(_ context.Context, key string, expected, replacement []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.liveLocked(key)
	if !ok || !bytes.Equal(entry.value, expected) {
		return false, nil
	}
	if replacement == nil {
		delete(m.entries, key)
		return true, nil
	}
	entry.value = bytes.Clone(replacement)
	m.entries[key] = entry
	return true, nil
}

func (m *MemoryKV) liveLocked(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryKV) sweepLocked() {
	now := m.now()
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}
