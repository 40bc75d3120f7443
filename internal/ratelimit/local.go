package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local is an in-process token bucket limiter. Each key gets a bucket that
// refills Count tokens per Interval with a burst of Count.
type Local struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	idle    time.Duration
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	limit    Limit
	lastSeen time.Time
}

// NewLocal creates a limiter that evicts buckets idle for longer than idle.
func NewLocal(idle time.Duration) *Local {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Local{clients: make(map[string]*clientLimiter), idle: idle, now: time.Now}
}

// WithClock replaces the time source.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

// Allow consumes one token from the bucket of key.
func (l *Local) Allow(_ context.Context, key string, limit Limit) (bool, error) {
	if err := limit.Validate(); err != nil {
		return false, err
	}
	now := l.now()
	return l.getLimiter(key, limit, now).AllowN(now, 1), nil
}

func (l *Local) getLimiter(key string, limit Limit, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.clients[key]; ok && entry.limit == limit {
		entry.lastSeen = now
		return entry.limiter
	}

	every := rate.Every(limit.Interval / time.Duration(limit.Count))
	limiter := rate.NewLimiter(every, limit.Count)
	l.clients[key] = &clientLimiter{limiter: limiter, limit: limit, lastSeen: now}
	l.cleanupLocked(now)
	return limiter
}

func (l *Local) cleanupLocked(now time.Time) {
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
}
