// Package ratelimit provides per-key admission checks used by the permission gate.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Limit allows Count calls per Interval.
type Limit struct {
	Count    int
	Interval time.Duration
}

// String renders the limit as "count/interval".
func (l Limit) String() string {
	return fmt.Sprintf("%d/%s", l.Count, l.Interval)
}

// Validate rejects limits no limiter can enforce.
func (l Limit) Validate() error {
	if l.Count <= 0 {
		return fmt.Errorf("invalid rate limit %s: count must be positive", l)
	}
	if l.Interval < time.Millisecond {
		return fmt.Errorf("invalid rate limit %s: interval below 1ms", l)
	}
	return nil
}

// Limiter decides whether one more call under key fits in limit.
// Errors are transport failures; a denied call is (false, nil).
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit) (bool, error)
}

// Key builds the limiter key for a client address and an operation.
func Key(clientAddr, operation string) string {
	return clientAddr + "|" + operation
}

// ParseLimit parses strings such as "30/minute", "1/second" or "100/hour".
func ParseLimit(s string) (Limit, error) {
	count, unit, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Limit{}, fmt.Errorf("invalid rate limit %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return Limit{}, fmt.Errorf("invalid rate limit count %q", s)
	}

	var interval time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "second", "sec", "s":
		interval = time.Second
	case "minute", "min", "m":
		interval = time.Minute
	case "hour", "h":
		interval = time.Hour
	case "day", "d":
		interval = 24 * time.Hour
	default:
		return Limit{}, fmt.Errorf("invalid rate limit unit %q", s)
	}
	l := Limit{Count: n, Interval: interval}
	if err := l.Validate(); err != nil {
		return Limit{}, err
	}
	return l, nil
}

// MustParseLimit is ParseLimit for static route tables.
func MustParseLimit(s string) *Limit {
	l, err := ParseLimit(s)
	if err != nil {
		panic(err)
	}
	return &l
}
