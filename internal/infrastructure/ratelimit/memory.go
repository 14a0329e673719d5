// Package ratelimit provides an in-process sliding-window limiter used when
// no Redis instance is configured, and as the deterministic implementation
// for tests. Semantics match the Redis adapter: max requests per window per
// key, lazy eviction on access.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time

	// now is swapped out by tests to pin the clock.
	now func() time.Time
}

func NewMemoryLimiter(window time.Duration, max int) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 10
	}
	return &MemoryLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether another request from key fits in the current window.
// Expired timestamps are evicted here, on access, rather than by a sweeper.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	window := l.hits[key]
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.hits[key] = kept
		return false, nil
	}

	l.hits[key] = append(kept, now)
	return true, nil
}
