package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(window time.Duration, max int) (*MemoryLimiter, *time.Time) {
	l := NewMemoryLimiter(window, max)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestMemoryLimiter_EnforcesMax(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "198.51.100.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	// The (N+1)-th request in the window is rejected.
	ok, err := l.Allow(ctx, "198.51.100.4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _ := l.Allow(ctx, "k")
		require.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "k")
	require.False(t, ok)

	// First request after the window elapses succeeds again.
	*clock = clock.Add(time.Minute + time.Second)
	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "a")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "a")
	require.False(t, ok)

	// A different caller is unaffected.
	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok)
}

func TestMemoryLimiter_PartialEviction(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 2)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)

	// Half a window later the first hit still counts.
	*clock = clock.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	// 40s more: only the first hit has aged out, one slot frees up.
	*clock = clock.Add(40 * time.Second)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	assert.False(t, ok)
}
