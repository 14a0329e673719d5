package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlidingWindowLimiter counts auth requests per caller in a Redis sorted set.
// Key format: ratelimit:<key>; members score on the request's unix-nano
// timestamp. Eviction is lazy: stale members are trimmed on access, never by
// a background sweep.
type SlidingWindowLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

// NewSlidingWindowLimiter creates a limiter allowing max requests per window.
func NewSlidingWindowLimiter(client *redis.Client, window time.Duration, max int) *SlidingWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 10
	}
	return &SlidingWindowLimiter{client: client, window: window, max: max}
}

// Allow trims entries older than the window, counts what remains, and admits
// the request only while the count is under the limit.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.key(key)
	now := time.Now()
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixNano(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", cutoff)
	card := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}

	if card.Val() >= int64(l.max) {
		return false, nil
	}

	pipe = l.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit record: %w", err)
	}
	return true, nil
}

func (l *SlidingWindowLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
