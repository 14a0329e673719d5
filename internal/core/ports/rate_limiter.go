package ports

import "context"

// RateLimiter guards the authentication endpoints with a sliding-window
// counter per caller identity (normally the client network address).
type RateLimiter interface {
	// Allow reports whether another request from key fits in the current
	// window, counting this request when it does.
	Allow(ctx context.Context, key string) (bool, error)
}
