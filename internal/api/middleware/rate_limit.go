package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aywhoosh/iris-identity/internal/api/metrics"
	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

// RateLimit rejects requests from a client IP that exceed the sliding
// window. Limiter backend failures fail open: authentication must stay
// available when Redis is not.
func RateLimit(limiter ports.RateLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()

			allowed, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !allowed {
				metrics.RateLimitedTotal.WithLabelValues(c.Path()).Inc()
				return domain.ErrRateLimited
			}

			return next(c)
		}
	}
}
