package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func limitedRequest(t *testing.T, limiter *stubLimiter) (error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := RateLimit(limiter, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return handler(c), called
}

func TestRateLimit_Allows(t *testing.T) {
	limiter := &stubLimiter{allowed: true}

	err, called := limitedRequest(t, limiter)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("next not called")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "203.0.113.7" {
		t.Fatalf("limiter keyed by %v, want client ip", limiter.keys)
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	limiter := &stubLimiter{allowed: false}

	err, called := limitedRequest(t, limiter)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if called {
		t.Fatal("next must not run when throttled")
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}

	err, called := limitedRequest(t, limiter)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("limiter outage must not block authentication")
	}
}
