package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

type stubTokenService struct {
	validateFn func(token string) (*ports.AccessClaims, error)
}

func (s *stubTokenService) IssuePair(context.Context, *domain.User) (*ports.TokenPair, error) {
	return nil, errors.New("not implemented")
}

func (s *stubTokenService) ValidateAccess(token string) (*ports.AccessClaims, error) {
	return s.validateFn(token)
}

func (s *stubTokenService) Rotate(context.Context, string) (*ports.TokenPair, error) {
	return nil, errors.New("not implemented")
}

func (s *stubTokenService) Revoke(context.Context, string) error {
	return errors.New("not implemented")
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	tokens := &stubTokenService{
		validateFn: func(token string) (*ports.AccessClaims, error) {
			if token != "good-token" {
				t.Fatalf("unexpected token: %s", token)
			}
			return &ports.AccessClaims{UserID: "u1", Email: "alice@example.com", Role: domain.RolePatient}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(tokens)(func(c echo.Context) error {
		called = true
		if c.Get("user_id") != "u1" {
			t.Fatalf("user_id not set")
		}
		if c.Get("email") != "alice@example.com" {
			t.Fatalf("email not set")
		}
		if c.Get("role") != domain.RolePatient {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(&stubTokenService{})(func(c echo.Context) error {
		t.Fatal("next must not run")
		return nil
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	e := echo.New()

	for _, header := range []string{"good-token", "Basic good-token", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := Auth(&stubTokenService{})(func(c echo.Context) error {
			t.Fatalf("next must not run for header %q", header)
			return nil
		})

		err := handler(c)
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %v", header, err)
		}
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	e := echo.New()
	tokens := &stubTokenService{
		validateFn: func(string) (*ports.AccessClaims, error) {
			return nil, domain.ErrInvalidToken
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(tokens)(func(c echo.Context) error {
		t.Fatal("next must not run")
		return nil
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
