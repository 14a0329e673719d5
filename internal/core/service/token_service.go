package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

// TokenConfig carries the signing material and lifetimes for both token
// kinds. Access and refresh tokens use separate secrets so a leak of one
// never compromises the other.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Algorithm     string
	Issuer        string
	Audience      string
}

// TokenService issues signed access tokens and runs the refresh rotation
// protocol over the persisted lifecycle rows.
type TokenService struct {
	users  ports.UserRepository
	tokens ports.RefreshTokenRepository
	cfg    TokenConfig
	method jwt.SigningMethod

	// now is swapped out by tests to pin the clock.
	now func() time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NewTokenService(users ports.UserRepository, tokens ports.RefreshTokenRepository, cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: token signing secrets are not set", domain.ErrConfiguration)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = jwt.SigningMethodHS256.Alg()
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("%w: unknown signing algorithm %q", domain.ErrConfiguration, cfg.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: signing algorithm %q is not HMAC-based", domain.ErrConfiguration, cfg.Algorithm)
	}

	return &TokenService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		method: method,
		now:    time.Now,
	}, nil
}

// IssuePair mints a token pair for user. TTLs become absolute expiry
// timestamps here, at issuance; validation never re-derives them, so a later
// configuration change cannot shift the lifetime of outstanding tokens.
func (s *TokenService) IssuePair(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	now := s.now().UTC()
	refreshExpiry := now.Add(s.cfg.RefreshTTL)
	jti := uuid.NewString()

	access := jwt.NewWithClaims(s.method, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
		Email: user.Email,
		Role:  user.Role,
	})
	accessToken, err := access.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(s.method, jwt.RegisteredClaims{
		ID:        jti,
		Subject:   user.ID,
		Issuer:    s.cfg.Issuer,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(refreshExpiry),
	})
	refreshToken, err := refresh.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	row := &domain.RefreshToken{
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExpiry,
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &ports.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    refreshExpiry,
	}, nil
}

// ValidateAccess verifies signature, issuer, audience, and expiry. Stateless:
// an access token is never checked against storage.
func (s *TokenService) ValidateAccess(token string) (*ports.AccessClaims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc([]byte(s.cfg.AccessSecret)), s.parserOptions()...)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return &ports.AccessClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		JTI:    claims.ID,
	}, nil
}

// Rotate exchanges a refresh token for a fresh pair. The stored row is
// consumed with a single conditional update, so of N concurrent calls with
// the same token exactly one succeeds; every loser observes the row already
// revoked and fails. The stored row is authoritative over the token's own
// claims: a token signed with a stale secret, or one past its stored expiry,
// fails at the storage check regardless of what its claims say.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	userID, jti, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	row, err := s.tokens.ConsumeActive(ctx, jti, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if row.UserID != userID {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("load token subject: %w", err)
	}
	if user.AccountStatus != domain.StatusActive {
		return nil, domain.ErrInvalidToken
	}

	return s.IssuePair(ctx, user)
}

// Revoke ends the session behind refreshToken. Unparseable tokens are
// treated as already revoked — the caller's intent, ending the session, is
// satisfied either way.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	_, jti, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	return s.tokens.Revoke(ctx, jti, s.now().UTC())
}

func (s *TokenService) parseRefresh(token string) (userID, jti string, err error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc([]byte(s.cfg.RefreshSecret)), s.parserOptions()...)
	if err != nil || !parsed.Valid {
		return "", "", domain.ErrInvalidToken
	}
	if claims.ID == "" || claims.Subject == "" {
		return "", "", domain.ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}

func (s *TokenService) keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}
}

func (s *TokenService) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{s.method.Alg()})}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}
	return opts
}

var _ ports.TokenService = (*TokenService)(nil)
