package ports

import (
	"context"
	"time"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// TokenPair is a freshly minted access + refresh credential set.
// ExpiresAt is the refresh token's absolute expiry, fixed at issuance.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AccessClaims are the verified contents of an access token.
type AccessClaims struct {
	UserID string
	Email  string
	Role   string
	JTI    string
}

// TokenService issues signed access tokens and runs the refresh rotation
// protocol.
type TokenService interface {
	// IssuePair mints an access token and a refresh token for user, and
	// persists the refresh token's lifecycle row.
	IssuePair(ctx context.Context, user *domain.User) (*TokenPair, error)

	// ValidateAccess checks signature, issuer, audience, and expiry.
	// Purely cryptographic: no storage lookup.
	ValidateAccess(token string) (*AccessClaims, error)

	// Rotate exchanges a refresh token for a new pair, atomically revoking
	// the presented token. A refresh token is single-use: a second Rotate
	// with the same token fails with domain.ErrInvalidToken.
	Rotate(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Revoke ends the session behind refreshToken. Idempotent; invalid or
	// unknown tokens are treated as already revoked.
	Revoke(ctx context.Context, refreshToken string) error
}
