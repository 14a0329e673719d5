package domain

import "time"

// TokenState is the lifecycle state of a refresh token. The persisted row
// stores only the revoked flag and timestamps; the state is derived.
type TokenState string

const (
	TokenActive  TokenState = "active"
	TokenRotated TokenState = "rotated"
	TokenRevoked TokenState = "revoked"
	TokenExpired TokenState = "expired"
)

// RefreshToken is the persisted lifecycle record of a refresh credential.
// JTI correlates the signed token to this row; the signed string itself is
// never stored. A jti is never reused, and at most one non-revoked,
// non-expired row exists per jti (unique index on jti).
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	JTI       string     `json:"jti"`
	ExpiresAt time.Time  `json:"expires_at"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// State derives the lifecycle state at instant now. Rotated and revoked rows
// are indistinguishable in storage; both are terminal and absorbing.
func (t *RefreshToken) State(now time.Time) TokenState {
	if t.Revoked {
		return TokenRevoked
	}
	if !now.Before(t.ExpiresAt) {
		return TokenExpired
	}
	return TokenActive
}

// Usable reports whether the row may still satisfy a rotation at instant now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.State(now) == TokenActive
}
