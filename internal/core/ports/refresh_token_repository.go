package ports

import (
	"context"
	"time"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// RefreshTokenRepository persists refresh-token lifecycle rows. The token
// issuer exclusively owns them: rows are inserted active and only ever
// mutated to flip revoked=true. Expired rows stay in place for audit.
type RefreshTokenRepository interface {
	// Create inserts a new active row for a freshly minted jti.
	Create(ctx context.Context, token *domain.RefreshToken) error

	FindByJTI(ctx context.Context, jti string) (*domain.RefreshToken, error)

	// ConsumeActive atomically revokes the row matching jti, but only while
	// it is still unrevoked and unexpired at instant now. When two callers
	// race on the same jti at most one gets the row back; the rest get
	// domain.ErrInvalidToken. This single conditional update is what makes
	// rotation single-use.
	ConsumeActive(ctx context.Context, jti string, now time.Time) (*domain.RefreshToken, error)

	// Revoke marks the row revoked on logout. Idempotent: unknown or
	// already-revoked jtis are not an error.
	Revoke(ctx context.Context, jti string, now time.Time) error
}
