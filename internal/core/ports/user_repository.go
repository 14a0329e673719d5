package ports

import (
	"context"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// UserRepository defines the persistence contract for identity records.
// The credential manager exclusively owns User rows through it.
type UserRepository interface {
	// Create inserts a new user and returns it with its assigned id.
	// A duplicate email yields domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update persists mutable fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// UpdateLastLogin bumps last_login without touching anything else.
	UpdateLastLogin(ctx context.Context, id string) error

	// Delete hard-deletes the user row. Only an explicit account-deletion
	// request reaches this.
	Delete(ctx context.Context, id string) error
}
