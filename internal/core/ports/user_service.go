package ports

import (
	"context"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// CreateUserInput carries registration data from the transport layer.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserInput lists the mutable profile fields. Nil means "leave as is".
// A non-nil Password is re-validated against policy and re-hashed.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Password  *string
}

// UserService is the password policy and credential manager.
type UserService interface {
	// Create validates the password against policy, hashes it, and persists
	// the user. The plaintext password is never stored or returned.
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Authenticate verifies email+password. Unknown email and wrong
	// password both come back as domain.ErrInvalidCredentials, with
	// equalized timing between the two paths.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// VerifyPassword reports whether candidate matches the stored hash.
	// Returns false, never an error, for an unknown id.
	VerifyPassword(ctx context.Context, id, candidate string) bool

	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
