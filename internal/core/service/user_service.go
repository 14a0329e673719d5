package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

// PasswordPolicy configures the strength checks applied before hashing.
// Each character class is independently togglable.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	BcryptCost    int
}

// UserService implements the password policy and credential manager.
type UserService struct {
	repo   ports.UserRepository
	policy PasswordPolicy

	// dummyHash is burned once at construction. Verification paths that
	// miss the user still run a bcrypt comparison against it, so "unknown
	// email" and "wrong password" cost the same wall-clock time.
	dummyHash []byte
}

func NewUserService(repo ports.UserRepository, policy PasswordPolicy) *UserService {
	if policy.MinLength <= 0 {
		policy.MinLength = 8
	}
	if policy.BcryptCost < bcrypt.MinCost || policy.BcryptCost > bcrypt.MaxCost {
		policy.BcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("iris-timing-equalizer"), policy.BcryptCost)
	if err != nil {
		// bcrypt only fails on cost out of range, which is clamped above.
		panic("user service: dummy hash: " + err.Error())
	}
	return &UserService{repo: repo, policy: policy, dummyHash: dummy}
}

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create validates the password against policy, derives a salted bcrypt hash,
// and persists the user. New registrations are always patients; clinical
// roles are provisioned out of band.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if err := s.checkPolicy(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.policy.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:         email,
		PasswordHash:  string(hash),
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Role:          domain.RolePatient,
		AccountStatus: domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

// Authenticate verifies an email+password pair. All failure modes — unknown
// email, wrong password, suspended account — collapse into
// domain.ErrInvalidCredentials so the caller cannot enumerate accounts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if user.AccountStatus != domain.StatusActive {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// VerifyPassword reports whether candidate matches the stored hash for id.
// Unknown ids return false after a dummy comparison, never an error.
func (s *UserService) VerifyPassword(ctx context.Context, id, candidate string) bool {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(candidate))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// Update applies profile changes. A password change re-runs the policy check
// and re-hashes; updated_at is bumped on every successful call.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Password != nil {
		if err := s.checkPolicy(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.policy.BcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateLastLogin(ctx context.Context, id string) error {
	return s.repo.UpdateLastLogin(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) checkPolicy(password string) error {
	if len(password) < s.policy.MinLength {
		return domain.NewValidationError("password must be at least %d characters", s.policy.MinLength)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	switch {
	case s.policy.RequireUpper && !upper:
		return domain.NewValidationError("password must contain an uppercase letter")
	case s.policy.RequireLower && !lower:
		return domain.NewValidationError("password must contain a lowercase letter")
	case s.policy.RequireDigit && !digit:
		return domain.NewValidationError("password must contain a digit")
	case s.policy.RequireSymbol && !symbol:
		return domain.NewValidationError("password must contain a symbol")
	}
	return nil
}

var _ ports.UserService = (*UserService)(nil)
