package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases must stay indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers bad signature, wrong issuer or audience,
	// expiry, unknown jti, and already-revoked rows. One error for all of
	// them so a token probe learns nothing about which check failed.
	ErrInvalidToken = errors.New("invalid token")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrRateLimited  = errors.New("rate limit exceeded")

	ErrDecryptionFailed = errors.New("decryption failed")
	ErrConfiguration    = errors.New("invalid configuration")
)

// ValidationError reports a user-correctable policy violation, carrying a
// message safe to surface verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
