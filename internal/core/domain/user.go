package domain

import "time"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Account statuses. Suspended accounts keep their data but cannot log in.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User models an identity record. PasswordHash is write-only from the
// caller's perspective: it is never serialized outward and only the
// credential manager reads it back for verification.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Role          string     `json:"role"`
	AccountStatus string     `json:"account_status"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// ValidRole reports whether role is one of the enumerated roles.
func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor || role == RoleAdmin
}

// Public returns a projection safe to hand to the transport layer:
// the hash never leaves the credential manager.
func (u *User) Public() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
