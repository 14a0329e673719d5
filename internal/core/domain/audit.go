package domain

import "time"

// Security-relevant audit actions.
const (
	ActionRegister       = "user.register"
	ActionLogin          = "user.login"
	ActionLoginFailed    = "user.login_failed"
	ActionLogout         = "user.logout"
	ActionTokenRotated   = "token.rotated"
	ActionTokenRejected  = "token.rejected"
	ActionPasswordChange = "user.password_changed"
	ActionAccountDeleted = "user.account_deleted"
)

// Audit resource types.
const (
	ResourceUser         = "user"
	ResourceRefreshToken = "refresh_token"
)

// AuditLogEntry is an append-only record of a security-relevant action.
// Entries are never updated or deleted after insert. UserID is empty for
// anonymous failures (e.g. a failed login for an unknown email).
type AuditLogEntry struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
