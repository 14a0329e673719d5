package ports

import "context"

// AuditEntryInput is the DTO passed from the transport layer to the audit
// recorder. ID may be pre-assigned by an async front (so the caller gets the
// log id back before the insert lands); when empty the recorder generates one.
type AuditEntryInput struct {
	ID           string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	IPAddress    string
	UserAgent    string
}

// AuditRecorder appends security-relevant actions to the audit trail.
// Recording is best-effort: implementations report failures to logs and
// metrics but must never fail the primary operation they accompany.
type AuditRecorder interface {
	Record(ctx context.Context, in AuditEntryInput) (string, error)
}
