package ports

import (
	"context"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// AuditLogRepository appends audit records. There is deliberately no update
// or delete: entries are immutable once inserted.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLogEntry) error
}
