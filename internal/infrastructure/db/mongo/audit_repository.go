package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

const auditCollection = "audit_logs"

// MongoAuditLogRepository appends audit entries. Insert-only on purpose:
// there is no update or delete path for audit_logs anywhere in this package.
type MongoAuditLogRepository struct {
	coll *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) *MongoAuditLogRepository {
	return &MongoAuditLogRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEntry struct {
	ID           string         `bson:"_id"` // service-assigned uuid
	UserID       string         `bson:"user_id,omitempty"`
	Action       string         `bson:"action"`
	ResourceType string         `bson:"resource_type"`
	ResourceID   string         `bson:"resource_id,omitempty"`
	Details      map[string]any `bson:"details,omitempty"`
	IPAddress    string         `bson:"ip_address,omitempty"`
	UserAgent    string         `bson:"user_agent,omitempty"`
	CreatedAt    int64          `bson:"created_at"`
}

func (r *MongoAuditLogRepository) Insert(ctx context.Context, entry *domain.AuditLogEntry) error {
	doc := mongoAuditEntry{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		CreatedAt:    entry.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
