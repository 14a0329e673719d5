package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
	"github.com/aywhoosh/iris-identity/internal/pkg/cryptobox"
)

// AuditService appends security-relevant actions to the audit trail.
// Recording is best-effort: an insert failure is logged and returned for
// monitoring, but callers never abort the action being audited over it.
type AuditService struct {
	repo ports.AuditLogRepository
	log  zerolog.Logger

	// anonymize redacts source address and client descriptor through a
	// one-way digest before the entry is persisted. When it is off and a
	// box is configured, both fields are encrypted at rest instead.
	anonymize bool
	box       *cryptobox.Box

	now func() time.Time
}

func NewAuditService(repo ports.AuditLogRepository, anonymize bool, box *cryptobox.Box, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, anonymize: anonymize, box: box, log: log, now: time.Now}
}

// Record appends one entry and returns its id. The id is assigned before the
// insert, so an async front can hand it back without waiting.
func (s *AuditService) Record(ctx context.Context, in ports.AuditEntryInput) (string, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	ip, ua, err := s.protect(in.IPAddress, in.UserAgent)
	if err != nil {
		s.log.Error().Err(err).Str("action", in.Action).Msg("audit field protection failed")
		return id, err
	}

	entry := &domain.AuditLogEntry{
		ID:           id,
		UserID:       in.ActorID,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Details:      in.Details,
		IPAddress:    ip,
		UserAgent:    ua,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("action", in.Action).
			Str("audit_id", id).
			Msg("audit insert failed")
		return id, err
	}
	return id, nil
}

// protect applies the configured at-rest treatment to the identifying
// fields. Anonymization wins over encryption: a hashed field can never be
// recovered, which is the point.
func (s *AuditService) protect(ip, ua string) (string, string, error) {
	if s.anonymize {
		if ip != "" {
			ip = cryptobox.HashValue(ip)
		}
		if ua != "" {
			ua = cryptobox.HashValue(ua)
		}
		return ip, ua, nil
	}
	if s.box == nil {
		return ip, ua, nil
	}

	var err error
	if ip != "" {
		if ip, err = s.box.EncryptString(ip); err != nil {
			return "", "", err
		}
	}
	if ua != "" {
		if ua, err = s.box.EncryptString(ua); err != nil {
			return "", "", err
		}
	}
	return ip, ua, nil
}

var _ ports.AuditRecorder = (*AuditService)(nil)
