package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/relatia/crm-api/internal/models"
)

type auditStore interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// AuditService writes the audit trail. Fire-and-forget: a failed write is
// logged and swallowed so auditing can never fail the operation it records.
type AuditService struct {
	repo   auditStore
	logger *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Log records an action against an entity. userID may be empty for system
// actions; metadata is marshalled to JSON.
func (s *AuditService) Log(ctx context.Context, action, entity string, entityID *string, userID string, metadata map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	var payload []byte
	if metadata != nil {
		var err error
		payload, err = json.Marshal(metadata)
		if err != nil {
			s.logger.Sugar().Warnw("failed to marshal audit metadata", "action", action, "error", err)
			payload = nil
		}
	}
	var userPtr *string
	if userID != "" {
		userPtr = &userID
	}
	entry := &models.AuditLog{
		UserID:   userPtr,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Metadata: payload,
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to write audit log", "action", action, "entity", entity, "error", err)
	}
}
