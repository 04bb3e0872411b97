package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/xaalispay/xaalis/internal/repository"
)

// AuditService appends entity state changes to the audit log. Writes happen
// inside the caller's transaction so the trail commits with the change.
type AuditService struct{}

func NewAuditService() *AuditService {
	return &AuditService{}
}

func (s *AuditService) Write(ctx context.Context, q *repository.Queries, entityType string, entityID uuid.UUID, actorID *uuid.UUID, action, prevState, nextState string, metadata []byte) error {
	return q.CreateAuditLog(ctx, entityType, entityID, actorID, action, prevState, nextState, metadata)
}
