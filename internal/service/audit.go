package service

import (
	"context"
	"time"

	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/pkg/logger"

	"go.uber.org/zap"
)

// AuditService writes audit-trail documents. Record is detached from the
// caller: a broken document store never fails an administrative action.
type AuditService struct {
	repo    repository.AuditInterface
	timeout time.Duration
}

func NewAuditService(repo repository.AuditInterface) *AuditService {
	return &AuditService{repo: repo, timeout: 5 * time.Second}
}

// Record persists an audit document in the background.
func (s *AuditService) Record(action, entity string, entityID, userID uint64, details map[string]any) {
	record := &model.AuditRecord{
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		UserID:    userID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.repo.Insert(ctx, record); err != nil {
			logger.Error("failed to write audit record",
				zap.String("entity", entity),
				zap.Uint64("entity_id", entityID),
				zap.String("action", action),
				zap.Error(err))
		}
	}()
}

func (s *AuditService) List(ctx context.Context, offset, limit int64) ([]model.AuditRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *AuditService) ListByEntity(ctx context.Context, entity string, entityID uint64) ([]model.AuditRecord, error) {
	return s.repo.ListByEntity(ctx, entity, entityID)
}
