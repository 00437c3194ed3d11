package repository

import (
	"context"
	"togglehub/internal/model"

	"gorm.io/gorm"
)

// HistoryInterface defines the interface for change-history persistence.
// Writes happen inside the same transaction as the feature mutation they
// describe, hence WithTx.
type HistoryInterface interface {
	Create(ctx context.Context, entry *model.ChangeHistory) error
	List(ctx context.Context, offset, limit int) ([]model.ChangeHistory, int64, error)
	ListByFeature(ctx context.Context, featureID uint64) ([]model.ChangeHistory, error)
	WithTx(tx *gorm.DB) HistoryInterface
}

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *model.ChangeHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *HistoryRepository) List(ctx context.Context, offset, limit int) ([]model.ChangeHistory, int64, error) {
	var entries []model.ChangeHistory
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ChangeHistory{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *HistoryRepository) ListByFeature(ctx context.Context, featureID uint64) ([]model.ChangeHistory, error) {
	var entries []model.ChangeHistory
	err := r.db.WithContext(ctx).
		Where("feature_id = ?", featureID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *HistoryRepository) WithTx(tx *gorm.DB) HistoryInterface {
	return &HistoryRepository{db: tx}
}
