package repository

import (
	"context"
	"errors"
	"togglehub/internal/model"

	"gorm.io/gorm"
)

var ErrFeatureNotFound = errors.New("feature not found")

// FeatureInterface defines the interface for feature persistence
type FeatureInterface interface {
	Create(ctx context.Context, feature *model.Feature) error
	GetByID(ctx context.Context, id uint64) (*model.Feature, error)
	GetByKey(ctx context.Context, projectID uint64, key string) (*model.Feature, error)
	ListByProject(ctx context.Context, projectID uint64) ([]model.Feature, error)
	Update(ctx context.Context, feature *model.Feature) error
	Delete(ctx context.Context, id uint64) error
	WithTx(tx *gorm.DB) FeatureInterface
}

// FeatureRepository implementation of FeatureInterface for MySQL
type FeatureRepository struct {
	db *gorm.DB
}

func NewFeatureRepository(db *gorm.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

func (r *FeatureRepository) Create(ctx context.Context, feature *model.Feature) error {
	return r.db.WithContext(ctx).Create(feature).Error
}

func (r *FeatureRepository) GetByID(ctx context.Context, id uint64) (*model.Feature, error) {
	var feature model.Feature
	if err := r.db.WithContext(ctx).First(&feature, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, err
	}
	return &feature, nil
}

// GetByKey resolves a feature by its external key, scoped to the calling
// project. This is the evaluation-path read.
func (r *FeatureRepository) GetByKey(ctx context.Context, projectID uint64, key string) (*model.Feature, error) {
	var feature model.Feature
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND feature_key = ?", projectID, key).
		First(&feature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, err
	}
	return &feature, nil
}

func (r *FeatureRepository) ListByProject(ctx context.Context, projectID uint64) ([]model.Feature, error) {
	var features []model.Feature
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("feature_key ASC").
		Find(&features).Error
	return features, err
}

func (r *FeatureRepository) Update(ctx context.Context, feature *model.Feature) error {
	return r.db.WithContext(ctx).Save(feature).Error
}

func (r *FeatureRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&model.Feature{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFeatureNotFound
	}
	return nil
}

func (r *FeatureRepository) WithTx(tx *gorm.DB) FeatureInterface {
	return &FeatureRepository{db: tx}
}
