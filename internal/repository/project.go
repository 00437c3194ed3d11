package repository

import (
	"context"
	"errors"
	"togglehub/internal/model"

	"gorm.io/gorm"
)

var ErrProjectNotFound = errors.New("project not found")

// ProjectInterface defines the interface for project persistence. GetByAPIKey
// backs the SDK authentication on the evaluation endpoint.
type ProjectInterface interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uint64) (*model.Project, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Project, error)
	ListByCompany(ctx context.Context, companyID uint64) ([]model.Project, error)
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Where("api_key = ?", apiKey).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) ListByCompany(ctx context.Context, companyID uint64) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}
