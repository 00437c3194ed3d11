package repository

import (
	"context"
	"errors"
	"togglehub/internal/model"

	"gorm.io/gorm"
)

var ErrCompanyNotFound = errors.New("company not found")

type CompanyInterface interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id uint64) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	Update(ctx context.Context, company *model.Company) error
}

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uint64) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) List(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := r.db.WithContext(ctx).Order("name ASC").Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}
