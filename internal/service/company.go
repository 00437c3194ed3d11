package service

import (
	"context"

	"togglehub/internal/model"
	"togglehub/internal/repository"
)

type CompanyService struct {
	companies repository.CompanyInterface
	audit     *AuditService
}

func NewCompanyService(companies repository.CompanyInterface, audit *AuditService) *CompanyService {
	return &CompanyService{companies: companies, audit: audit}
}

func (s *CompanyService) Create(ctx context.Context, name, address, logoURL string, operator *OperatorInfo) (*model.Company, error) {
	company := &model.Company{
		Name:    name,
		Address: address,
		LogoURL: logoURL,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}

	s.audit.Record(model.ActionCreate, "company", company.ID, operator.UserID, map[string]any{
		"name": name,
	})
	return company, nil
}

func (s *CompanyService) List(ctx context.Context) ([]model.Company, error) {
	return s.companies.List(ctx)
}

func (s *CompanyService) Get(ctx context.Context, id uint64) (*model.Company, error) {
	return s.companies.GetByID(ctx, id)
}

func (s *CompanyService) Update(ctx context.Context, id uint64, name, address, logoURL string, operator *OperatorInfo) (*model.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	company.Name = name
	company.Address = address
	company.LogoURL = logoURL
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, err
	}

	s.audit.Record(model.ActionUpdate, "company", company.ID, operator.UserID, map[string]any{
		"name": name,
	})
	return company, nil
}
