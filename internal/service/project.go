package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"togglehub/internal/model"
	"togglehub/internal/repository"
)

// ProjectService manages projects and their SDK credentials. A project's API
// key is issued once at creation and identifies the project on the
// evaluation endpoint.
type ProjectService struct {
	projects repository.ProjectInterface
	audit    *AuditService
}

func NewProjectService(projects repository.ProjectInterface, audit *AuditService) *ProjectService {
	return &ProjectService{projects: projects, audit: audit}
}

func (s *ProjectService) Create(ctx context.Context, name, description string, operator *OperatorInfo) (*model.Project, error) {
	project := &model.Project{
		Name:        name,
		Description: description,
		CompanyID:   operator.CompanyID,
		APIKey:      generateAPIKey(),
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.audit.Record(model.ActionCreate, "project", project.ID, operator.UserID, map[string]any{
		"name": name,
	})
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, operator *OperatorInfo) ([]model.Project, error) {
	return s.projects.ListByCompany(ctx, operator.CompanyID)
}

func (s *ProjectService) Get(ctx context.Context, projectID uint64, operator *OperatorInfo) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(project, operator); err != nil {
		return nil, err
	}
	return project, nil
}

// generateAPIKey returns a 40-hex-char key from a CSPRNG.
func generateAPIKey() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
