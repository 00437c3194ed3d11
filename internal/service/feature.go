package service

import (
	"context"
	"encoding/json"
	"errors"

	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/pkg/flageval"
	"togglehub/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrForbiddenProject = errors.New("project belongs to another company")

// FeatureService is the administrative side of feature management. Every
// mutation writes its ChangeHistory row in the same transaction and emits an
// audit document asynchronously.
type FeatureService struct {
	db       *gorm.DB
	features repository.FeatureInterface
	projects repository.ProjectInterface
	history  repository.HistoryInterface
	audit    *AuditService
}

func NewFeatureService(db *gorm.DB, features repository.FeatureInterface, projects repository.ProjectInterface, history repository.HistoryInterface, audit *AuditService) *FeatureService {
	return &FeatureService{
		db:       db,
		features: features,
		projects: projects,
		history:  history,
		audit:    audit,
	}
}

type FeatureInput struct {
	ProjectID   uint64
	FeatureKey  string
	Description string
	Conditions  []flageval.Condition
	State       string
}

func (s *FeatureService) Create(ctx context.Context, in FeatureInput, operator *OperatorInfo) (*model.Feature, error) {
	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(project, operator); err != nil {
		return nil, err
	}

	conditions, err := encodeConditions(in.Conditions)
	if err != nil {
		return nil, err
	}

	feature := &model.Feature{
		ProjectID:   in.ProjectID,
		FeatureKey:  in.FeatureKey,
		Description: in.Description,
		Conditions:  conditions,
		State:       in.State,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txFeatures := s.features.WithTx(tx)
		txHistory := s.history.WithTx(tx)

		if err := txFeatures.Create(ctx, feature); err != nil {
			return err
		}
		return txHistory.Create(ctx, &model.ChangeHistory{
			FeatureID: feature.ID,
			UserID:    operator.UserID,
			Action:    model.ActionCreate,
			ChangedFields: mustEncodeFields(map[string]any{
				"project_id":  in.ProjectID,
				"feature_key": in.FeatureKey,
				"description": in.Description,
				"conditions":  in.Conditions,
				"state":       in.State,
			}),
		})
	})
	if err != nil {
		logger.Error("failed to create feature", zap.String("key", in.FeatureKey), zap.Error(err))
		return nil, err
	}

	s.audit.Record(model.ActionCreate, "feature", feature.ID, operator.UserID, map[string]any{
		"feature_key": in.FeatureKey,
		"state":       in.State,
	})
	return feature, nil
}

type FeatureUpdate struct {
	Description string
	Conditions  []flageval.Condition
	State       string
}

// Update replaces the mutable fields of a feature, including the entire
// condition list.
func (s *FeatureService) Update(ctx context.Context, featureID uint64, in FeatureUpdate, operator *OperatorInfo) (*model.Feature, error) {
	feature, err := s.getScoped(ctx, featureID, operator)
	if err != nil {
		return nil, err
	}

	conditions, err := encodeConditions(in.Conditions)
	if err != nil {
		return nil, err
	}

	feature.Description = in.Description
	feature.Conditions = conditions
	feature.State = in.State

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txFeatures := s.features.WithTx(tx)
		txHistory := s.history.WithTx(tx)

		if err := txFeatures.Update(ctx, feature); err != nil {
			return err
		}
		return txHistory.Create(ctx, &model.ChangeHistory{
			FeatureID: feature.ID,
			UserID:    operator.UserID,
			Action:    model.ActionUpdate,
			ChangedFields: mustEncodeFields(map[string]any{
				"description": in.Description,
				"conditions":  in.Conditions,
				"state":       in.State,
			}),
		})
	})
	if err != nil {
		logger.Error("failed to update feature", zap.Uint64("id", featureID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(model.ActionUpdate, "feature", feature.ID, operator.UserID, map[string]any{
		"feature_key": feature.FeatureKey,
		"state":       in.State,
	})
	return feature, nil
}

func (s *FeatureService) Delete(ctx context.Context, featureID uint64, operator *OperatorInfo) error {
	feature, err := s.getScoped(ctx, featureID, operator)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txFeatures := s.features.WithTx(tx)
		txHistory := s.history.WithTx(tx)

		if err := txFeatures.Delete(ctx, featureID); err != nil {
			return err
		}
		return txHistory.Create(ctx, &model.ChangeHistory{
			FeatureID: featureID,
			UserID:    operator.UserID,
			Action:    model.ActionDelete,
			ChangedFields: mustEncodeFields(map[string]any{
				"feature_key": feature.FeatureKey,
			}),
		})
	})
	if err != nil {
		logger.Error("failed to delete feature", zap.Uint64("id", featureID), zap.Error(err))
		return err
	}

	s.audit.Record(model.ActionDelete, "feature", featureID, operator.UserID, map[string]any{
		"feature_key": feature.FeatureKey,
	})
	return nil
}

func (s *FeatureService) Get(ctx context.Context, featureID uint64, operator *OperatorInfo) (*model.Feature, error) {
	return s.getScoped(ctx, featureID, operator)
}

func (s *FeatureService) ListByProject(ctx context.Context, projectID uint64, operator *OperatorInfo) ([]model.Feature, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(project, operator); err != nil {
		return nil, err
	}
	return s.features.ListByProject(ctx, projectID)
}

// getScoped loads a feature and verifies the operator's company owns the
// project it belongs to.
func (s *FeatureService) getScoped(ctx context.Context, featureID uint64, operator *OperatorInfo) (*model.Feature, error) {
	feature, err := s.features.GetByID(ctx, featureID)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, feature.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(project, operator); err != nil {
		return nil, err
	}
	return feature, nil
}

func checkProjectAccess(project *model.Project, operator *OperatorInfo) error {
	if operator == nil {
		return ErrForbiddenProject
	}
	if operator.CompanyID != 0 && project.CompanyID != operator.CompanyID {
		return ErrForbiddenProject
	}
	return nil
}

func encodeConditions(conditions []flageval.Condition) (string, error) {
	if conditions == nil {
		conditions = []flageval.Condition{}
	}
	b, err := json.Marshal(conditions)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mustEncodeFields(fields map[string]any) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(b)
}
