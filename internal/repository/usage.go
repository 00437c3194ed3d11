package repository

import (
	"context"
	"time"
	"togglehub/internal/model"

	"gorm.io/gorm"
)

// UsageReportRow is one aggregated line of the usage report.
type UsageReportRow struct {
	ProjectName string `gorm:"column:project_name" json:"project_name"`
	FeatureKey  string `gorm:"column:feature_key" json:"feature_key"`
	UsageCount  int64  `gorm:"column:usage_count" json:"usage_count"`
}

// UsageFilter narrows the report aggregation. Zero values mean "no filter".
type UsageFilter struct {
	ProjectID  uint64
	FeatureKey string
}

// UsageInterface is the append-only usage sink plus the report aggregation
// over it. Insert is called by the usage recorder workers only.
type UsageInterface interface {
	Insert(ctx context.Context, record *model.UsageLog) error
	Aggregate(ctx context.Context, companyID uint64, start, end time.Time, filter UsageFilter) ([]UsageReportRow, error)
}

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Insert(ctx context.Context, record *model.UsageLog) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Aggregate counts usage events per (project, feature) within the date range,
// restricted to the requester's company. Output order is fixed: project name
// ascending, then feature key ascending.
func (r *UsageRepository) Aggregate(ctx context.Context, companyID uint64, start, end time.Time, filter UsageFilter) ([]UsageReportRow, error) {
	query := r.db.WithContext(ctx).
		Table("usage_logs ul").
		Select("p.name AS project_name, f.feature_key AS feature_key, COUNT(*) AS usage_count").
		Joins("INNER JOIN features f ON ul.feature_id = f.id").
		Joins("INNER JOIN projects p ON ul.project_id = p.id").
		Where("p.company_id = ?", companyID).
		Where("ul.created_at BETWEEN ? AND ?", start, end)

	if filter.ProjectID != 0 {
		query = query.Where("ul.project_id = ?", filter.ProjectID)
	}
	if filter.FeatureKey != "" {
		query = query.Where("f.feature_key = ?", filter.FeatureKey)
	}

	var rows []UsageReportRow
	err := query.
		Group("p.name, f.feature_key").
		Order("p.name ASC, f.feature_key ASC").
		Scan(&rows).Error
	return rows, err
}
