package model

import "time"

// UsageLog is one evaluation outcome. Append-only: rows are written once by
// the usage recorder and only ever read back by the report aggregation.
// CorrelationID deduplicates records if an evaluation is ever retried.
type UsageLog struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	FeatureID     uint64    `gorm:"not null;index" json:"feature_id"`
	ProjectID     uint64    `gorm:"not null;index" json:"project_id"`
	Context       string    `gorm:"type:text" json:"context"`
	Enabled       bool      `gorm:"not null" json:"enabled"`
	CorrelationID string    `gorm:"size:36;uniqueIndex" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}
