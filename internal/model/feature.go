package model

import "time"

// Feature state is a manual kill switch kept on the record for the admin UI;
// the evaluation path works off the conditions list only.
const (
	StateOn  = "on"
	StateOff = "off"
)

type Feature struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	FeatureKey  string    `gorm:"size:255;not null;uniqueIndex" json:"feature_key"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Conditions  string    `gorm:"type:text" json:"conditions"`
	State       string    `gorm:"type:enum('on','off');not null;default:on" json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
