package model

import "time"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeHistory records one administrative mutation of a feature. Written in
// the same transaction as the mutation itself.
type ChangeHistory struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	FeatureID     uint64    `gorm:"not null;index" json:"feature_id"`
	UserID        uint64    `gorm:"index" json:"user_id"`
	Action        string    `gorm:"type:enum('create','update','delete');not null" json:"action"`
	ChangedFields string    `gorm:"type:text" json:"changed_fields"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (ChangeHistory) TableName() string {
	return "change_history"
}
