package model

import "time"

type Project struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CompanyID   uint64    `gorm:"not null;index" json:"company_id"`
	APIKey      string    `gorm:"size:64;not null;uniqueIndex" json:"api_key"`
	CreatedAt   time.Time `json:"created_at"`
}
