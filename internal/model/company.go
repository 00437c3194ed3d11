package model

import "time"

type Company struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Address   string    `gorm:"size:500;not null" json:"address"`
	LogoURL   string    `gorm:"size:500" json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
