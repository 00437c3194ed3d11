package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"type:enum('admin','user');not null;default:user" json:"role"`
	CompanyID    *uint64   `gorm:"index" json:"company_id"`
	FirstLogin   bool      `gorm:"default:false" json:"first_login"`
	CreatedAt    time.Time `json:"created_at"`
}
