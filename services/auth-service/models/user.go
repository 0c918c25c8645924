package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

// User is a citizen or village admin account. Citizens sign in to file
// reports under their own name; admins manage reports and tasks.
type User struct {
	ID        string         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Role      string         `gorm:"default:'citizen';index" json:"role"`
	NIK       *string        `gorm:"uniqueIndex" json:"nik,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Address   string         `json:"address,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
