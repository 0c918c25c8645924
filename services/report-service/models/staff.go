package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultStaffCapacity = 5

type Staff struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role        string             `bson:"role" json:"role"`
	Department  string             `bson:"department,omitempty" json:"department,omitempty"`
	AvatarURL   string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Skills      []string           `bson:"skills" json:"skills"`
	MaxCapacity int                `bson:"maxCapacity" json:"maxCapacity"`
	CurrentLoad int                `bson:"currentLoad" json:"currentLoad"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StaffUpdate carries the admin-editable fields; nil means unchanged.
// CurrentLoad is deliberately absent.
type StaffUpdate struct {
	Name        *string
	Email       *string
	Phone       *string
	Department  *string
	AvatarURL   *string
	IsActive    *bool
	Skills      []string
	MaxCapacity *int
}

type StaffQuery struct {
	Search   string
	IsActive *bool
}
