package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationTask   = "task"
	NotificationSystem = "system"
	NotificationReport = "laporan"
)

const (
	RecipientAdmin = "admin"
	RecipientStaff = "petugas"
)

const DefaultNotificationLimit = 20

type Notification struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Title         string                 `bson:"title,omitempty" json:"title,omitempty"`
	Message       string                 `bson:"message" json:"message"`
	Type          string                 `bson:"notificationType" json:"notificationType"`
	RecipientType string                 `bson:"recipientType" json:"recipientType"`
	RecipientID   *primitive.ObjectID    `bson:"recipient,omitempty" json:"recipient,omitempty"`
	TaskID        *primitive.ObjectID    `bson:"task,omitempty" json:"task,omitempty"`
	ReportID      *primitive.ObjectID    `bson:"laporan,omitempty" json:"laporan,omitempty"`
	IsRead        bool                   `bson:"isRead" json:"isRead"`
	Metadata      map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt     time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time              `bson:"updatedAt" json:"updatedAt"`
}

func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTask, NotificationSystem, NotificationReport:
		return true
	}
	return false
}

func ValidRecipientType(t string) bool {
	return t == RecipientAdmin || t == RecipientStaff
}

type NotificationQuery struct {
	RecipientType string
	RecipientID   *primitive.ObjectID
	IsRead        *bool
	Limit         int
}

// NotificationEvent is published for live delivery.
type NotificationEvent struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Type          string    `json:"notificationType"`
	RecipientType string    `json:"recipientType"`
	RecipientID   string    `json:"recipient,omitempty"`
	TaskID        string    `json:"task,omitempty"`
	ReportID      string    `json:"laporan,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func (n *Notification) Event() NotificationEvent {
	return NotificationEvent{
		ID:            n.ID.Hex(),
		Title:         n.Title,
		Message:       n.Message,
		Type:          n.Type,
		RecipientType: n.RecipientType,
		RecipientID:   hexOrEmpty(n.RecipientID),
		TaskID:        hexOrEmpty(n.TaskID),
		ReportID:      hexOrEmpty(n.ReportID),
		CreatedAt:     n.CreatedAt,
	}
}
