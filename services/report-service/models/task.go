package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HistoryEntry struct {
	Action      string    `bson:"action" json:"action"`
	Description string    `bson:"description" json:"description"`
	Actor       string    `bson:"actor" json:"actor"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

const (
	HistoryAssign = "assign"
	HistoryUpdate = "update"
)

type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskNumber  string             `bson:"taskNumber" json:"taskNumber"`
	ReportID    primitive.ObjectID `bson:"laporan" json:"laporan"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Priority    string             `bson:"priority" json:"priority"`
	Status      string             `bson:"status" json:"status"`
	AssigneeID  primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	AssignedBy  string             `bson:"assignedBy,omitempty" json:"assignedBy,omitempty"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Attachments []string           `bson:"attachments" json:"attachments"`
	History     []HistoryEntry     `bson:"history" json:"history"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TaskView is a task with its assignee and report resolved by id.
type TaskView struct {
	Task
	Assignee *Staff         `json:"assignee,omitempty"`
	Report   *ReportSummary `json:"report,omitempty"`
}

type TaskQuery struct {
	Page       int
	Limit      int
	Search     string
	Priority   string
	Status     string
	AssigneeID *primitive.ObjectID
	ReportID   *primitive.ObjectID
}

type TaskStats struct {
	Total    int64          `json:"total"`
	Status   TaskStatusStat `json:"status"`
	Priority PriorityStat   `json:"priority"`
}

type TaskStatusStat struct {
	NotStarted int64 `json:"belum"`
	InProgress int64 `json:"sedang"`
	Done       int64 `json:"selesai"`
}

type PriorityStat struct {
	High   int64 `json:"tinggi"`
	Medium int64 `json:"sedang"`
	Low    int64 `json:"rendah"`
}
