package lifecycle

import (
	"context"

	"lapordesa/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repositories are satisfied by the MongoDB store and by memstore.

type ReportRepository interface {
	Insert(ctx context.Context, r *models.Report) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	FindByNumber(ctx context.Context, number string) (*models.Report, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Report, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, q models.ReportQuery) ([]models.Report, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, comment *string) (*models.Report, error)
	IDsByStatus(ctx context.Context, status string) ([]primitive.ObjectID, error)
	Stats(ctx context.Context) (models.ReportStats, error)
}

type TaskRepository interface {
	Insert(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	Replace(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	CountByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error)
	List(ctx context.Context, q models.TaskQuery) ([]models.Task, int64, error)
	Stats(ctx context.Context) (models.TaskStats, error)
	LoadByAssignee(ctx context.Context) (map[primitive.ObjectID]int, error)
	ReportIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type StaffRepository interface {
	Insert(ctx context.Context, s *models.Staff) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Staff, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Staff, error)
	List(ctx context.Context, q models.StaffQuery) ([]models.Staff, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.StaffUpdate) (*models.Staff, error)
	ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Staff, error)
	// AdjustLoad must be a single atomic write that never stores a value below 0.
	AdjustLoad(ctx context.Context, id primitive.ObjectID, delta int) error
	SetLoad(ctx context.Context, id primitive.ObjectID, load int) error
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientType string, recipientID *primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, recipientType string, recipientID *primitive.ObjectID) (int64, error)
}

// Transactor groups multi-document writes. When Atomic is false the service
// falls back to compensating writes.
type Transactor interface {
	Atomic() bool
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BlobStore interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}
