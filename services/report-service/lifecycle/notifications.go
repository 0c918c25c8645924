package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CreateNotificationInput struct {
	Title         string
	Message       string
	Type          string
	RecipientType string
	RecipientID   string
	TaskID        string
	ReportID      string
	Metadata      map[string]interface{}
}

func (s *Service) CreateNotification(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, validationError("message is required")
	}
	n := &models.Notification{
		Title:         strings.TrimSpace(in.Title),
		Message:       message,
		Type:          in.Type,
		RecipientType: in.RecipientType,
		Metadata:      in.Metadata,
	}
	if n.Type == "" {
		n.Type = models.NotificationTask
	}
	if n.RecipientType == "" {
		n.RecipientType = models.RecipientStaff
	}
	if !models.ValidNotificationType(n.Type) {
		return nil, validationError("notificationType must be task, system or laporan")
	}
	if !models.ValidRecipientType(n.RecipientType) {
		return nil, validationError("recipientType must be admin or petugas")
	}

	var err error
	if n.RecipientID, err = parseOptionalID(in.RecipientID); err != nil {
		return nil, err
	}
	if n.TaskID, err = parseOptionalID(in.TaskID); err != nil {
		return nil, err
	}
	if n.ReportID, err = parseOptionalID(in.ReportID); err != nil {
		return nil, err
	}

	if err := s.storeNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// storeNotification persists n and publishes it for live delivery.
func (s *Service) storeNotification(ctx context.Context, n *models.Notification) error {
	now := s.now()
	n.CreatedAt = now
	n.UpdatedAt = now
	if err := s.notifications.Insert(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	s.publish(ctx, queue.KeyNotificationCreated, n.Event())
	return nil
}

// notifyAssignee never fails the calling operation.
func (s *Service) notifyAssignee(ctx context.Context, task *models.Task, title, message string) {
	assignee := task.AssigneeID
	taskID := task.ID
	reportID := task.ReportID
	n := &models.Notification{
		Title:         title,
		Message:       message,
		Type:          models.NotificationTask,
		RecipientType: models.RecipientStaff,
		RecipientID:   &assignee,
		TaskID:        &taskID,
		ReportID:      &reportID,
	}
	if err := s.storeNotification(ctx, n); err != nil {
		s.logger.Warn("[WARN] Failed to notify assignee",
			zap.String("task_id", task.ID.Hex()), zap.Error(err))
	}
}

type NotificationFilter struct {
	RecipientType string
	RecipientID   string
	IsRead        *bool
	Limit         int
}

func (s *Service) ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error) {
	recipientID, err := s.recipient(f.RecipientType, f.RecipientID)
	if err != nil {
		return nil, err
	}
	list, err := s.notifications.List(ctx, models.NotificationQuery{
		RecipientType: f.RecipientType,
		RecipientID:   recipientID,
		IsRead:        f.IsRead,
		Limit:         f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) (*models.Notification, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	n, err := s.notifications.MarkRead(ctx, oid)
	if err != nil {
		return nil, notFound(err, ErrNotificationNotFound, "failed to mark notification read")
	}
	return n, nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, recipientType, recipientID string) (int64, error) {
	rid, err := s.recipient(recipientType, recipientID)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.MarkAllRead(ctx, recipientType, rid)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientType, recipientID string) (int64, error) {
	rid, err := s.recipient(recipientType, recipientID)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.CountUnread(ctx, recipientType, rid)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (s *Service) recipient(recipientType, recipientID string) (*primitive.ObjectID, error) {
	if recipientType != "" && !models.ValidRecipientType(recipientType) {
		return nil, validationError("recipientType must be admin or petugas")
	}
	return parseOptionalID(recipientID)
}
