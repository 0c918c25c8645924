package store

import (
	"context"
	"fmt"
	"time"

	"lapordesa/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationStore struct {
	coll *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) *NotificationStore {
	return &NotificationStore{coll: db.Collection(NotificationsCollection)}
}

func recipientFilter(recipientType string, recipientID *primitive.ObjectID) bson.M {
	filter := bson.M{}
	if recipientType != "" {
		filter["recipientType"] = recipientType
	}
	if recipientID != nil {
		filter["recipient"] = *recipientID
	}
	return filter
}

func (s *NotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, n)
	return translate(err)
}

func (s *NotificationStore) List(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error) {
	limit := q.Limit
	if limit < 1 {
		limit = models.DefaultNotificationLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, notificationFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now()}}
	var n models.Notification
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&n); err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientType string, recipientID *primitive.ObjectID) (int64, error) {
	filter := recipientFilter(recipientType, recipientID)
	filter["isRead"] = false
	res, err := s.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, recipientType string, recipientID *primitive.ObjectID) (int64, error) {
	filter := recipientFilter(recipientType, recipientID)
	filter["isRead"] = false
	return s.coll.CountDocuments(ctx, filter)
}
