package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ReportsCollection       = "laporan"
	TasksCollection         = "tasks"
	StaffCollection         = "petugas"
	NotificationsCollection = "notifications"
)

// EnsureIndexes creates the indexes the repositories rely on. Task numbers are
// unique; report numbers are not (see ReportStore.NumberExists).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		TasksCollection: {
			{Keys: bson.D{{Key: "taskNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "laporan", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		ReportsCollection: {
			{Keys: bson.D{{Key: "nomor_laporan", Value: 1}}},
			{Keys: bson.D{{Key: "status_laporan", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		NotificationsCollection: {
			{Keys: bson.D{{Key: "recipientType", Value: 1}, {Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
