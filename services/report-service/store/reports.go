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

type ReportStore struct {
	coll *mongo.Collection
}

func NewReportStore(db *mongo.Database) *ReportStore {
	return &ReportStore{coll: db.Collection(ReportsCollection)}
}

func (s *ReportStore) Insert(ctx context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, r)
	return translate(err)
}

func (s *ReportStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// FindByNumber returns the oldest report carrying number.
func (s *ReportStore) FindByNumber(ctx context.Context, number string) (*models.Report, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	var r models.Report
	if err := s.coll.FindOne(ctx, bson.M{"nomor_laporan": number}, opts).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *ReportStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

// NumberExists is a point-in-time check. Without a unique index two
// concurrent submissions can still receive the same number.
func (s *ReportStore) NumberExists(ctx context.Context, number string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"nomor_laporan": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ReportStore) List(ctx context.Context, q models.ReportQuery) ([]models.Report, int64, error) {
	filter := reportFilter(q)
	page, limit := NormalizePage(q.Page, q.Limit, DefaultReportLimit)

	opts := options.Find().
		SetSort(reportSort(q)).
		SetSkip(Skip(page, limit)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reports: %w", err)
	}
	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reports: %w", err)
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return reports, total, nil
}

// UpdateStatus sets the status and, when comment is non-nil, the admin comment.
func (s *ReportStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, comment *string) (*models.Report, error) {
	set := bson.M{
		"status_laporan": status,
		"updatedAt":      time.Now(),
	}
	if comment != nil {
		set["komentar"] = *comment
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&r)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *ReportStore) IDsByStatus(ctx context.Context, status string) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.coll.Find(ctx, bson.M{"status_laporan": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (s *ReportStore) Stats(ctx context.Context) (models.ReportStats, error) {
	stats := models.ReportStats{ByCategory: map[string]int64{}}

	byStatus, err := s.groupCount(ctx, "$status_laporan")
	if err != nil {
		return stats, err
	}
	for status, n := range byStatus {
		stats.Total += n
		switch status {
		case models.ReportPending:
			stats.ByStatus.Pending = n
		case models.ReportInProgress:
			stats.ByStatus.InProgress = n
		case models.ReportCompleted:
			stats.ByStatus.Completed = n
		}
	}

	byCategory, err := s.groupCount(ctx, "$kategori_ai")
	if err != nil {
		return stats, err
	}
	for category, n := range byCategory {
		stats.ByCategory[category] = n
	}
	return stats, nil
}

func (s *ReportStore) groupCount(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reports: %w", err)
	}
	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to read aggregation: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}
