package store

import (
	"context"
	"fmt"

	"lapordesa/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskStore struct {
	coll *mongo.Collection
}

func NewTaskStore(db *mongo.Database) *TaskStore {
	return &TaskStore{coll: db.Collection(TasksCollection)}
}

func (s *TaskStore) Insert(ctx context.Context, t *models.Task) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, t)
	return translate(err)
}

func (s *TaskStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *TaskStore) NumberExists(ctx context.Context, number string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"taskNumber": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Replace writes the whole task document.
func (s *TaskStore) Replace(ctx context.Context, t *models.Task) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task and returns the document as it was.
func (s *TaskStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *TaskStore) CountByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"laporan": reportID})
}

func (s *TaskStore) List(ctx context.Context, q models.TaskQuery) ([]models.Task, int64, error) {
	filter := taskFilter(q)
	page, limit := NormalizePage(q.Page, q.Limit, DefaultTaskLimit)

	opts := options.Find().
		SetSort(taskSort).
		SetSkip(Skip(page, limit)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tasks: %w", err)
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskStore) Stats(ctx context.Context) (models.TaskStats, error) {
	var stats models.TaskStats

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"status":   bson.A{bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
			"priority": bson.A{bson.M{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate tasks: %w", err)
	}

	type bucket struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	var rows []struct {
		Status   []bucket `bson:"status"`
		Priority []bucket `bson:"priority"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, fmt.Errorf("failed to read aggregation: %w", err)
	}
	if len(rows) == 0 {
		return stats, nil
	}

	for _, b := range rows[0].Status {
		stats.Total += b.Count
		switch b.Key {
		case models.TaskNotStarted:
			stats.Status.NotStarted = b.Count
		case models.TaskInProgress:
			stats.Status.InProgress = b.Count
		case models.TaskDone:
			stats.Status.Done = b.Count
		}
	}
	for _, b := range rows[0].Priority {
		switch b.Key {
		case models.PriorityHigh:
			stats.Priority.High = b.Count
		case models.PriorityMedium:
			stats.Priority.Medium = b.Count
		case models.PriorityLow:
			stats.Priority.Low = b.Count
		}
	}
	return stats, nil
}

// LoadByAssignee counts tasks per assignee.
func (s *TaskStore) LoadByAssignee(ctx context.Context) (map[primitive.ObjectID]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$assignedTo", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks: %w", err)
	}
	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to read aggregation: %w", err)
	}
	out := make(map[primitive.ObjectID]int, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}

// ReportIDs returns the distinct reports referenced by any task.
func (s *TaskStore) ReportIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := s.coll.Distinct(ctx, "laporan", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list task reports: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
