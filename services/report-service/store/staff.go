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

type StaffStore struct {
	coll *mongo.Collection
}

func NewStaffStore(db *mongo.Database) *StaffStore {
	return &StaffStore{coll: db.Collection(StaffCollection)}
}

func (s *StaffStore) Insert(ctx context.Context, st *models.Staff) error {
	if st.ID.IsZero() {
		st.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, st)
	return translate(err)
}

func (s *StaffStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Staff, error) {
	var st models.Staff
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *StaffStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Staff, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	var staff []models.Staff
	if err := cursor.All(ctx, &staff); err != nil {
		return nil, fmt.Errorf("failed to decode staff: %w", err)
	}
	return staff, nil
}

func (s *StaffStore) List(ctx context.Context, q models.StaffQuery) ([]models.Staff, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, staffFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	staff := []models.Staff{}
	if err := cursor.All(ctx, &staff); err != nil {
		return nil, fmt.Errorf("failed to decode staff: %w", err)
	}
	return staff, nil
}

func staffUpdateSet(u models.StaffUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.Department != nil {
		set["department"] = *u.Department
	}
	if u.AvatarURL != nil {
		set["avatarUrl"] = *u.AvatarURL
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}
	if u.Skills != nil {
		set["skills"] = u.Skills
	}
	if u.MaxCapacity != nil {
		set["maxCapacity"] = *u.MaxCapacity
	}
	return set
}

func (s *StaffStore) Update(ctx context.Context, id primitive.ObjectID, u models.StaffUpdate) (*models.Staff, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var st models.Staff
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": staffUpdateSet(u)}, opts).Decode(&st)
	if err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

// ToggleActive flips isActive server-side in a single update.
func (s *StaffStore) ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Staff, error) {
	update := bson.A{
		bson.M{"$set": bson.M{
			"isActive":  bson.M{"$not": bson.A{"$isActive"}},
			"updatedAt": "$$NOW",
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var st models.Staff
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&st); err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

// AdjustLoad applies delta to currentLoad with a single $inc. Decrements are
// guarded so the counter never drops below zero; a decrement on a counter
// that is already zero is a no-op.
func (s *StaffStore) AdjustLoad(ctx context.Context, id primitive.ObjectID, delta int) error {
	if delta == 0 {
		return nil
	}

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["currentLoad"] = bson.M{"$gte": -delta}
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"currentLoad": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Either the staff member is gone or the decrement would go negative.
	res, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "currentLoad": bson.M{"$lt": -delta}},
		bson.M{"$set": bson.M{"currentLoad": 0, "updatedAt": time.Now()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *StaffStore) SetLoad(ctx context.Context, id primitive.ObjectID, load int) error {
	if load < 0 {
		load = 0
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"currentLoad": load, "updatedAt": time.Now()}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
