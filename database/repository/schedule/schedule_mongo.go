package scheduleRepo

import (
	"classbook/database"
	"classbook/models"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScheduleRepo implements ScheduleRepository using MongoDB.
type MongoScheduleRepo struct {
	coll *mongo.Collection
}

// NewMongoScheduleRepo constructs a new instance of MongoScheduleRepo.
func NewMongoScheduleRepo(db *mongo.Database) *MongoScheduleRepo {
	return &MongoScheduleRepo{coll: db.Collection("schedules")}
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoScheduleRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "start_time", Value: 1}}},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create schedule indexes: %w", err)
	}
	return nil
}

// Create inserts a new schedule document.
func (repo *MongoScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, schedule); err != nil {
		return fmt.Errorf("error creating schedule: %w", err)
	}
	return nil
}

// GetByID retrieves a schedule by its ID.
func (repo *MongoScheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	var schedule models.Schedule
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&schedule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching schedule %s: %w", id, err)
	}
	return &schedule, nil
}

// ReserveSeat takes one seat with a single conditional update, so concurrent
// callers can never push booked past capacity.
func (repo *MongoScheduleRepo) ReserveSeat(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	filter := bson.M{
		"id":    id,
		"$expr": bson.M{"$lt": bson.A{"$booked", "$capacity"}},
	}
	update := bson.M{"$inc": bson.M{"booked": 1}}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error reserving seat on schedule %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseSeat gives a seat back. The counter never goes below zero.
func (repo *MongoScheduleRepo) ReleaseSeat(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	filter := bson.M{"id": id, "booked": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"booked": -1}}

	if _, err := repo.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("error releasing seat on schedule %s: %w", id, err)
	}
	return nil
}
