package waitlistRepo

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

// ErrAlreadyQueued is returned when the email is already on the schedule's waitlist.
var ErrAlreadyQueued = errors.New("already on the waitlist")

// MongoWaitlistRepo implements WaitlistRepository using MongoDB.
type MongoWaitlistRepo struct {
	coll *mongo.Collection
}

// NewMongoWaitlistRepo constructs a new instance of MongoWaitlistRepo.
func NewMongoWaitlistRepo(db *mongo.Database) *MongoWaitlistRepo {
	return &MongoWaitlistRepo{coll: db.Collection("waitlist")}
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoWaitlistRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "schedule_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "id", Value: 1}}},
		{Keys: bson.D{{Key: "schedule_id", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create waitlist indexes: %w", err)
	}
	return nil
}

// Enqueue appends an entry to a schedule's queue.
func (repo *MongoWaitlistRepo) Enqueue(ctx context.Context, entry *models.WaitlistEntry) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyQueued
		}
		return fmt.Errorf("error adding waitlist entry: %w", err)
	}
	return nil
}

// Exists reports whether email is already queued for the schedule.
func (repo *MongoWaitlistRepo) Exists(ctx context.Context, scheduleID, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	n, err := repo.coll.CountDocuments(ctx, bson.M{"schedule_id": scheduleID, "email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking waitlist: %w", err)
	}
	return n > 0, nil
}

// PopEarliest dequeues in FIFO order with FindOneAndDelete, so an entry is handed out once.
func (repo *MongoWaitlistRepo) PopEarliest(ctx context.Context, scheduleID string) (*models.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	opts := options.FindOneAndDelete().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}})

	var entry models.WaitlistEntry
	err := repo.coll.FindOneAndDelete(ctx, bson.M{"schedule_id": scheduleID}, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error popping waitlist for schedule %s: %w", scheduleID, err)
	}
	return &entry, nil
}
