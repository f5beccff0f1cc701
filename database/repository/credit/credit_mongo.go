package creditRepo

import (
	"classbook/database"
	"classbook/models"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCreditRepo implements CreditRepository using MongoDB.
type MongoCreditRepo struct {
	coll *mongo.Collection
}

// NewMongoCreditRepo constructs a new instance of MongoCreditRepo.
func NewMongoCreditRepo(db *mongo.Database) *MongoCreditRepo {
	return &MongoCreditRepo{coll: db.Collection("credit_packages")}
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoCreditRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "expires_sort", Value: 1}, {Key: "created_at", Value: 1}, {Key: "id", Value: 1}}},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create credit indexes: %w", err)
	}
	return nil
}

// usable matches the user's packages with credit left that have not expired.
func usable(userID string, now time.Time) bson.M {
	return bson.M{
		"user_id":           userID,
		"credits_remaining": bson.M{"$gt": 0},
		"expires_sort":      bson.M{"$gt": now},
	}
}

// Insert stores a newly granted package.
func (repo *MongoCreditRepo) Insert(ctx context.Context, pkg *models.CreditPackage) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, pkg); err != nil {
		return fmt.Errorf("error inserting credit package: %w", err)
	}
	return nil
}

// SumRemaining aggregates the usable balance for a user.
func (repo *MongoCreditRepo) SumRemaining(ctx context.Context, userID string, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: usable(userID, now)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$credits_remaining"}}},
		}}},
	}
	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("error summing credits for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("error decoding credit sum: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// ConsumeOne is a single FindOneAndUpdate guarded by credits_remaining > 0.
// Two callers racing for the last credit cannot both match the same document.
func (repo *MongoCreditRepo) ConsumeOne(ctx context.Context, userID string, now time.Time) (*models.CreditPackage, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "expires_sort", Value: 1}, {Key: "created_at", Value: 1}, {Key: "id", Value: 1}}).
		SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"credits_remaining": -1}}

	var pkg models.CreditPackage
	err := repo.coll.FindOneAndUpdate(ctx, usable(userID, now), update, opts).Decode(&pkg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error consuming credit for user %s: %w", userID, err)
	}
	return &pkg, nil
}

// ListByUser returns every package of a user, soonest expiry first.
func (repo *MongoCreditRepo) ListByUser(ctx context.Context, userID string) ([]models.CreditPackage, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "expires_sort", Value: 1}, {Key: "created_at", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing credit packages for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	packages := []models.CreditPackage{}
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, fmt.Errorf("error decoding credit packages: %w", err)
	}
	return packages, nil
}
