package transactionRepo

import (
	"classbook/database"
	"classbook/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoTransactionRepo struct {
	coll *mongo.Collection
}

// NewMongoTransactionRepo returns a TransactionRepository backed by MongoDB.
func NewMongoTransactionRepo(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepo{coll: db.Collection("transactions")}
}

func (r *mongoTransactionRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}

// Append inserts a new transaction record and returns its ID.
func (r *mongoTransactionRepo) Append(ctx context.Context, tx models.Transaction) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, tx); err != nil {
		return "", fmt.Errorf("error appending %s transaction: %w", tx.Type, err)
	}
	return tx.ID, nil
}

// ListByBooking fetches all records associated with a booking in insertion order.
func (r *mongoTransactionRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.Transaction{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
