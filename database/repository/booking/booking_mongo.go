package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{coll: db.Collection("bookings")}
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "schedule_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "coupon_id", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "payment_intent_id", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{"payment_intent_id": bson.M{"$type": "string"}}),
		},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return repo.findOne(ctx, bson.M{"id": id})
}

// GetByPaymentIntent retrieves the booking a payment intent was created for.
func (repo *MongoBookingRepo) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Booking, error) {
	return repo.findOne(ctx, bson.M{"payment_intent_id": intentID})
}

func (repo *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctx, filter).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking: %w", err)
	}
	return &booking, nil
}

// ListByUser returns a user's bookings, newest first.
func (repo *MongoBookingRepo) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// SetPaymentIntent records the gateway intent created for a booking.
func (repo *MongoBookingRepo) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	return repo.set(ctx, id, bson.M{"payment_intent_id": intentID})
}

// SetPaymentStatus overwrites payment_status without touching the booking status.
func (repo *MongoBookingRepo) SetPaymentStatus(ctx context.Context, id, paymentStatus string) error {
	return repo.set(ctx, id, bson.M{"payment_status": paymentStatus})
}

// UpdateSchedule is a compare-and-set on schedule_id, limited to active bookings.
func (repo *MongoBookingRepo) UpdateSchedule(ctx context.Context, id, fromScheduleID, toScheduleID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	filter := bson.M{
		"id":          id,
		"schedule_id": fromScheduleID,
		"status":      bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
	}
	update := bson.M{"$set": bson.M{"schedule_id": toScheduleID, "updated_at": time.Now().UTC()}}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error moving booking %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (repo *MongoBookingRepo) set(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// TransitionStatus is a compare-and-set on the booking status. The returned
// pre-image tells the caller which schedule the booking held when it won.
func (repo *MongoBookingRepo) TransitionStatus(ctx context.Context, id string, from []string, status, paymentStatus string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if paymentStatus != "" {
		set["payment_status"] = paymentStatus
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var prev models.Booking
	err := repo.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error updating status of booking %s: %w", id, err)
	}
	return &prev, nil
}
