package couponRepo

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

// ErrDuplicateCode is returned when a coupon code is already taken.
var ErrDuplicateCode = errors.New("coupon code already exists")

// MongoCouponRepo implements CouponRepository using MongoDB.
type MongoCouponRepo struct {
	coll *mongo.Collection
}

// NewMongoCouponRepo constructs a new instance of MongoCouponRepo.
func NewMongoCouponRepo(db *mongo.Database) *MongoCouponRepo {
	return &MongoCouponRepo{coll: db.Collection("coupons")}
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoCouponRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create coupon indexes: %w", err)
	}
	return nil
}

// Create inserts a coupon.
func (repo *MongoCouponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	_, err := repo.coll.InsertOne(ctx, coupon)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("error creating coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its normalized code.
func (repo *MongoCouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	var coupon models.Coupon
	err := repo.coll.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching coupon %q: %w", code, err)
	}
	return &coupon, nil
}
