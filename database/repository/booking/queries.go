package bookingRepo

import (
	"classbook/database"
	"classbook/models"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// CountActive counts the seats held on a schedule by pending and confirmed bookings.
func (repo *MongoBookingRepo) CountActive(ctx context.Context, scheduleID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	filter := bson.M{
		"schedule_id": scheduleID,
		"status":      bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
	}
	n, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting bookings on schedule %s: %w", scheduleID, err)
	}
	return int(n), nil
}

// CountCouponUses counts confirmed redemptions of a coupon, optionally for one customer.
func (repo *MongoBookingRepo) CountCouponUses(ctx context.Context, couponID, userID, email string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()

	filter := bson.M{
		"coupon_id": couponID,
		"status":    models.BookingConfirmed,
	}
	var who bson.A
	if userID != "" {
		who = append(who, bson.M{"user_id": userID})
	}
	if email != "" {
		who = append(who, bson.M{"customer_email": email})
	}
	if len(who) > 0 {
		filter["$or"] = who
	}

	n, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting uses of coupon %s: %w", couponID, err)
	}
	return int(n), nil
}
