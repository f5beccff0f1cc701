package repository

import (
	"context"

	bookingRepo "classbook/database/repository/booking"
	couponRepo "classbook/database/repository/coupon"
	creditRepo "classbook/database/repository/credit"
	scheduleRepo "classbook/database/repository/schedule"
	transactionRepo "classbook/database/repository/transaction"
	waitlistRepo "classbook/database/repository/waitlist"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces.
type ScheduleRepository = scheduleRepo.ScheduleRepository

type BookingRepository = bookingRepo.BookingRepository

type CreditRepository = creditRepo.CreditRepository

type CouponRepository = couponRepo.CouponRepository

type WaitlistRepository = waitlistRepo.WaitlistRepository

type TransactionRepository = transactionRepo.TransactionRepository

// Set bundles every repository the booking engine needs.
type Set struct {
	Schedules    ScheduleRepository
	Bookings     BookingRepository
	Credits      CreditRepository
	Coupons      CouponRepository
	Waitlist     WaitlistRepository
	Transactions TransactionRepository
}

// NewMongoSet builds all Mongo repositories on db.
func NewMongoSet(db *mongo.Database) *Set {
	return &Set{
		Schedules:    scheduleRepo.NewMongoScheduleRepo(db),
		Bookings:     bookingRepo.NewMongoBookingRepo(db),
		Credits:      creditRepo.NewMongoCreditRepo(db),
		Coupons:      couponRepo.NewMongoCouponRepo(db),
		Waitlist:     waitlistRepo.NewMongoWaitlistRepo(db),
		Transactions: transactionRepo.NewMongoTransactionRepo(db),
	}
}

// EnsureIndexes creates the indexes of every collection.
func (s *Set) EnsureIndexes(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		s.Schedules.EnsureIndexes,
		s.Bookings.EnsureIndexes,
		s.Credits.EnsureIndexes,
		s.Coupons.EnsureIndexes,
		s.Waitlist.EnsureIndexes,
		s.Transactions.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}
