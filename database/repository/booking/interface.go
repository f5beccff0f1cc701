package bookingRepo

import (
	"classbook/models"
	"context"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)

	// CountActive counts pending and confirmed bookings on a schedule.
	CountActive(ctx context.Context, scheduleID string) (int, error)
	// CountCouponUses counts confirmed bookings that redeemed couponID. When userID
	// or email is set, only bookings matching either of them are counted.
	CountCouponUses(ctx context.Context, couponID, userID, email string) (int, error)

	SetPaymentIntent(ctx context.Context, id, intentID string) error
	SetPaymentStatus(ctx context.Context, id, paymentStatus string) error
	// TransitionStatus moves a booking out of one of the from states and returns
	// the booking as it was just before the change. It returns nil when the
	// booking was no longer in any of them.
	TransitionStatus(ctx context.Context, id string, from []string, status, paymentStatus string) (*models.Booking, error)
	// UpdateSchedule moves an active booking from one schedule to another. It
	// reports false when the booking is no longer active on fromScheduleID.
	UpdateSchedule(ctx context.Context, id, fromScheduleID, toScheduleID string) (bool, error)

	EnsureIndexes(ctx context.Context) error
}
