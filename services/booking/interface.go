package booking

import (
	"context"

	"classbook/models"
)

// BookingService is the booking lifecycle: admission, payment, cancellation,
// rescheduling and waitlist promotion.
type BookingService interface {
	Book(ctx context.Context, scheduleID string, customer Customer, useCredits bool) (*BookResult, error)
	CreatePaymentIntent(ctx context.Context, bookingID, paymentMethod, name, email string) (*IntentResult, error)
	ConfirmPayment(ctx context.Context, intentID string) (*StatusResult, error)
	MarkPaymentFailed(ctx context.Context, intentID string) (*StatusResult, error)
	Cancel(ctx context.Context, bookingID, userID string) (*StatusResult, error)
	Reschedule(ctx context.Context, bookingID, userID, newScheduleID string) (*RescheduleResult, error)

	GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error)

	JoinWaitlist(ctx context.Context, req WaitlistRequest) (*models.WaitlistEntry, error)
	PromoteWaitlist(ctx context.Context, scheduleID string) (*models.WaitlistEntry, error)
}

// EventEmitter hands side effects to the outbox. Callers log emission errors
// and never fail the operation because of them.
type EventEmitter interface {
	Emit(ctx context.Context, event models.Event) error
}

// CouponValidator looks coupons up and prices them against a schedule.
type CouponValidator interface {
	Lookup(ctx context.Context, code string) (*models.Coupon, error)
	Validate(ctx context.Context, c *models.Coupon, sc *models.Schedule, userID, email string, amountCents int64) (int64, error)
}

// Customer identifies who is booking. UserID is empty for guests.
type Customer struct {
	UserID     string
	Email      string
	Name       string
	Phone      string
	CouponCode string
}

type BookResult struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type IntentResult struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
}

type StatusResult struct {
	Status string `json:"status"`
}

type RescheduleResult struct {
	Status     string `json:"status"`
	ScheduleID string `json:"schedule_id"`
}

type WaitlistRequest struct {
	ScheduleID string
	Email      string
	Name       string
	UserID     string
}
