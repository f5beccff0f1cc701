package models

import "time"

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCanceled  = "canceled"
	BookingRefunded  = "refunded"
)

// Payment statuses.
const (
	PaymentRequired = "requires_payment"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Booking represents a seat held by a customer on a schedule.
type Booking struct {
	ID              string    `bson:"id" json:"id"`
	ScheduleID      string    `bson:"schedule_id" json:"schedule_id"`
	UserID          string    `bson:"user_id,omitempty" json:"user_id,omitempty"` // empty for guest bookings
	CustomerEmail   string    `bson:"customer_email" json:"customer_email"`
	CustomerName    string    `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	CustomerPhone   string    `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	Status          string    `bson:"status" json:"status"`
	PaymentIntentID string    `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	PaymentStatus   string    `bson:"payment_status" json:"payment_status"`
	CreditsUsed     int       `bson:"credits_used" json:"credits_used"` // 0 or 1
	AmountCents     int64     `bson:"amount_cents" json:"amount_cents"`
	DiscountCents   int64     `bson:"discount_cents" json:"discount_cents"`
	Currency        string    `bson:"currency" json:"currency"`
	CouponID        string    `bson:"coupon_id,omitempty" json:"coupon_id,omitempty"`
	CouponCode      string    `bson:"coupon_code,omitempty" json:"coupon_code,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the booking still holds a seat.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// IsTerminal reports whether the booking was canceled or refunded.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCanceled || b.Status == BookingRefunded
}
