package models

import "time"

// Event types emitted by the booking engine.
const (
	EventBookingConfirmed   = "booking:confirmed"
	EventBookingCanceled    = "booking:canceled"
	EventBookingRescheduled = "booking:rescheduled"
	EventWaitlistOpen       = "waitlist:open"
	EventSalesReceipt       = "accounting:sales_receipt"
	EventClassReminder      = "reminder:send"
)

// Event is a side effect produced by a booking operation. Consumers must treat
// every field other than Type as optional.
type Event struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"bookingId,omitempty"`
	ScheduleID    string    `json:"scheduleId,omitempty"`
	OldScheduleID string    `json:"oldScheduleId,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	Email         string    `json:"email,omitempty"`
	Name          string    `json:"name,omitempty"`
	FireAt        time.Time `json:"fireAt,omitempty"`
}

// Message is a rendered notification ready for a delivery channel.
type Message struct {
	UserID string            `json:"userId,omitempty"`
	Email  string            `json:"email,omitempty"`
	Phone  string            `json:"phone,omitempty"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
