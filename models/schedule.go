package models

import "time"

const (
	ScheduleScheduled = "scheduled"
	ScheduleCanceled  = "canceled"
)

// Schedule is a bookable occurrence of a class at a time and location.
type Schedule struct {
	ID           string    `bson:"id" json:"id"`
	ClassID      string    `bson:"class_id" json:"class_id"`
	ClassName    string    `bson:"class_name" json:"class_name"`
	InstructorID string    `bson:"instructor_id" json:"instructor_id"`
	LocationID   string    `bson:"location_id" json:"location_id"`
	ResourceID   string    `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Capacity     int       `bson:"capacity" json:"capacity"`
	Booked       int       `bson:"booked" json:"booked"` // reserved seats, maintained by the seat counter
	PriceCents   int64     `bson:"price_cents" json:"price_cents"`
	Currency     string    `bson:"currency" json:"currency"`
	StartTime    time.Time `bson:"start_time" json:"start_time"`
	EndTime      time.Time `bson:"end_time" json:"end_time"`
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
