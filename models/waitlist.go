package models

import "time"

// WaitlistEntry is a queued request for a seat on a full schedule.
type WaitlistEntry struct {
	ID         string    `bson:"id" json:"id"`
	ScheduleID string    `bson:"schedule_id" json:"schedule_id"`
	Email      string    `bson:"email" json:"email"`
	Name       string    `bson:"name,omitempty" json:"name,omitempty"`
	UserID     string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
