package waitlistRepo

import (
	"classbook/models"
	"context"
)

type WaitlistRepository interface {
	Enqueue(ctx context.Context, entry *models.WaitlistEntry) error
	Exists(ctx context.Context, scheduleID, email string) (bool, error)
	// PopEarliest removes and returns the oldest entry for a schedule, or nil when the queue is empty.
	PopEarliest(ctx context.Context, scheduleID string) (*models.WaitlistEntry, error)
	EnsureIndexes(ctx context.Context) error
}
