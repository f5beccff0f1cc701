package scheduleRepo

import (
	"classbook/models"
	"context"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	// ReserveSeat increments the booked counter only while it is below capacity.
	// It reports false when the schedule is full or missing.
	ReserveSeat(ctx context.Context, id string) (bool, error)
	ReleaseSeat(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}
