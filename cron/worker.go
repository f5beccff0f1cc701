package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classbook/database"
	bookingRepo "classbook/database/repository/booking"
	scheduleRepo "classbook/database/repository/schedule"
	"classbook/models"
	"classbook/services/accounting"
	"classbook/services/notification"
	"classbook/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EventWorker consumes the booking events queued by the booking service.
type EventWorker struct {
	Bookings   bookingRepo.BookingRepository
	Schedules  scheduleRepo.ScheduleRepository
	Notifier   notification.Notifier
	Accounting accounting.Syncer
	Logger     *zap.Logger
}

func NewEventWorker(bookings bookingRepo.BookingRepository, schedules scheduleRepo.ScheduleRepository,
	notifier notification.Notifier, syncer accounting.Syncer, logger *zap.Logger) *EventWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventWorker{
		Bookings:   bookings,
		Schedules:  schedules,
		Notifier:   notifier,
		Accounting: syncer,
		Logger:     logger,
	}
}

// Mux routes every event type to the worker.
func (w *EventWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, t := range []string{
		models.EventBookingConfirmed,
		models.EventBookingCanceled,
		models.EventBookingRescheduled,
		models.EventWaitlistOpen,
		models.EventSalesReceipt,
		models.EventClassReminder,
	} {
		mux.HandleFunc(t, w.ProcessTask)
	}
	return mux
}

// ProcessTask handles one queued event. Events that can never succeed, such as
// ones pointing at a deleted booking, are not retried.
func (w *EventWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ev, err := tasks.ParseEvent(task)
	if err != nil {
		w.Logger.Error("Invalid event payload", zap.String("type", task.Type()), zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.handle(ctx, ev)
	if errors.Is(err, database.ErrNotFound) {
		w.Logger.Warn("Event references missing record",
			zap.String("type", ev.Type),
			zap.String("bookingID", ev.BookingID),
			zap.String("scheduleID", ev.ScheduleID))
		return fmt.Errorf("%s: %v: %w", ev.Type, err, asynq.SkipRetry)
	}
	if err != nil {
		w.Logger.Error("Event handling failed", zap.String("type", ev.Type), zap.String("bookingID", ev.BookingID), zap.Error(err))
	}
	return err
}

func (w *EventWorker) handle(ctx context.Context, ev models.Event) error {
	switch ev.Type {
	case models.EventBookingConfirmed:
		b, sc, err := w.load(ctx, ev.BookingID, ev.ScheduleID)
		if err != nil {
			return err
		}
		return w.Notifier.BookingConfirmed(ctx, b, sc)

	case models.EventBookingCanceled:
		b, sc, err := w.load(ctx, ev.BookingID, ev.ScheduleID)
		if err != nil {
			return err
		}
		return w.Notifier.BookingCanceled(ctx, b, sc)

	case models.EventBookingRescheduled:
		b, to, err := w.load(ctx, ev.BookingID, ev.ScheduleID)
		if err != nil {
			return err
		}
		from, err := w.Schedules.GetByID(ctx, ev.OldScheduleID)
		if err != nil {
			return err
		}
		return w.Notifier.BookingRescheduled(ctx, b, from, to)

	case models.EventWaitlistOpen:
		sc, err := w.Schedules.GetByID(ctx, ev.ScheduleID)
		if err != nil {
			return err
		}
		entry := &models.WaitlistEntry{
			ScheduleID: ev.ScheduleID,
			Email:      ev.Email,
			Name:       ev.Name,
			UserID:     ev.UserID,
		}
		return w.Notifier.WaitlistOpen(ctx, entry, sc)

	case models.EventSalesReceipt:
		if w.Accounting == nil {
			return nil
		}
		b, err := w.Bookings.GetByID(ctx, ev.BookingID)
		if err != nil {
			return err
		}
		return w.Accounting.SalesReceipt(ctx, b)

	case models.EventClassReminder:
		b, err := w.Bookings.GetByID(ctx, ev.BookingID)
		if err != nil {
			return err
		}
		if !b.IsActive() || b.ScheduleID != ev.ScheduleID {
			w.Logger.Info("Reminder dropped, booking no longer on schedule",
				zap.String("bookingID", b.ID),
				zap.String("status", b.Status),
				zap.String("scheduleID", ev.ScheduleID))
			return nil
		}
		sc, err := w.Schedules.GetByID(ctx, b.ScheduleID)
		if err != nil {
			return err
		}
		return w.Notifier.ClassReminder(ctx, b, sc)
	}

	w.Logger.Warn("Unknown event type", zap.String("type", ev.Type))
	return nil
}

func (w *EventWorker) load(ctx context.Context, bookingID, scheduleID string) (*models.Booking, *models.Schedule, error) {
	b, err := w.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if scheduleID == "" {
		scheduleID = b.ScheduleID
	}
	sc, err := w.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, nil, err
	}
	return b, sc, nil
}

// StartEventWorker runs the asynq server in the background and returns it so
// the caller can shut it down.
func StartEventWorker(ctx context.Context, redisOpt asynq.RedisClientOpt, w *EventWorker) *asynq.Server {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: w.Logger.Sugar(),
		},
	)
	mux := w.Mux()

	go monitorRedisConnection(ctx, redisOpt, w.Logger)

	go func() {
		w.Logger.Info("Starting event worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			w.Logger.Error("Event worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				w.Logger.Fatal("Event worker gave up after max retry attempts")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

// monitorRedisConnection pings the queue database periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, redisOpt asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisOpt.Addr,
		Password: redisOpt.Password,
		DB:       redisOpt.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
