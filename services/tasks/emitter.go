package tasks

import (
	"context"
	"errors"

	"classbook/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the subset of *asynq.Client used by the emitter.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqEmitter publishes booking events onto the task queue.
type AsynqEmitter struct {
	queue  Enqueuer
	logger *zap.Logger
}

func NewAsynqEmitter(queue Enqueuer, logger *zap.Logger) *AsynqEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqEmitter{queue: queue, logger: logger}
}

func (e *AsynqEmitter) Emit(ctx context.Context, event models.Event) error {
	task, opts, err := NewEventTask(event)
	if err != nil {
		return err
	}
	info, err := e.queue.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		e.logger.Debug("Event already queued", zap.String("type", event.Type), zap.String("bookingID", event.BookingID))
		return nil
	}
	if err != nil {
		return err
	}
	e.logger.Debug("Event queued",
		zap.String("type", event.Type),
		zap.String("taskID", info.ID),
		zap.String("queue", info.Queue))
	return nil
}
