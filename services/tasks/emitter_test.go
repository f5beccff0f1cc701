package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"classbook/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (q *recordingQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	q.opts = append(q.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Queue: "default"}, nil
}

func optionTypes(opts []asynq.Option) []asynq.OptionType {
	var out []asynq.OptionType
	for _, o := range opts {
		out = append(out, o.Type())
	}
	return out
}

func TestEmit_RoundTripsEvent(t *testing.T) {
	q := &recordingQueue{}
	em := NewAsynqEmitter(q, nil)

	ev := models.Event{Type: models.EventBookingConfirmed, BookingID: "b1", ScheduleID: "s1", Email: "a@b.c"}
	require.NoError(t, em.Emit(context.Background(), ev))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, models.EventBookingConfirmed, q.tasks[0].Type())
	assert.NotContains(t, optionTypes(q.opts[0]), asynq.ProcessAtOpt)

	got, err := ParseEvent(q.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestEmit_ReminderIsDelayedAndKeyed(t *testing.T) {
	q := &recordingQueue{}
	em := NewAsynqEmitter(q, nil)

	fireAt := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, em.Emit(context.Background(), models.Event{
		Type: models.EventClassReminder, BookingID: "b1", ScheduleID: "s1", FireAt: fireAt,
	}))

	types := optionTypes(q.opts[0])
	assert.Contains(t, types, asynq.ProcessAtOpt)
	assert.Contains(t, types, asynq.TaskIDOpt)
}

func TestEmit_DuplicateReminderIsNotAnError(t *testing.T) {
	em := NewAsynqEmitter(&recordingQueue{err: asynq.ErrTaskIDConflict}, nil)
	assert.NoError(t, em.Emit(context.Background(), models.Event{Type: models.EventClassReminder, BookingID: "b1"}))
}

func TestEmit_QueueError(t *testing.T) {
	em := NewAsynqEmitter(&recordingQueue{err: errors.New("redis down")}, nil)
	assert.Error(t, em.Emit(context.Background(), models.Event{Type: models.EventBookingCanceled}))
}

func TestEmit_RequiresType(t *testing.T) {
	em := NewAsynqEmitter(&recordingQueue{}, nil)
	assert.Error(t, em.Emit(context.Background(), models.Event{}))
}
