package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"classbook/models"

	"github.com/hibiken/asynq"
)

// NewEventTask wraps a booking event as an asynq task. Events with a FireAt
// are held by the queue until that time.
func NewEventTask(event models.Event) (*asynq.Task, []asynq.Option, error) {
	if event.Type == "" {
		return nil, nil, fmt.Errorf("event type is required")
	}
	b, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(event.Type, b)
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.Timeout(30 * time.Second)}

	if !event.FireAt.IsZero() {
		opts = append(opts, asynq.ProcessAt(event.FireAt))
	}
	if event.Type == models.EventClassReminder {
		// one reminder per booking and schedule, so a reschedule back and forth does not double up
		opts = append(opts, asynq.TaskID(fmt.Sprintf("reminder:%s:%s", event.BookingID, event.ScheduleID)))
	}
	return task, opts, nil
}

// ParseEvent decodes the payload of a task built by NewEventTask.
func ParseEvent(task *asynq.Task) (models.Event, error) {
	var e models.Event
	if err := json.Unmarshal(task.Payload(), &e); err != nil {
		return e, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	if e.Type == "" {
		e.Type = task.Type()
	}
	return e, nil
}
