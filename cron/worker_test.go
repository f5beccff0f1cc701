package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	memoryRepo "classbook/database/repository/memory"
	"classbook/models"
	"classbook/services/accounting"
	"classbook/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	last  *models.Schedule
	from  *models.Schedule
	entry *models.WaitlistEntry
}

func (n *recordingNotifier) record(kind string, sc *models.Schedule) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, kind)
	n.last = sc
	return nil
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, _ *models.Booking, sc *models.Schedule) error {
	return n.record("confirmed", sc)
}

func (n *recordingNotifier) BookingCanceled(_ context.Context, _ *models.Booking, sc *models.Schedule) error {
	return n.record("canceled", sc)
}

func (n *recordingNotifier) BookingRescheduled(_ context.Context, _ *models.Booking, from, to *models.Schedule) error {
	n.from = from
	return n.record("rescheduled", to)
}

func (n *recordingNotifier) WaitlistOpen(_ context.Context, entry *models.WaitlistEntry, sc *models.Schedule) error {
	n.entry = entry
	return n.record("waitlist", sc)
}

func (n *recordingNotifier) ClassReminder(_ context.Context, _ *models.Booking, sc *models.Schedule) error {
	return n.record("reminder", sc)
}

type workerFixture struct {
	worker   *EventWorker
	store    *memoryRepo.Store
	notifier *recordingNotifier
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	store := memoryRepo.NewStore()
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	for _, id := range []string{"sch-1", "sch-2"} {
		require.NoError(t, store.Schedules().Create(ctx, &models.Schedule{
			ID: id, ClassName: "Yoga " + id, Capacity: 10, StartTime: start, Status: models.ScheduleScheduled,
		}))
	}
	require.NoError(t, store.Bookings().Create(ctx, &models.Booking{
		ID: "bk-1", ScheduleID: "sch-1", CustomerEmail: "a@example.com",
		Status: models.BookingConfirmed, PaymentStatus: models.PaymentPaid,
		AmountCents: 2500, Currency: "usd", PaymentIntentID: "pi_1",
	}))

	n := &recordingNotifier{}
	syncer := accounting.NewLedgerSyncer(store.Transactions(), zap.NewNop())
	return &workerFixture{
		worker:   NewEventWorker(store.Bookings(), store.Schedules(), n, syncer, zap.NewNop()),
		store:    store,
		notifier: n,
	}
}

func taskFor(t *testing.T, ev models.Event) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewEventTask(ev)
	require.NoError(t, err)
	return task
}

func TestWorkerNotifiesLifecycleEvents(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, models.Event{Type: models.EventBookingConfirmed, BookingID: "bk-1", ScheduleID: "sch-1"})))
	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, models.Event{Type: models.EventBookingCanceled, BookingID: "bk-1"})))
	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, models.Event{
		Type: models.EventBookingRescheduled, BookingID: "bk-1", ScheduleID: "sch-2", OldScheduleID: "sch-1",
	})))

	assert.Equal(t, []string{"confirmed", "canceled", "rescheduled"}, f.notifier.calls)
	assert.Equal(t, "sch-1", f.notifier.from.ID)
	assert.Equal(t, "sch-2", f.notifier.last.ID)
}

func TestWorkerWaitlistOpenBuildsEntryFromEvent(t *testing.T) {
	f := newWorkerFixture(t)
	err := f.worker.ProcessTask(context.Background(), taskFor(t, models.Event{
		Type: models.EventWaitlistOpen, ScheduleID: "sch-2", Email: "w@example.com", Name: "Wait",
	}))
	require.NoError(t, err)
	require.NotNil(t, f.notifier.entry)
	assert.Equal(t, "w@example.com", f.notifier.entry.Email)
	assert.Equal(t, "sch-2", f.notifier.last.ID)
}

func TestWorkerSalesReceiptIsRecordedOnce(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	ev := models.Event{Type: models.EventSalesReceipt, BookingID: "bk-1", ScheduleID: "sch-1"}

	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, ev)))
	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, ev)))

	txs, err := f.store.Transactions().ListByBooking(ctx, "bk-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxSalesReceipt, txs[0].Type)
	assert.Equal(t, int64(2500), txs[0].AmountCents)
}

func TestWorkerReminderSkipsMovedOrCanceledBookings(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	// booking is on sch-1, reminder was for sch-2
	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, models.Event{Type: models.EventClassReminder, BookingID: "bk-1", ScheduleID: "sch-2"})))
	assert.Empty(t, f.notifier.calls)

	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, models.Event{Type: models.EventClassReminder, BookingID: "bk-1", ScheduleID: "sch-1"})))
	assert.Equal(t, []string{"reminder"}, f.notifier.calls)

	prev, err := f.store.Bookings().TransitionStatus(ctx, "bk-1", []string{models.BookingConfirmed}, models.BookingCanceled, "")
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.NoError(t, f.worker.ProcessTask(ctx, taskFor(t, models.Event{Type: models.EventClassReminder, BookingID: "bk-1", ScheduleID: "sch-1"})))
	assert.Equal(t, []string{"reminder"}, f.notifier.calls)
}

func TestWorkerMissingBookingSkipsRetry(t *testing.T) {
	f := newWorkerFixture(t)
	err := f.worker.ProcessTask(context.Background(), taskFor(t, models.Event{Type: models.EventBookingConfirmed, BookingID: "nope"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorkerBadPayloadSkipsRetry(t *testing.T) {
	f := newWorkerFixture(t)
	err := f.worker.ProcessTask(context.Background(), asynq.NewTask(models.EventBookingConfirmed, []byte("{not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
