package notification

import (
	"context"
	"errors"

	"classbook/models"

	"go.uber.org/zap"
)

// Notifier delivers booking lifecycle notifications to a customer.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *models.Booking, sc *models.Schedule) error
	BookingCanceled(ctx context.Context, b *models.Booking, sc *models.Schedule) error
	BookingRescheduled(ctx context.Context, b *models.Booking, from, to *models.Schedule) error
	WaitlistOpen(ctx context.Context, entry *models.WaitlistEntry, sc *models.Schedule) error
	ClassReminder(ctx context.Context, b *models.Booking, sc *models.Schedule) error
}

// Channel is one delivery route (email, SMS, push).
type Channel interface {
	Name() string
	// Send returns ErrNoRecipient when the message has no address for this channel.
	Send(ctx context.Context, msg models.Message) error
}

var ErrNoRecipient = errors.New("no recipient for channel")

// MultiNotifier renders each notification once and fans it out to every channel.
// A failing channel is logged and does not stop the others.
type MultiNotifier struct {
	channels []Channel
	logger   *zap.Logger
}

func NewMultiNotifier(logger *zap.Logger, channels ...Channel) *MultiNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	var active []Channel
	for _, ch := range channels {
		if ch != nil {
			active = append(active, ch)
		}
	}
	return &MultiNotifier{channels: active, logger: logger}
}

func (n *MultiNotifier) BookingConfirmed(ctx context.Context, b *models.Booking, sc *models.Schedule) error {
	n.dispatch(ctx, "booking_confirmed", renderConfirmed(b, sc))
	return nil
}

func (n *MultiNotifier) BookingCanceled(ctx context.Context, b *models.Booking, sc *models.Schedule) error {
	n.dispatch(ctx, "booking_canceled", renderCanceled(b, sc))
	return nil
}

func (n *MultiNotifier) BookingRescheduled(ctx context.Context, b *models.Booking, from, to *models.Schedule) error {
	n.dispatch(ctx, "booking_rescheduled", renderRescheduled(b, from, to))
	return nil
}

func (n *MultiNotifier) WaitlistOpen(ctx context.Context, entry *models.WaitlistEntry, sc *models.Schedule) error {
	n.dispatch(ctx, "waitlist_open", renderWaitlistOpen(entry, sc))
	return nil
}

func (n *MultiNotifier) ClassReminder(ctx context.Context, b *models.Booking, sc *models.Schedule) error {
	n.dispatch(ctx, "class_reminder", renderReminder(b, sc))
	return nil
}

func (n *MultiNotifier) dispatch(ctx context.Context, kind string, msg models.Message) {
	if msg.Data == nil {
		msg.Data = map[string]string{}
	}
	msg.Data["type"] = kind

	for _, ch := range n.channels {
		err := ch.Send(ctx, msg)
		switch {
		case errors.Is(err, ErrNoRecipient):
			n.logger.Debug("Notification skipped", zap.String("channel", ch.Name()), zap.String("type", kind))
		case err != nil:
			n.logger.Warn("Notification delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("type", kind),
				zap.Error(err))
		default:
			n.logger.Info("Notification sent", zap.String("channel", ch.Name()), zap.String("type", kind))
		}
	}
}
