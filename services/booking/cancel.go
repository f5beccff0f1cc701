package booking

import (
	"context"
	"fmt"

	"classbook/models"

	"go.uber.org/zap"
)

var activeStatuses = []string{models.BookingPending, models.BookingConfirmed}

// Cancel reverses a booking: a used credit comes back as a new package, a
// booking with a card payment intent is refunded. Canceling a canceled or
// refunded booking returns its status and does nothing else.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, userID string) (*StatusResult, error) {
	b, err := s.loadOwnedBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if b.IsTerminal() {
		return &StatusResult{Status: b.Status}, nil
	}

	sc, err := s.loadSchedule(ctx, b.ScheduleID)
	if err != nil {
		return nil, err
	}
	if s.pastDeadline(sc.StartTime, s.policy.CancellationWindowHours) {
		return nil, newError(KindPastDeadline,
			fmt.Sprintf("Cancellations must be made at least %d hours before the class starts.", s.policy.CancellationWindowHours), nil)
	}

	var (
		status        = models.BookingCanceled
		paymentStatus string
		refundID      string
	)
	// the intent may have been charged before its webhook arrived, so
	// payment_status is not consulted
	refundable := b.CreditsUsed == 0 && b.PaymentIntentID != "" && b.AmountCents > 0
	if refundable {
		refundID, err = s.gateway.RefundIntent(ctx, b.PaymentIntentID, b.AmountCents)
		if err != nil {
			return nil, gatewayError(err)
		}
		status = models.BookingRefunded
		paymentStatus = models.PaymentRefunded
	}

	prev, err := s.bookings.TransitionStatus(ctx, b.ID, activeStatuses, status, paymentStatus)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		// a concurrent cancel got there first
		current, err := s.loadBooking(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if refundable {
			s.logger.Error("Refund issued for a booking canceled concurrently",
				zap.String("bookingID", b.ID), zap.String("refundID", refundID))
		}
		return &StatusResult{Status: current.Status}, nil
	}
	// a concurrent reschedule may have moved the booking since it was read
	held := prev.ScheduleID
	b = prev
	b.Status = status
	if paymentStatus != "" {
		b.PaymentStatus = paymentStatus
	}

	switch {
	case b.CreditsUsed > 0:
		if err := s.returnCredit(ctx, b, sc); err != nil {
			s.logger.Error("Booking canceled but credit was not returned", zap.String("bookingID", b.ID), zap.Error(err))
		}
	case refundable && s.transactions != nil:
		_, err := s.transactions.Append(context.WithoutCancel(ctx), models.Transaction{
			BookingID:   b.ID,
			UserID:      b.UserID,
			AmountCents: -b.AmountCents,
			Currency:    b.Currency,
			Type:        models.TxRefund,
			Processor:   "stripe",
			ProcessorID: refundID,
			Status:      "completed",
			CreatedAt:   s.now(),
		})
		if err != nil {
			s.logger.Error("Failed to record refund", zap.String("bookingID", b.ID), zap.String("refundID", refundID), zap.Error(err))
		}
	}

	s.releaseSeat(ctx, held)
	s.logger.Info("Booking canceled", zap.String("bookingID", b.ID), zap.String("status", b.Status))

	s.emit(ctx, bookingEvent(models.EventBookingCanceled, b))
	if _, err := s.PromoteWaitlist(context.WithoutCancel(ctx), held); err != nil {
		s.logger.Warn("Waitlist promotion failed", zap.String("scheduleID", held), zap.Error(err))
	}

	return &StatusResult{Status: b.Status}, nil
}

// Reschedule moves an active booking to another occurrence of the same class.
// The seat on the target is taken before the old one is given back.
func (s *DefaultBookingService) Reschedule(ctx context.Context, bookingID, userID, newScheduleID string) (*RescheduleResult, error) {
	b, err := s.loadOwnedBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive() {
		return nil, invalid("Only active bookings can be rescheduled.")
	}
	if newScheduleID == b.ScheduleID {
		return &RescheduleResult{Status: b.Status, ScheduleID: b.ScheduleID}, nil
	}

	target, err := s.loadSchedule(ctx, newScheduleID)
	if err != nil {
		return nil, err
	}
	if target.Status == models.ScheduleCanceled {
		return nil, invalid("The selected class has been canceled.")
	}
	if !target.StartTime.After(s.now()) {
		return nil, invalid("The selected class has already started.")
	}
	current, err := s.loadSchedule(ctx, b.ScheduleID)
	if err != nil {
		return nil, err
	}
	if target.ClassID != current.ClassID {
		return nil, invalid("Bookings can only be moved to another time of the same class.")
	}
	if s.pastDeadline(current.StartTime, s.policy.RescheduleWindowHours) {
		return nil, newError(KindPastDeadline,
			fmt.Sprintf("Reschedules must be made at least %d hours before the class starts.", s.policy.RescheduleWindowHours), nil)
	}

	reserved, err := s.schedules.ReserveSeat(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}
	if !reserved {
		return nil, newError(KindFull, "The selected class is full.", nil)
	}

	moved, err := s.bookings.UpdateSchedule(ctx, b.ID, current.ID, target.ID)
	if err != nil {
		s.releaseSeat(ctx, target.ID)
		return nil, fmt.Errorf("failed to move booking: %w", err)
	}
	if !moved {
		// canceled or moved by a concurrent request
		s.releaseSeat(ctx, target.ID)
		latest, err := s.loadBooking(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		return &RescheduleResult{Status: latest.Status, ScheduleID: latest.ScheduleID}, nil
	}
	s.releaseSeat(ctx, current.ID)

	s.logger.Info("Booking rescheduled",
		zap.String("bookingID", b.ID),
		zap.String("from", current.ID),
		zap.String("to", target.ID))

	b.ScheduleID = target.ID
	ev := bookingEvent(models.EventBookingRescheduled, b)
	ev.OldScheduleID = current.ID
	s.emit(ctx, ev)
	if b.Status == models.BookingConfirmed {
		s.scheduleReminder(ctx, b, target)
	}
	if _, err := s.PromoteWaitlist(context.WithoutCancel(ctx), current.ID); err != nil {
		s.logger.Warn("Waitlist promotion failed", zap.String("scheduleID", current.ID), zap.Error(err))
	}

	return &RescheduleResult{Status: b.Status, ScheduleID: target.ID}, nil
}
