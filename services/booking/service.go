package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classbook/database"
	bookingRepo "classbook/database/repository/booking"
	scheduleRepo "classbook/database/repository/schedule"
	transactionRepo "classbook/database/repository/transaction"
	waitlistRepo "classbook/database/repository/waitlist"
	"classbook/models"
	"classbook/services/credit"
	"classbook/services/payment"

	"go.uber.org/zap"
)

// Policy carries the studio's booking rules.
type Policy struct {
	CancellationWindowHours int
	RescheduleWindowHours   int
	DefaultCurrency         string
	ReminderLeadHours       int
}

// Deps are the collaborators of the booking service.
type Deps struct {
	Schedules    scheduleRepo.ScheduleRepository
	Bookings     bookingRepo.BookingRepository
	Waitlist     waitlistRepo.WaitlistRepository
	Transactions transactionRepo.TransactionRepository
	Credits      credit.Ledger
	Coupons      CouponValidator
	Gateway      payment.Gateway
	Events       EventEmitter
	Logger       *zap.Logger
	Now          func() time.Time
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	schedules    scheduleRepo.ScheduleRepository
	bookings     bookingRepo.BookingRepository
	waitlist     waitlistRepo.WaitlistRepository
	transactions transactionRepo.TransactionRepository
	credits      credit.Ledger
	coupons      CouponValidator
	gateway      payment.Gateway
	events       EventEmitter
	logger       *zap.Logger
	now          func() time.Time
	policy       Policy
}

func NewService(deps Deps, policy Policy) *DefaultBookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if policy.DefaultCurrency == "" {
		policy.DefaultCurrency = "usd"
	}
	return &DefaultBookingService{
		schedules:    deps.Schedules,
		bookings:     deps.Bookings,
		waitlist:     deps.Waitlist,
		transactions: deps.Transactions,
		credits:      deps.Credits,
		coupons:      deps.Coupons,
		gateway:      deps.Gateway,
		events:       deps.Events,
		logger:       logger,
		now:          now,
		policy:       policy,
	}
}

func (s *DefaultBookingService) loadSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	sc, err := s.schedules.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Schedule not found.")
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *DefaultBookingService) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Booking not found.")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *DefaultBookingService) loadOwnedBooking(ctx context.Context, id, userID string) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID == "" || b.UserID != userID {
		return nil, forbidden("You do not have access to this booking.")
	}
	return b, nil
}

// pastDeadline reports whether now is inside the window before start.
func (s *DefaultBookingService) pastDeadline(start time.Time, windowHours int) bool {
	if windowHours <= 0 {
		return false
	}
	deadline := start.Add(-time.Duration(windowHours) * time.Hour)
	return s.now().After(deadline)
}

func (s *DefaultBookingService) currency(sc *models.Schedule) string {
	if sc.Currency != "" {
		return sc.Currency
	}
	return s.policy.DefaultCurrency
}

// emit hands an event to the outbox. Failures are logged only.
func (s *DefaultBookingService) emit(ctx context.Context, event models.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("Failed to emit booking event",
			zap.String("type", event.Type),
			zap.String("bookingID", event.BookingID),
			zap.String("scheduleID", event.ScheduleID),
			zap.Error(err))
	}
}

func bookingEvent(kind string, b *models.Booking) models.Event {
	return models.Event{
		Type:       kind,
		BookingID:  b.ID,
		ScheduleID: b.ScheduleID,
		UserID:     b.UserID,
		Email:      b.CustomerEmail,
		Name:       b.CustomerName,
	}
}

// scheduleReminder queues the pre-class reminder for a confirmed booking.
func (s *DefaultBookingService) scheduleReminder(ctx context.Context, b *models.Booking, sc *models.Schedule) {
	if s.policy.ReminderLeadHours <= 0 {
		return
	}
	fireAt := sc.StartTime.Add(-time.Duration(s.policy.ReminderLeadHours) * time.Hour)
	if !fireAt.After(s.now()) {
		return
	}
	ev := bookingEvent(models.EventClassReminder, b)
	ev.ScheduleID = sc.ID
	ev.FireAt = fireAt
	s.emit(ctx, ev)
}

func (s *DefaultBookingService) releaseSeat(ctx context.Context, scheduleID string) {
	if err := s.schedules.ReleaseSeat(context.WithoutCancel(ctx), scheduleID); err != nil {
		s.logger.Error("Failed to release seat", zap.String("scheduleID", scheduleID), zap.Error(err))
	}
}

// returnCredit gives back one credit as a fresh package.
func (s *DefaultBookingService) returnCredit(ctx context.Context, b *models.Booking, sc *models.Schedule) error {
	pkgID, err := s.credits.GrantPackage(context.WithoutCancel(ctx), credit.GrantRequest{
		UserID:   b.UserID,
		Name:     "Returned credit",
		Credits:  1,
		Currency: s.currency(sc),
	})
	if err != nil {
		return fmt.Errorf("failed to return credit for booking %s: %w", b.ID, err)
	}
	if s.transactions != nil {
		_, err = s.transactions.Append(context.WithoutCancel(ctx), models.Transaction{
			BookingID:   b.ID,
			UserID:      b.UserID,
			Currency:    b.Currency,
			Type:        models.TxCreditReturn,
			Processor:   "credits",
			ProcessorID: pkgID,
			Status:      "completed",
			CreatedAt:   s.now(),
		})
		if err != nil {
			s.logger.Error("Failed to record credit return", zap.String("bookingID", b.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	return s.loadOwnedBooking(ctx, bookingID, userID)
}

func (s *DefaultBookingService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	if userID == "" {
		return nil, forbidden("Sign in to see your bookings.")
	}
	return s.bookings.ListByUser(ctx, userID)
}
