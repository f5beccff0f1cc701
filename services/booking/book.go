package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"classbook/database"
	"classbook/models"
	"classbook/services/coupon"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Book admits a customer to a schedule. The seat is reserved before anything
// else and given back if a later step fails.
func (s *DefaultBookingService) Book(ctx context.Context, scheduleID string, customer Customer, useCredits bool) (*BookResult, error) {
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	if customer.Email == "" {
		return nil, invalid("A customer email is required.")
	}

	sc, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sc.Status == models.ScheduleCanceled {
		return nil, invalid("This class has been canceled.")
	}

	reserved, err := s.schedules.ReserveSeat(ctx, sc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}
	if !reserved {
		return nil, newError(KindFull, "This class is full.", nil)
	}

	now := s.now()
	b := &models.Booking{
		ID:            uuid.New().String(),
		ScheduleID:    sc.ID,
		UserID:        customer.UserID,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Status:        models.BookingPending,
		AmountCents:   sc.PriceCents,
		Currency:      s.currency(sc),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if useCredits && customer.UserID != "" {
		ok, err := s.credits.ConsumeOneCredit(ctx, customer.UserID)
		if err != nil {
			s.releaseSeat(ctx, sc.ID)
			return nil, err
		}
		if ok {
			b.AmountCents = 0
			b.CreditsUsed = 1
			b.Status = models.BookingConfirmed
		}
	}

	if customer.CouponCode != "" && b.AmountCents > 0 {
		s.applyCoupon(ctx, b, sc, customer)
	}

	b.PaymentStatus = models.PaymentRequired
	if b.AmountCents == 0 {
		b.PaymentStatus = models.PaymentPaid
		b.Status = models.BookingConfirmed
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		s.releaseSeat(ctx, sc.ID)
		if b.CreditsUsed > 0 {
			if rerr := s.returnCredit(ctx, b, sc); rerr != nil {
				s.logger.Error("Failed to return credit after aborted booking", zap.String("userID", b.UserID), zap.Error(rerr))
			}
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("Booking created",
		zap.String("bookingID", b.ID),
		zap.String("scheduleID", sc.ID),
		zap.String("status", b.Status),
		zap.Int64("amount", b.AmountCents),
		zap.Int("creditsUsed", b.CreditsUsed))

	if b.Status == models.BookingConfirmed {
		s.emit(ctx, bookingEvent(models.EventBookingConfirmed, b))
		s.scheduleReminder(ctx, b, sc)
	}

	return &BookResult{
		BookingID:   b.ID,
		Status:      b.Status,
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
	}, nil
}

// applyCoupon discounts b in place. A coupon that cannot be applied is
// ignored and the booking proceeds at full price.
func (s *DefaultBookingService) applyCoupon(ctx context.Context, b *models.Booking, sc *models.Schedule, customer Customer) {
	if s.coupons == nil {
		return
	}
	c, err := s.coupons.Lookup(ctx, customer.CouponCode)
	if err == nil {
		var discount int64
		discount, err = s.coupons.Validate(ctx, c, sc, customer.UserID, customer.Email, b.AmountCents)
		if err == nil {
			b.DiscountCents = discount
			b.AmountCents -= discount
			if b.AmountCents < 0 {
				b.AmountCents = 0
			}
			b.CouponID = c.ID
			b.CouponCode = c.Code
			return
		}
	}

	var verr *coupon.ValidationError
	if errors.As(err, &verr) {
		s.logger.Debug("Coupon ignored", zap.String("code", customer.CouponCode), zap.String("reason", verr.Reason))
		return
	}
	s.logger.Warn("Coupon check failed, booking at full price", zap.String("code", customer.CouponCode), zap.Error(err))
}

// CreatePaymentIntent opens a card payment for the amount due on a booking.
func (s *DefaultBookingService) CreatePaymentIntent(ctx context.Context, bookingID, paymentMethod, name, email string) (*IntentResult, error) {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.AmountCents <= 0 {
		return nil, invalid("This booking has nothing to pay.")
	}
	if b.Status != models.BookingPending {
		return nil, invalid("This booking is not awaiting payment.")
	}
	sc, err := s.loadSchedule(ctx, b.ScheduleID)
	if err != nil {
		return nil, err
	}

	if email == "" {
		email = b.CustomerEmail
	}
	if name == "" {
		name = b.CustomerName
	}

	intent, err := s.gateway.CreateIntent(ctx, models.PaymentRequest{
		AmountCents:   b.AmountCents,
		Currency:      b.Currency,
		Description:   fmt.Sprintf("%s - %s", sc.ClassName, sc.StartTime.UTC().Format("Jan 2, 2006 15:04 MST")),
		ReceiptEmail:  email,
		CustomerName:  name,
		InstructorID:  sc.InstructorID,
		PaymentMethod: paymentMethod,
		Metadata: map[string]string{
			"booking_id":  b.ID,
			"schedule_id": sc.ID,
		},
	})
	if err != nil {
		return nil, gatewayError(err)
	}

	if err := s.bookings.SetPaymentIntent(ctx, b.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to store payment intent: %w", err)
	}

	s.logger.Info("Payment intent created", zap.String("bookingID", b.ID), zap.String("intentID", intent.ID))
	return &IntentResult{ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil
}

func (s *DefaultBookingService) loadByIntent(ctx context.Context, intentID string) (*models.Booking, error) {
	if intentID == "" {
		return nil, notFound("Booking not found.")
	}
	b, err := s.bookings.GetByPaymentIntent(ctx, intentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Booking not found.")
	}
	return b, err
}

// ConfirmPayment settles a pending booking after the processor reports success.
// Repeated deliveries leave the booking as it is.
func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, intentID string) (*StatusResult, error) {
	b, err := s.loadByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	prev, err := s.bookings.TransitionStatus(ctx, b.ID, []string{models.BookingPending}, models.BookingConfirmed, models.PaymentPaid)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		current, err := s.loadBooking(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if current.IsTerminal() {
			s.logger.Warn("Payment succeeded for a booking that is no longer active",
				zap.String("bookingID", b.ID),
				zap.String("status", current.Status),
				zap.String("intentID", intentID))
		}
		return &StatusResult{Status: current.Status}, nil
	}

	b = prev
	b.Status = models.BookingConfirmed
	b.PaymentStatus = models.PaymentPaid
	s.logger.Info("Booking paid", zap.String("bookingID", b.ID), zap.String("intentID", intentID))

	s.emit(ctx, bookingEvent(models.EventBookingConfirmed, b))
	s.emit(ctx, bookingEvent(models.EventSalesReceipt, b))
	if sc, err := s.schedules.GetByID(ctx, b.ScheduleID); err == nil {
		s.scheduleReminder(ctx, b, sc)
	}
	return &StatusResult{Status: b.Status}, nil
}

// MarkPaymentFailed flags a declined payment on a booking still awaiting it.
func (s *DefaultBookingService) MarkPaymentFailed(ctx context.Context, intentID string) (*StatusResult, error) {
	b, err := s.loadByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingPending {
		return &StatusResult{Status: b.Status}, nil
	}
	if err := s.bookings.SetPaymentStatus(ctx, b.ID, models.PaymentFailed); err != nil {
		return nil, err
	}
	s.logger.Info("Payment failed", zap.String("bookingID", b.ID), zap.String("intentID", intentID))
	return &StatusResult{Status: b.Status}, nil
}
