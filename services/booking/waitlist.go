package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	waitlistRepo "classbook/database/repository/waitlist"
	"classbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JoinWaitlist queues a contact for a seat on a schedule.
func (s *DefaultBookingService) JoinWaitlist(ctx context.Context, req WaitlistRequest) (*models.WaitlistEntry, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, invalid("An email is required to join the waitlist.")
	}
	sc, err := s.loadSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sc.Status == models.ScheduleCanceled {
		return nil, invalid("This class has been canceled.")
	}

	exists, err := s.waitlist.Exists(ctx, sc.ID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid("You are already on the waitlist for this class.")
	}

	entry := &models.WaitlistEntry{
		ID:         uuid.New().String(),
		ScheduleID: sc.ID,
		Email:      email,
		Name:       req.Name,
		UserID:     req.UserID,
		CreatedAt:  s.now(),
	}
	if err := s.waitlist.Enqueue(ctx, entry); err != nil {
		if errors.Is(err, waitlistRepo.ErrAlreadyQueued) {
			return nil, invalid("You are already on the waitlist for this class.")
		}
		return nil, fmt.Errorf("failed to join waitlist: %w", err)
	}
	s.logger.Info("Joined waitlist", zap.String("scheduleID", sc.ID), zap.String("entryID", entry.ID))
	return entry, nil
}

// PromoteWaitlist offers a freed seat to the earliest waitlisted contact. One
// entry is promoted per call, and none while the schedule is still full. It
// returns the promoted entry, or nil.
func (s *DefaultBookingService) PromoteWaitlist(ctx context.Context, scheduleID string) (*models.WaitlistEntry, error) {
	sc, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	active, err := s.bookings.CountActive(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	if active >= sc.Capacity {
		return nil, nil
	}

	entry, err := s.waitlist.PopEarliest(ctx, sc.ID)
	if err != nil || entry == nil {
		return nil, err
	}

	s.logger.Info("Waitlist entry promoted",
		zap.String("scheduleID", sc.ID),
		zap.String("entryID", entry.ID),
		zap.Int("active", active),
		zap.Int("capacity", sc.Capacity))

	s.emit(ctx, models.Event{
		Type:       models.EventWaitlistOpen,
		ScheduleID: sc.ID,
		UserID:     entry.UserID,
		Email:      entry.Email,
		Name:       entry.Name,
	})
	return entry, nil
}
