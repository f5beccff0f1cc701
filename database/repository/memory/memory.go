// Package memoryRepo holds mutex-guarded in-memory implementations of the
// repository interfaces. They mirror the conditional-update semantics of the
// Mongo implementations and back the service and handler tests.
package memoryRepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"classbook/database"
	couponRepo "classbook/database/repository/coupon"
	waitlistRepo "classbook/database/repository/waitlist"
	"classbook/models"

	"github.com/google/uuid"
)

// Store is a single in-memory database shared by all repositories built from it.
type Store struct {
	mu           sync.Mutex
	schedules    map[string]*models.Schedule
	bookings     map[string]*models.Booking
	packages     map[string]*models.CreditPackage
	coupons      map[string]*models.Coupon
	waitlist     []*models.WaitlistEntry
	transactions []models.Transaction
}

func NewStore() *Store {
	return &Store{
		schedules: map[string]*models.Schedule{},
		bookings:  map[string]*models.Booking{},
		packages:  map[string]*models.CreditPackage{},
		coupons:   map[string]*models.Coupon{},
	}
}

// ---- schedules ----

type ScheduleRepo struct{ s *Store }

func (s *Store) Schedules() *ScheduleRepo { return &ScheduleRepo{s} }

func (r *ScheduleRepo) EnsureIndexes(context.Context) error { return nil }

func (r *ScheduleRepo) Create(_ context.Context, sc *models.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sc
	r.s.schedules[sc.ID] = &cp
	return nil
}

func (r *ScheduleRepo) GetByID(_ context.Context, id string) (*models.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.schedules[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (r *ScheduleRepo) ReserveSeat(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.schedules[id]
	if !ok || sc.Booked >= sc.Capacity {
		return false, nil
	}
	sc.Booked++
	return true, nil
}

func (r *ScheduleRepo) ReleaseSeat(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sc, ok := r.s.schedules[id]; ok && sc.Booked > 0 {
		sc.Booked--
	}
	return nil
}

// ---- bookings ----

type BookingRepo struct{ s *Store }

func (s *Store) Bookings() *BookingRepo { return &BookingRepo{s} }

func (r *BookingRepo) EnsureIndexes(context.Context) error { return nil }

func (r *BookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.bookings[b.ID] = &cp
	return nil
}

func (r *BookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *BookingRepo) GetByPaymentIntent(_ context.Context, intentID string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if intentID != "" && b.PaymentIntentID == intentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *BookingRepo) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepo) CountActive(_ context.Context, scheduleID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, b := range r.s.bookings {
		if b.ScheduleID == scheduleID && b.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepo) CountCouponUses(_ context.Context, couponID, userID, email string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, b := range r.s.bookings {
		if b.CouponID != couponID || b.Status != models.BookingConfirmed {
			continue
		}
		if userID == "" && email == "" {
			n++
			continue
		}
		if (userID != "" && b.UserID == userID) || (email != "" && b.CustomerEmail == email) {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepo) update(id string, fn func(b *models.Booking)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	fn(b)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *BookingRepo) SetPaymentIntent(_ context.Context, id, intentID string) error {
	return r.update(id, func(b *models.Booking) { b.PaymentIntentID = intentID })
}

func (r *BookingRepo) SetPaymentStatus(_ context.Context, id, paymentStatus string) error {
	return r.update(id, func(b *models.Booking) { b.PaymentStatus = paymentStatus })
}

func (r *BookingRepo) UpdateSchedule(_ context.Context, id, fromScheduleID, toScheduleID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.ScheduleID != fromScheduleID || !b.IsActive() {
		return false, nil
	}
	b.ScheduleID = toScheduleID
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *BookingRepo) TransitionStatus(_ context.Context, id string, from []string, status, paymentStatus string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || !contains(from, b.Status) {
		return nil, nil
	}
	prev := *b
	b.Status = status
	if paymentStatus != "" {
		b.PaymentStatus = paymentStatus
	}
	b.UpdatedAt = time.Now().UTC()
	return &prev, nil
}

// ---- credit packages ----

type CreditRepo struct{ s *Store }

func (s *Store) Credits() *CreditRepo { return &CreditRepo{s} }

func (r *CreditRepo) EnsureIndexes(context.Context) error { return nil }

func (r *CreditRepo) Insert(_ context.Context, pkg *models.CreditPackage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *pkg
	r.s.packages[pkg.ID] = &cp
	return nil
}

func usable(p *models.CreditPackage, userID string, now time.Time) bool {
	return p.UserID == userID && p.CreditsRemaining > 0 && p.ExpiresSort.After(now)
}

func (r *CreditRepo) SumRemaining(_ context.Context, userID string, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0
	for _, p := range r.s.packages {
		if usable(p, userID, now) {
			total += p.CreditsRemaining
		}
	}
	return total, nil
}

func (r *CreditRepo) ConsumeOne(_ context.Context, userID string, now time.Time) (*models.CreditPackage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pick *models.CreditPackage
	for _, p := range r.s.packages {
		if !usable(p, userID, now) {
			continue
		}
		if pick == nil || consumesBefore(p, pick) {
			pick = p
		}
	}
	if pick == nil {
		return nil, nil
	}
	pick.CreditsRemaining--
	cp := *pick
	return &cp, nil
}

func (r *CreditRepo) ListByUser(_ context.Context, userID string) ([]models.CreditPackage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.CreditPackage{}
	for _, p := range r.s.packages {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return consumesBefore(&out[i], &out[j]) })
	return out, nil
}

// consumesBefore orders packages by expiry, then creation time, then id.
func consumesBefore(a, b *models.CreditPackage) bool {
	if !a.ExpiresSort.Equal(b.ExpiresSort) {
		return a.ExpiresSort.Before(b.ExpiresSort)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// ---- coupons ----

type CouponRepo struct{ s *Store }

func (s *Store) Coupons() *CouponRepo { return &CouponRepo{s} }

func (r *CouponRepo) EnsureIndexes(context.Context) error { return nil }

func (r *CouponRepo) Create(_ context.Context, c *models.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(c.Code))
	if _, taken := r.s.coupons[key]; taken {
		return couponRepo.ErrDuplicateCode
	}
	cp := *c
	r.s.coupons[key] = &cp
	return nil
}

func (r *CouponRepo) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.coupons[code]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ---- waitlist ----

type WaitlistRepo struct{ s *Store }

func (s *Store) Waitlist() *WaitlistRepo { return &WaitlistRepo{s} }

func (r *WaitlistRepo) EnsureIndexes(context.Context) error { return nil }

func (r *WaitlistRepo) Enqueue(_ context.Context, e *models.WaitlistEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range r.s.waitlist {
		if q.ScheduleID == e.ScheduleID && q.Email == e.Email {
			return waitlistRepo.ErrAlreadyQueued
		}
	}
	cp := *e
	r.s.waitlist = append(r.s.waitlist, &cp)
	return nil
}

func (r *WaitlistRepo) Exists(_ context.Context, scheduleID, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.waitlist {
		if e.ScheduleID == scheduleID && e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *WaitlistRepo) PopEarliest(_ context.Context, scheduleID string) (*models.WaitlistEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := -1
	for i, e := range r.s.waitlist {
		if e.ScheduleID != scheduleID {
			continue
		}
		if idx < 0 {
			idx = i
			continue
		}
		best := r.s.waitlist[idx]
		if e.CreatedAt.Before(best.CreatedAt) || (e.CreatedAt.Equal(best.CreatedAt) && e.ID < best.ID) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil
	}
	e := r.s.waitlist[idx]
	r.s.waitlist = append(r.s.waitlist[:idx], r.s.waitlist[idx+1:]...)
	return e, nil
}

// Len returns the number of queued entries for a schedule.
func (r *WaitlistRepo) Len(scheduleID string) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.waitlist {
		if e.ScheduleID == scheduleID {
			n++
		}
	}
	return n
}

// ---- transactions ----

type TransactionRepo struct{ s *Store }

func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s} }

func (r *TransactionRepo) EnsureIndexes(context.Context) error { return nil }

func (r *TransactionRepo) Append(_ context.Context, tx models.Transaction) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	r.s.transactions = append(r.s.transactions, tx)
	return tx.ID, nil
}

func (r *TransactionRepo) ListByBooking(_ context.Context, bookingID string) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Transaction{}
	for _, tx := range r.s.transactions {
		if tx.BookingID == bookingID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// All returns every appended transaction.
func (r *TransactionRepo) All() []models.Transaction {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.Transaction(nil), r.s.transactions...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
