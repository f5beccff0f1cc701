package coupon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"classbook/database"
	couponRepo "classbook/database/repository/coupon"
	"classbook/models"

	"github.com/google/uuid"
)

// Rejection reasons carried by ValidationError.
const (
	ReasonNotFound       = "not_found"
	ReasonNotYetActive   = "not_yet_active"
	ReasonExpired        = "expired"
	ReasonAmountTooLow   = "amount_too_low"
	ReasonUsageLimit     = "usage_limit_reached"
	ReasonUserUsageLimit = "user_usage_limit_reached"
	ReasonClass          = "invalid_class"
	ReasonLocation       = "invalid_location"
	ReasonInstructor     = "invalid_instructor"
	ReasonResource       = "invalid_resource"
)

// ValidationError explains why a coupon cannot be applied.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPStatus lets the HTTP layer render validation failures as bad requests.
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

func reject(reason, msg string) error {
	return &ValidationError{Reason: reason, Message: msg}
}

// UsageCounter counts confirmed bookings that redeemed a coupon.
type UsageCounter interface {
	CountCouponUses(ctx context.Context, couponID, userID, email string) (int, error)
}

// Validator checks coupons against schedules and prices them.
type Validator struct {
	Coupons couponRepo.CouponRepository
	Usage   UsageCounter
	Now     func() time.Time
}

func NewValidator(coupons couponRepo.CouponRepository, usage UsageCounter) *Validator {
	return &Validator{
		Coupons: coupons,
		Usage:   usage,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeCode trims and lower-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Lookup fetches a coupon by code, in any letter case.
func (v *Validator) Lookup(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, reject(ReasonNotFound, "Coupon code is empty.")
	}
	c, err := v.Coupons.GetByCode(ctx, normalized)
	if errors.Is(err, database.ErrNotFound) {
		return nil, reject(ReasonNotFound, "Coupon not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	return c, nil
}

// Validate runs the coupon rules in order and returns the discount for
// amountCents. The first failing rule wins.
func (v *Validator) Validate(ctx context.Context, c *models.Coupon, sc *models.Schedule, userID, email string, amountCents int64) (int64, error) {
	now := v.Now()

	if c.StartAt != nil && now.Before(*c.StartAt) {
		return 0, reject(ReasonNotYetActive, "Coupon is not yet active.")
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return 0, reject(ReasonExpired, "Coupon has expired.")
	}
	if amountCents < c.MinAmountCents {
		return 0, reject(ReasonAmountTooLow, "Order amount is too low for this coupon.")
	}

	if c.UsageLimit > 0 {
		used, err := v.Usage.CountCouponUses(ctx, c.ID, "", "")
		if err != nil {
			return 0, fmt.Errorf("failed to count coupon uses: %w", err)
		}
		if used >= c.UsageLimit {
			return 0, reject(ReasonUsageLimit, "Coupon usage limit reached.")
		}
	}
	if c.UsageLimitPerUser > 0 && (userID != "" || email != "") {
		used, err := v.Usage.CountCouponUses(ctx, c.ID, userID, email)
		if err != nil {
			return 0, fmt.Errorf("failed to count coupon uses: %w", err)
		}
		if used >= c.UsageLimitPerUser {
			return 0, reject(ReasonUserUsageLimit, "You have already used this coupon the maximum number of times.")
		}
	}

	if !allowed(c.ClassIDs, sc.ClassID) {
		return 0, reject(ReasonClass, "Coupon is not valid for this class.")
	}
	if !allowed(c.LocationIDs, sc.LocationID) {
		return 0, reject(ReasonLocation, "Coupon is not valid for this location.")
	}
	if !allowed(c.InstructorIDs, sc.InstructorID) {
		return 0, reject(ReasonInstructor, "Coupon is not valid for this instructor.")
	}
	if !allowed(c.ResourceIDs, sc.ResourceID) {
		return 0, reject(ReasonResource, "Coupon is not valid for this resource.")
	}

	return Discount(c, amountCents), nil
}

// Discount prices a coupon against amountCents, clamped to [0, amountCents].
func Discount(c *models.Coupon, amountCents int64) int64 {
	var d int64
	switch c.Type {
	case models.CouponPercent:
		d = int64(math.Round(float64(amountCents) * c.Amount / 100))
	case models.CouponFixed:
		d = int64(math.Round(c.Amount * 100))
	}
	if d < 0 {
		return 0
	}
	if d > amountCents {
		return amountCents
	}
	return d
}

// an empty allow-list places no restriction
func allowed(list []string, id string) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// ParseIDList splits a comma-separated id list, dropping blanks.
func ParseIDList(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// CreateRequest is the admin input for a new coupon. Scope lists are comma-separated ids.
type CreateRequest struct {
	Code              string     `json:"code" binding:"required"`
	Type              string     `json:"type" binding:"required,oneof=percent fixed"`
	Amount            float64    `json:"amount" binding:"min=0"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
	MinAmountCents    int64      `json:"min_amount_cents" binding:"min=0"`
	UsageLimit        int        `json:"usage_limit" binding:"min=0"`
	UsageLimitPerUser int        `json:"usage_limit_per_user" binding:"min=0"`
	Classes           string     `json:"classes"`
	Locations         string     `json:"locations"`
	Instructors       string     `json:"instructors"`
	Resources         string     `json:"resources"`
}

// Create stores a coupon under its normalized code.
func (v *Validator) Create(ctx context.Context, req CreateRequest) (*models.Coupon, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, reject(ReasonNotFound, "Coupon code is empty.")
	}
	if req.Type == models.CouponPercent && req.Amount > 100 {
		return nil, &ValidationError{Reason: "invalid_amount", Message: "Percent coupons cannot exceed 100."}
	}
	c := &models.Coupon{
		ID:                uuid.New().String(),
		Code:              code,
		Type:              req.Type,
		Amount:            req.Amount,
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
		MinAmountCents:    req.MinAmountCents,
		UsageLimit:        req.UsageLimit,
		UsageLimitPerUser: req.UsageLimitPerUser,
		ClassIDs:          ParseIDList(req.Classes),
		LocationIDs:       ParseIDList(req.Locations),
		InstructorIDs:     ParseIDList(req.Instructors),
		ResourceIDs:       ParseIDList(req.Resources),
		CreatedAt:         v.Now(),
	}
	if err := v.Coupons.Create(ctx, c); err != nil {
		if errors.Is(err, couponRepo.ErrDuplicateCode) {
			return nil, &ValidationError{Reason: "duplicate_code", Message: "A coupon with this code already exists."}
		}
		return nil, err
	}
	return c, nil
}
