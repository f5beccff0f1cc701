package models

import "time"

const (
	CouponPercent = "percent"
	CouponFixed   = "fixed"
)

// Coupon is a code-based discount rule.
type Coupon struct {
	ID                string     `bson:"id" json:"id"`
	Code              string     `bson:"code" json:"code"` // trimmed, lower-case
	Type              string     `bson:"type" json:"type"`
	Amount            float64    `bson:"amount" json:"amount"` // percent points, or currency units for fixed
	StartAt           *time.Time `bson:"start_at,omitempty" json:"start_at,omitempty"`
	EndAt             *time.Time `bson:"end_at,omitempty" json:"end_at,omitempty"`
	MinAmountCents    int64      `bson:"min_amount_cents" json:"min_amount_cents"`
	UsageLimit        int        `bson:"usage_limit" json:"usage_limit"`                   // 0 = unlimited
	UsageLimitPerUser int        `bson:"usage_limit_per_user" json:"usage_limit_per_user"` // 0 = unlimited
	ClassIDs          []string   `bson:"class_ids,omitempty" json:"class_ids,omitempty"`
	LocationIDs       []string   `bson:"location_ids,omitempty" json:"location_ids,omitempty"`
	InstructorIDs     []string   `bson:"instructor_ids,omitempty" json:"instructor_ids,omitempty"`
	ResourceIDs       []string   `bson:"resource_ids,omitempty" json:"resource_ids,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
}
