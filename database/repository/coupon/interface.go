package couponRepo

import (
	"classbook/models"
	"context"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	// GetByCode expects an already normalized code.
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	EnsureIndexes(ctx context.Context) error
}
