package creditRepo

import (
	"classbook/models"
	"context"
	"time"
)

type CreditRepository interface {
	Insert(ctx context.Context, pkg *models.CreditPackage) error
	// SumRemaining totals credits_remaining over the user's packages that have not expired at now.
	SumRemaining(ctx context.Context, userID string, now time.Time) (int, error)
	// ConsumeOne decrements the soonest-expiring usable package. It returns nil
	// when the user has no usable credit.
	ConsumeOne(ctx context.Context, userID string, now time.Time) (*models.CreditPackage, error)
	ListByUser(ctx context.Context, userID string) ([]models.CreditPackage, error)
	EnsureIndexes(ctx context.Context) error
}
