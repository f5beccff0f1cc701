package transactionRepo

import (
	"classbook/models"
	"context"
)

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository interface {
	Append(ctx context.Context, tx models.Transaction) (string, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Transaction, error)
	EnsureIndexes(ctx context.Context) error
}
