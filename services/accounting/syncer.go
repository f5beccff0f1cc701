package accounting

import (
	"context"
	"fmt"
	"time"

	transactionRepo "classbook/database/repository/transaction"
	"classbook/models"

	"go.uber.org/zap"
)

const (
	ProcessorQuickBooks = "quickbooks"
	StatusPendingSync   = "pending_sync"
)

// Syncer queues paid bookings for export to the accounting system.
type Syncer interface {
	SalesReceipt(ctx context.Context, b *models.Booking) error
}

// LedgerSyncer records a pending sales receipt in the transaction log; the
// export job picks up rows in pending_sync.
type LedgerSyncer struct {
	txs    transactionRepo.TransactionRepository
	logger *zap.Logger
}

func NewLedgerSyncer(txs transactionRepo.TransactionRepository, logger *zap.Logger) *LedgerSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerSyncer{txs: txs, logger: logger}
}

// SalesReceipt is idempotent per booking.
func (s *LedgerSyncer) SalesReceipt(ctx context.Context, b *models.Booking) error {
	if b.AmountCents <= 0 {
		return nil
	}

	existing, err := s.txs.ListByBooking(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("failed to load transactions for booking %s: %w", b.ID, err)
	}
	for _, tx := range existing {
		if tx.Type == models.TxSalesReceipt {
			return nil
		}
	}

	id, err := s.txs.Append(ctx, models.Transaction{
		BookingID:   b.ID,
		UserID:      b.UserID,
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
		Type:        models.TxSalesReceipt,
		Processor:   ProcessorQuickBooks,
		ProcessorID: b.PaymentIntentID,
		Status:      StatusPendingSync,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record sales receipt for booking %s: %w", b.ID, err)
	}
	s.logger.Info("Sales receipt queued for accounting", zap.String("bookingID", b.ID), zap.String("transactionID", id))
	return nil
}
