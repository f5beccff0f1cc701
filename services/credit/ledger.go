package credit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	creditRepo "classbook/database/repository/credit"
	transactionRepo "classbook/database/repository/transaction"
	"classbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger manages prepaid credit packages.
type Ledger interface {
	GetUserCredits(ctx context.Context, userID string) (int, error)
	ConsumeOneCredit(ctx context.Context, userID string) (bool, error)
	GrantPackage(ctx context.Context, req GrantRequest) (string, error)
	ListPackages(ctx context.Context, userID string) ([]models.CreditPackage, error)
}

// GrantRequest describes a new credit package.
type GrantRequest struct {
	UserID     string     `json:"user_id" binding:"required"`
	Name       string     `json:"name" binding:"required"`
	Credits    int        `json:"credits" binding:"required,min=1"`
	PriceCents int64      `json:"price_cents" binding:"min=0"`
	Currency   string     `json:"currency"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

var ErrInvalidGrant = errors.New("invalid credit grant")

// DefaultLedger implements Ledger on top of the credit and transaction repositories.
type DefaultLedger struct {
	Packages        creditRepo.CreditRepository
	Transactions    transactionRepo.TransactionRepository
	DefaultCurrency string
	Logger          *zap.Logger
	Now             func() time.Time
}

func NewLedger(packages creditRepo.CreditRepository, txs transactionRepo.TransactionRepository, currency string, logger *zap.Logger) *DefaultLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultLedger{
		Packages:        packages,
		Transactions:    txs,
		DefaultCurrency: currency,
		Logger:          logger,
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

func (l *DefaultLedger) GetUserCredits(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	total, err := l.Packages.SumRemaining(ctx, userID, l.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to total credits for user %s: %w", userID, err)
	}
	return total, nil
}

// ConsumeOneCredit draws one credit from the soonest-expiring usable package.
// It returns false when the user has nothing left to draw.
func (l *DefaultLedger) ConsumeOneCredit(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	pkg, err := l.Packages.ConsumeOne(ctx, userID, l.Now())
	if err != nil {
		return false, fmt.Errorf("failed to consume credit for user %s: %w", userID, err)
	}
	if pkg == nil {
		return false, nil
	}
	l.Logger.Debug("Credit consumed",
		zap.String("userID", userID),
		zap.String("packageID", pkg.ID),
		zap.Int("remaining", pkg.CreditsRemaining))
	return true, nil
}

// GrantPackage inserts a package with all of its credits remaining. Paid
// grants are also written to the transaction log.
func (l *DefaultLedger) GrantPackage(ctx context.Context, req GrantRequest) (string, error) {
	if strings.TrimSpace(req.UserID) == "" || req.Credits <= 0 || req.PriceCents < 0 {
		return "", ErrInvalidGrant
	}
	currency := req.Currency
	if currency == "" {
		currency = l.DefaultCurrency
	}

	now := l.Now()
	pkg := &models.CreditPackage{
		ID:               uuid.New().String(),
		UserID:           req.UserID,
		Name:             req.Name,
		Credits:          req.Credits,
		CreditsRemaining: req.Credits,
		PriceCents:       req.PriceCents,
		Currency:         strings.ToLower(currency),
		ExpiresAt:        req.ExpiresAt,
		ExpiresSort:      models.NeverExpires,
		CreatedAt:        now,
	}
	if req.ExpiresAt != nil {
		pkg.ExpiresSort = req.ExpiresAt.UTC()
	}

	if err := l.Packages.Insert(ctx, pkg); err != nil {
		return "", fmt.Errorf("failed to grant package to user %s: %w", req.UserID, err)
	}

	if req.PriceCents > 0 && l.Transactions != nil {
		_, err := l.Transactions.Append(ctx, models.Transaction{
			UserID:      req.UserID,
			AmountCents: req.PriceCents,
			Currency:    pkg.Currency,
			Type:        models.TxPackagePurchase,
			Processor:   "credits",
			ProcessorID: pkg.ID,
			Status:      "completed",
			CreatedAt:   now,
		})
		if err != nil {
			// The package is already granted; the audit gap is logged rather than undone.
			l.Logger.Error("Failed to record package purchase",
				zap.String("packageID", pkg.ID), zap.Error(err))
		}
	}

	l.Logger.Info("Credit package granted",
		zap.String("userID", req.UserID),
		zap.String("packageID", pkg.ID),
		zap.Int("credits", req.Credits))
	return pkg.ID, nil
}

func (l *DefaultLedger) ListPackages(ctx context.Context, userID string) ([]models.CreditPackage, error) {
	pkgs, err := l.Packages.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages for user %s: %w", userID, err)
	}
	return pkgs, nil
}
