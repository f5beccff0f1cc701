package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"classbook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// Gateway is the card processor used for payment intents and refunds.
type Gateway interface {
	CreateIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error)
	// RefundIntent refunds amountCents of an intent; 0 refunds the full amount.
	RefundIntent(ctx context.Context, intentID string, amountCents int64) (string, error)
}

var ErrNotConfigured = errors.New("payment gateway is not configured")

// StripeGateway implements Gateway on the Stripe API.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway builds a gateway for key. backends may be nil to use Stripe's defaults.
func NewStripeGateway(key string, backends *stripe.Backends, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	gw := &StripeGateway{logger: logger}
	if strings.TrimSpace(key) != "" {
		gw.api = client.New(key, backends)
	}
	return gw
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethod)
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.CustomerName != "" {
		params.AddMetadata("customer_name", req.CustomerName)
	}
	if req.InstructorID != "" {
		params.AddMetadata("instructor_id", req.InstructorID)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Warn("Stripe payment intent creation failed", zap.Error(err))
		return nil, fmt.Errorf("stripe: %w", err)
	}

	g.logger.Info("Stripe payment intent created",
		zap.String("intentID", pi.ID),
		zap.Int64("amount", req.AmountCents))
	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func (g *StripeGateway) RefundIntent(ctx context.Context, intentID string, amountCents int64) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}

	r, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Warn("Stripe refund failed", zap.String("intentID", intentID), zap.Error(err))
		return "", fmt.Errorf("stripe: %w", err)
	}

	g.logger.Info("Stripe refund issued", zap.String("intentID", intentID), zap.String("refundID", r.ID))
	return r.ID, nil
}
