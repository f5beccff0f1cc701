package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"classbook/services/booking"
	"classbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const stripeWebhookBodyLimit = 64 << 10

// OnceStore remembers processed webhook event ids.
type OnceStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// StripeWebhookHandler turns Stripe payment events into booking transitions.
type StripeWebhookHandler struct {
	Service booking.BookingService
	Secret  string
	Once    OnceStore
	Logger  *zap.Logger
}

func NewStripeWebhookHandler(svc booking.BookingService, secret string, once OnceStore, logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{Service: svc, Secret: secret, Once: once, Logger: logger}
}

// Handle serves POST /api/webhooks/stripe.
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	if strings.TrimSpace(h.Secret) == "" {
		utils.JSONError(c, http.StatusServiceUnavailable, "Stripe webhook secret is not configured", "")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, stripeWebhookBodyLimit))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read request body", "")
		return
	}
	sigHeader := c.GetHeader("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid Stripe signature", "")
		return
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid Stripe signature", "")
		return
	}

	ctx := c.Request.Context()
	if h.Once != nil {
		first, err := h.Once.Claim(ctx, event.ID)
		if err != nil {
			h.Logger.Warn("Webhook dedupe unavailable, processing anyway", zap.String("eventID", event.ID), zap.Error(err))
		} else if !first {
			c.JSON(http.StatusOK, gin.H{"received": true, "status": "duplicate"})
			return
		}
	}

	if err := h.handleEvent(ctx, &event); err != nil {
		if h.Once != nil {
			if rerr := h.Once.Release(ctx, event.ID); rerr != nil {
				h.Logger.Warn("Failed to release webhook event", zap.String("eventID", event.ID), zap.Error(rerr))
			}
		}
		h.Logger.Error("Stripe webhook processing failed",
			zap.String("eventID", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to process Stripe webhook", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "status": "processed"})
}

func (h *StripeWebhookHandler) handleEvent(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		h.Logger.Debug("Stripe webhook ignored", zap.String("type", string(event.Type)), zap.String("eventID", event.ID))
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("decode payment_intent: %w", err)
	}

	var err error
	if event.Type == "payment_intent.succeeded" {
		_, err = h.Service.ConfirmPayment(ctx, pi.ID)
	} else {
		_, err = h.Service.MarkPaymentFailed(ctx, pi.ID)
	}
	if errors.Is(err, booking.ErrNotFound) {
		// intent created outside the booking flow
		h.Logger.Info("Stripe event for unknown payment intent", zap.String("intentID", pi.ID))
		return nil
	}
	return err
}
