package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"classbook/config"
	memoryRepo "classbook/database/repository/memory"
	"classbook/middleware"
	"classbook/models"
	"classbook/services/booking"
	"classbook/services/coupon"
	"classbook/services/credit"
	"classbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	testWebhookSecret = "whsec_test"
	testAdminToken    = "admin-token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct{}

func (stubGateway) CreateIntent(_ context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	return &models.PaymentIntent{ID: "pi_" + req.Metadata["booking_id"], ClientSecret: "secret"}, nil
}

func (stubGateway) RefundIntent(context.Context, string, int64) (string, error) {
	return "re_1", nil
}

type memoryOnce struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memoryOnce) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memoryOnce) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}

type apiFixture struct {
	router *gin.Engine
	store  *memoryRepo.Store
	ledger *credit.DefaultLedger
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	config.AppConfig.JWTSecret = "handler-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = "" })

	store := memoryRepo.NewStore()
	logger := zap.NewNop()
	ledger := credit.NewLedger(store.Credits(), store.Transactions(), "usd", logger)
	validator := coupon.NewValidator(store.Coupons(), store.Bookings())
	svc := booking.NewService(booking.Deps{
		Schedules:    store.Schedules(),
		Bookings:     store.Bookings(),
		Waitlist:     store.Waitlist(),
		Transactions: store.Transactions(),
		Credits:      ledger,
		Coupons:      validator,
		Gateway:      stubGateway{},
		Logger:       logger,
	}, booking.Policy{CancellationWindowHours: 12, RescheduleWindowHours: 12})

	bookings := NewBookingHandler(svc, logger)
	credits := NewCreditHandler(ledger)
	coupons := NewCouponHandler(validator, store.Schedules())
	hook := NewStripeWebhookHandler(svc, testWebhookSecret, &memoryOnce{seen: map[string]bool{}}, logger)
	admin := NewAdminHandler(store.Schedules(), ledger, svc, "usd", logger)

	optional := middleware.JWTAuthUserMiddleware(true)
	strict := middleware.JWTAuthUserMiddleware(false)
	r := gin.New()
	r.POST("/api/bookings", optional, bookings.Book)
	r.GET("/api/bookings", strict, bookings.ListMine)
	r.GET("/api/bookings/:id", strict, bookings.Get)
	r.POST("/api/bookings/:id/payment-intent", optional, bookings.CreatePaymentIntent)
	r.POST("/api/bookings/:id/cancel", strict, bookings.Cancel)
	r.POST("/api/schedules/:id/waitlist", optional, bookings.JoinWaitlist)
	r.GET("/api/credits", strict, credits.GetMine)
	r.POST("/api/coupons/preview", optional, coupons.Preview)
	r.POST("/api/webhooks/stripe", hook.Handle)
	adminGroup := r.Group("/api/admin", middleware.JWTAuthAdminMiddleware(testAdminToken))
	adminGroup.POST("/schedules", admin.CreateSchedule)
	adminGroup.POST("/coupons", coupons.Create)
	adminGroup.POST("/credits", admin.GrantCredits)

	return &apiFixture{router: r, store: store, ledger: ledger}
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) schedule(t *testing.T, id string, capacity int, price int64) {
	t.Helper()
	require.NoError(t, f.store.Schedules().Create(context.Background(), &models.Schedule{
		ID:         id,
		ClassID:    "yoga",
		ClassName:  "Vinyasa Flow",
		Capacity:   capacity,
		PriceCents: price,
		Currency:   "usd",
		StartTime:  time.Now().UTC().Add(72 * time.Hour),
		Status:     models.ScheduleScheduled,
	}))
}

func userToken(t *testing.T, id string) string {
	t.Helper()
	token, err := utils.GenerateToken(id, id+"@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (f *apiFixture) stripeEvent(t *testing.T, id, kind, intentID string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        kind,
		"api_version": "2023-10-16",
		"data": map[string]any{
			"object": map[string]any{"id": intentID, "object": "payment_intent"},
		},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestBookPayAndCancelOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.schedule(t, "s1", 1, 1500)
	token := userToken(t, "u1")

	w := f.do(t, http.MethodPost, "/api/bookings", token, map[string]any{"schedule_id": "s1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode(t, w)
	bookingID := res["booking_id"].(string)
	assert.Equal(t, models.BookingPending, res["status"])
	assert.EqualValues(t, 1500, res["amount_cents"])

	w = f.do(t, http.MethodPost, "/api/bookings", "", map[string]any{"schedule_id": "s1", "email": "guest@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/bookings/"+bookingID+"/payment-intent", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	intentID := decode(t, w)["intent_id"].(string)

	w = f.stripeEvent(t, "evt_1", "payment_intent.succeeded", intentID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processed", decode(t, w)["status"])

	w = f.stripeEvent(t, "evt_1", "payment_intent.succeeded", intentID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", decode(t, w)["status"])

	w = f.do(t, http.MethodGet, "/api/bookings/"+bookingID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BookingConfirmed, decode(t, w)["status"])

	w = f.do(t, http.MethodGet, "/api/bookings/"+bookingID, userToken(t, "u2"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/bookings/"+bookingID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.BookingRefunded, decode(t, w)["status"])

	w = f.do(t, http.MethodGet, "/api/bookings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"], 1)
}

func TestBookValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/bookings", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/bookings", "", map[string]any{"schedule_id": "missing", "email": "a@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Schedule not found.", decode(t, w)["message"])

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/bookings", "", nil).Code)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader([]byte(`{"id":"evt_x"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhookUnknownIntentAndIgnoredTypes(t *testing.T) {
	f := newAPIFixture(t)

	w := f.stripeEvent(t, "evt_a", "payment_intent.succeeded", "pi_unknown")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.stripeEvent(t, "evt_b", "charge.refunded", "pi_unknown")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStripeWebhookPaymentFailed(t *testing.T) {
	f := newAPIFixture(t)
	f.schedule(t, "s1", 3, 900)

	w := f.do(t, http.MethodPost, "/api/bookings", "", map[string]any{"schedule_id": "s1", "email": "guest@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := decode(t, w)["booking_id"].(string)

	w = f.do(t, http.MethodPost, "/api/bookings/"+bookingID+"/payment-intent", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.stripeEvent(t, "evt_f", "payment_intent.payment_failed", "pi_"+bookingID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b, err := f.store.Bookings().GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, b.PaymentStatus)
}

func TestWaitlistJoin(t *testing.T) {
	f := newAPIFixture(t)
	f.schedule(t, "s1", 0, 1000)

	w := f.do(t, http.MethodPost, "/api/schedules/s1/waitlist", "", map[string]any{"email": "W@Example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "w@example.com", decode(t, w)["email"])

	w = f.do(t, http.MethodPost, "/api/schedules/s1/waitlist", "", map[string]any{"email": "w@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, f.store.Waitlist().Len("s1"))
}

func TestCreditsAndAdminGrant(t *testing.T) {
	f := newAPIFixture(t)
	token := userToken(t, "u1")

	w := f.do(t, http.MethodPost, "/api/admin/credits", "", map[string]any{"user_id": "u1", "credits": 5})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/admin/credits", testAdminToken, map[string]any{"user_id": "u1", "name": "5 pack", "credits": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["package_id"])

	w = f.do(t, http.MethodGet, "/api/credits", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 5, body["credits"])
	assert.Len(t, body["packages"], 1)
}

func TestAdminCreateSchedule(t *testing.T) {
	f := newAPIFixture(t)
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	w := f.do(t, http.MethodPost, "/api/admin/schedules", testAdminToken, map[string]any{
		"class_id":    "pilates",
		"class_name":  "Reformer",
		"capacity":    8,
		"price_cents": 3000,
		"start_time":  start,
		"end_time":    start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/admin/schedules", testAdminToken, map[string]any{
		"class_id":    "pilates",
		"class_name":  "Reformer",
		"capacity":    8,
		"price_cents": 3000,
		"start_time":  start,
		"end_time":    start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	sc, err := f.store.Schedules().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleScheduled, sc.Status)
	assert.Equal(t, "usd", sc.Currency)
	assert.Equal(t, 8, sc.Capacity)
}
