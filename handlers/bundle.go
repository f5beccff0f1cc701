package handlers

// HandlerBundle groups the endpoint handlers the router needs.
type HandlerBundle struct {
	Bookings *BookingHandler
	Credits  *CreditHandler
	Coupons  *CouponHandler
	Webhooks *StripeWebhookHandler
	Admin    *AdminHandler

	AdminToken        string
	MaxRequestsPerMin int
}
