package routes

import (
	"time"

	"classbook/handlers"
	"classbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers booking endpoints. Creating a booking, paying
// for it and joining a waitlist accept guests; everything else needs a user.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	optional := middleware.JWTAuthUserMiddleware(true)
	strict := middleware.JWTAuthUserMiddleware(false)

	api := r.Group("/api/bookings")
	{
		api.POST("", optional, hb.Bookings.Book)
		api.POST("/:id/payment-intent", optional, hb.Bookings.CreatePaymentIntent)

		protected := api.Group("")
		protected.Use(strict)
		protected.GET("", hb.Bookings.ListMine)
		protected.GET("/:id", hb.Bookings.Get)
		protected.POST("/:id/cancel", hb.Bookings.Cancel)
		protected.POST("/:id/reschedule", hb.Bookings.Reschedule)
	}

	r.POST("/api/schedules/:id/waitlist", optional, hb.Bookings.JoinWaitlist)
	r.GET("/api/credits", strict, hb.Credits.GetMine)
	r.POST("/api/coupons/preview", optional, hb.Coupons.Preview)
}

// RegisterWebhookRoutes registers payment processor callbacks.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhooks/stripe", hb.Webhooks.Handle)
}

// RegisterAdminRoutes sets up endpoints for studio staff.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthAdminMiddleware(hb.AdminToken))
		adminGroup.POST("/schedules", hb.Admin.CreateSchedule)
		adminGroup.POST("/schedules/:id/promote", hb.Admin.PromoteWaitlist)
		adminGroup.POST("/coupons", hb.Coupons.Create)
		adminGroup.POST("/credits", hb.Admin.GrantCredits)
	}
}

// RegisterHealthRoute exposes the dependency probe.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if hb.MaxRequestsPerMin > 0 {
		r.Use(middleware.RateLimitMiddleware(hb.MaxRequestsPerMin))
	}

	RegisterHealthRoute(r)
	RegisterWebhookRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
