package handlers

import (
	"net/http"

	"classbook/middleware"
	"classbook/services/booking"
	"classbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

type bookRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	CouponCode string `json:"coupon_code"`
	UseCredits bool   `json:"use_credits"`
}

// Book handles POST /api/bookings. Signed-in users default to their token email.
func (h *BookingHandler) Book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	email := req.Email
	if email == "" {
		email = middleware.UserEmail(c)
	}

	res, err := h.Service.Book(c.Request.Context(), req.ScheduleID, booking.Customer{
		UserID:     middleware.UserID(c),
		Email:      email,
		Name:       req.Name,
		Phone:      req.Phone,
		CouponCode: req.CouponCode,
	}, req.UseCredits)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListMine handles GET /api/bookings.
func (h *BookingHandler) ListMine(c *gin.Context) {
	list, err := h.Service.ListUserBookings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type paymentIntentRequest struct {
	PaymentMethod string `json:"payment_method"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

// CreatePaymentIntent handles POST /api/bookings/:id/payment-intent.
func (h *BookingHandler) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
	}

	res, err := h.Service.CreatePaymentIntent(c.Request.Context(), c.Param("id"), req.PaymentMethod, req.Name, req.Email)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	res, err := h.Service.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type rescheduleRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required"`
}

// Reschedule handles POST /api/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	res, err := h.Service.Reschedule(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.ScheduleID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type waitlistRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// JoinWaitlist handles POST /api/schedules/:id/waitlist.
func (h *BookingHandler) JoinWaitlist(c *gin.Context) {
	var req waitlistRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
	}
	if req.Email == "" {
		req.Email = middleware.UserEmail(c)
	}

	entry, err := h.Service.JoinWaitlist(c.Request.Context(), booking.WaitlistRequest{
		ScheduleID: c.Param("id"),
		Email:      req.Email,
		Name:       req.Name,
		UserID:     middleware.UserID(c),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
