package handlers

import (
	"errors"
	"net/http"

	"classbook/database"
	scheduleRepo "classbook/database/repository/schedule"
	"classbook/middleware"
	"classbook/services/coupon"
	"classbook/utils"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	Validator *coupon.Validator
	Schedules scheduleRepo.ScheduleRepository
}

func NewCouponHandler(v *coupon.Validator, schedules scheduleRepo.ScheduleRepository) *CouponHandler {
	return &CouponHandler{Validator: v, Schedules: schedules}
}

type previewRequest struct {
	Code       string `json:"code" binding:"required"`
	ScheduleID string `json:"schedule_id" binding:"required"`
	Email      string `json:"email"`
}

// Preview handles POST /api/coupons/preview: prices a coupon for a schedule
// without redeeming it.
func (h *CouponHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	ctx := c.Request.Context()

	sc, err := h.Schedules.GetByID(ctx, req.ScheduleID)
	if errors.Is(err, database.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "Schedule not found.", "")
		return
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	cp, err := h.Validator.Lookup(ctx, req.Code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	email := req.Email
	if email == "" {
		email = middleware.UserEmail(c)
	}
	discount, err := h.Validator.Validate(ctx, cp, sc, middleware.UserID(c), email, sc.PriceCents)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":             cp.Code,
		"amount_cents":     sc.PriceCents,
		"discount_cents":   discount,
		"amount_due_cents": sc.PriceCents - discount,
		"currency":         sc.Currency,
	})
}

// Create handles POST /api/admin/coupons.
func (h *CouponHandler) Create(c *gin.Context) {
	var req coupon.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	cp, err := h.Validator.Create(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}
