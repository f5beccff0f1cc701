package handlers

import (
	"net/http"
	"strings"
	"time"

	scheduleRepo "classbook/database/repository/schedule"
	"classbook/models"
	"classbook/services/booking"
	"classbook/services/credit"
	"classbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler encapsulates studio management operations.
type AdminHandler struct {
	Schedules       scheduleRepo.ScheduleRepository
	Ledger          credit.Ledger
	Bookings        booking.BookingService
	DefaultCurrency string
	Logger          *zap.Logger
}

func NewAdminHandler(schedules scheduleRepo.ScheduleRepository, ledger credit.Ledger, bookings booking.BookingService, currency string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		Schedules:       schedules,
		Ledger:          ledger,
		Bookings:        bookings,
		DefaultCurrency: currency,
		Logger:          logger,
	}
}

type createScheduleRequest struct {
	ClassID      string    `json:"class_id" binding:"required"`
	ClassName    string    `json:"class_name"`
	InstructorID string    `json:"instructor_id"`
	LocationID   string    `json:"location_id"`
	ResourceID   string    `json:"resource_id"`
	Capacity     int       `json:"capacity" binding:"min=0"`
	PriceCents   int64     `json:"price_cents" binding:"min=0"`
	Currency     string    `json:"currency"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time"`
}

// CreateSchedule handles POST /api/admin/schedules.
func (h *AdminHandler) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if !req.EndTime.IsZero() && req.EndTime.Before(req.StartTime) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "end_time is before start_time")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.DefaultCurrency
	}

	sc := &models.Schedule{
		ID:           uuid.New().String(),
		ClassID:      req.ClassID,
		ClassName:    req.ClassName,
		InstructorID: req.InstructorID,
		LocationID:   req.LocationID,
		ResourceID:   req.ResourceID,
		Capacity:     req.Capacity,
		PriceCents:   req.PriceCents,
		Currency:     strings.ToLower(currency),
		StartTime:    req.StartTime.UTC(),
		EndTime:      req.EndTime.UTC(),
		Status:       models.ScheduleScheduled,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Schedules.Create(c.Request.Context(), sc); err != nil {
		utils.RespondError(c, err)
		return
	}
	h.Logger.Info("Schedule created", zap.String("scheduleID", sc.ID), zap.String("classID", sc.ClassID))
	c.JSON(http.StatusCreated, sc)
}

// GrantCredits handles POST /api/admin/credits.
func (h *AdminHandler) GrantCredits(c *gin.Context) {
	var req credit.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	id, err := h.Ledger.GrantPackage(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"package_id": id})
}

// PromoteWaitlist handles POST /api/admin/schedules/:id/promote.
func (h *AdminHandler) PromoteWaitlist(c *gin.Context) {
	entry, err := h.Bookings.PromoteWaitlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promoted": entry})
}
