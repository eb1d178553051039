package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bus-console-api/internal/middleware"
	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/service"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
	"github.com/noah-isme/bus-console-api/pkg/response"
)

// ScheduleHandler manages schedule endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param date query string false "Departure date (YYYY-MM-DD)"
// @Param status query string false "Schedule status"
// @Param driver query string false "Driver name contains"
// @Param bus query string false "Bus number contains"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleFilter{
		Date:       c.Query("date"),
		Status:     c.Query("status"),
		DriverName: c.Query("driver"),
		BusNumber:  c.Query("bus"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.PageSize = limit
	}

	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Summary godoc
// @Summary Schedule dashboard summary
// @Tags Schedules
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param date query string false "Restrict to a departure date"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules/summary [get]
func (h *ScheduleHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Quote godoc
// @Summary Compute fare ceiling and arrival estimate
// @Tags Schedules
// @Accept json
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param payload body service.QuoteRequest true "Quote payload"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules/quote [post]
func (h *ScheduleHandler) Quote(c *gin.Context) {
	var req service.QuoteRequest
	if !bindJSON(c, &req) {
		return
	}
	quote, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "using_default_rates", quote.UsingDefaults)
	response.JSON(c, http.StatusOK, quote, nil, middleware.ExtractMeta(c))
}

// CheckConflicts godoc
// @Summary Check a candidate schedule for driver or bus double booking
// @Tags Schedules
// @Accept json
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param payload body service.ConflictCheckRequest true "Candidate"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules/conflicts [post]
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var req service.ConflictCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	conflicts, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"conflicts": conflicts, "has_conflicts": len(conflicts) > 0}, nil)
}

// Create godoc
// @Summary Create schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /{role}/schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.ContextAuditResourceKey, schedule.ID.String())
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param id path string true "Schedule ID"
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete schedule
// @Tags Schedules
// @Param role path string true "Console role" Enums(admin, operator)
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /{role}/schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PreviewCancellation godoc
// @Summary Preview the refund of an emergency cancellation
// @Tags Schedules
// @Accept json
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param id path string true "Schedule ID"
// @Param payload body service.EmergencyCancelRequest true "Reason and refund percentage"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules/{id}/emergency-cancel/preview [post]
func (h *ScheduleHandler) PreviewCancellation(c *gin.Context) {
	var req service.EmergencyCancelRequest
	if !bindJSON(c, &req) {
		return
	}
	preview, err := h.service.PreviewCancellation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// EmergencyCancel godoc
// @Summary Cancel a schedule and refund its bookings
// @Tags Schedules
// @Accept json
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param id path string true "Schedule ID"
// @Param payload body service.EmergencyCancelRequest true "Reason and refund percentage"
// @Success 200 {object} response.Envelope
// @Router /{role}/schedules/{id}/emergency-cancel [post]
func (h *ScheduleHandler) EmergencyCancel(c *gin.Context) {
	var req service.EmergencyCancelRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.EmergencyCancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
