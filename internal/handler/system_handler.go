package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/service"
	"github.com/noah-isme/bus-console-api/pkg/response"
)

// ReadinessCheck pings one dependency.
type ReadinessCheck func(ctx context.Context) error

// SystemHandler exposes health, readiness, metrics and the audit trail.
type SystemHandler struct {
	metrics *service.MetricsService
	audit   *service.AuditService
	checks  map[string]ReadinessCheck
}

// NewSystemHandler constructs a system handler.
func NewSystemHandler(metrics *service.MetricsService, audit *service.AuditService, checks map[string]ReadinessCheck) *SystemHandler {
	if checks == nil {
		checks = map[string]ReadinessCheck{}
	}
	return &SystemHandler{metrics: metrics, audit: audit, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *SystemHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every readiness check and answers 503 when one fails.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// Snapshot godoc
// @Summary Console health counters
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/system/metrics [get]
func (h *SystemHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// AuditLogs godoc
// @Summary List console audit entries
// @Tags System
// @Produce json
// @Param resource query string false "schedule or tariff_rate"
// @Param resource_id query string false "Resource identifier"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/audit-logs [get]
func (h *SystemHandler) AuditLogs(c *gin.Context) {
	filter := models.AuditFilter{
		Resource:   c.Query("resource"),
		ResourceID: c.Query("resource_id"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, pagination, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
