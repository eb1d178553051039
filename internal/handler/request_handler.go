package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/middleware"
	"github.com/noah-isme/bus-console-api/internal/upstream"
	"github.com/noah-isme/bus-console-api/pkg/response"
)

// RequestHandler lets a dashboard abandon its in-flight upstream calls, e.g. when leaving a screen.
type RequestHandler struct {
	manager *upstream.RequestManager
	logger  *zap.Logger
}

// NewRequestHandler constructs a request handler.
func NewRequestHandler(manager *upstream.RequestManager, logger *zap.Logger) *RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestHandler{manager: manager, logger: logger}
}

// CancelAll godoc
// @Summary Cancel the caller's in-flight requests
// @Tags Requests
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Success 200 {object} response.Envelope
// @Router /{role}/requests/cancel [post]
func (h *RequestHandler) CancelAll(c *gin.Context) {
	cancelled := h.manager.CancelScope(middleware.Scope(c))
	if cancelled > 0 {
		h.logger.Debug("cancelled in-flight requests", zap.Int("count", cancelled), zap.String("role", string(middleware.Role(c))))
	}
	response.JSON(c, http.StatusOK, gin.H{"cancelled": cancelled}, nil)
}
