package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bus-console-api/internal/service"
	"github.com/noah-isme/bus-console-api/pkg/response"
)

// CatalogHandler serves routes, buses and drivers.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Routes godoc
// @Summary List routes
// @Tags Catalog
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Success 200 {object} response.Envelope
// @Router /{role}/routes [get]
func (h *CatalogHandler) Routes(c *gin.Context) {
	routes, err := h.service.Routes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, nil)
}

// Buses godoc
// @Summary List buses
// @Tags Catalog
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Param active query bool false "Only buses that can be scheduled"
// @Success 200 {object} response.Envelope
// @Router /{role}/buses [get]
func (h *CatalogHandler) Buses(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	buses, err := h.service.Buses(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buses, nil)
}

// Drivers godoc
// @Summary List drivers
// @Tags Catalog
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Success 200 {object} response.Envelope
// @Router /{role}/drivers [get]
func (h *CatalogHandler) Drivers(c *gin.Context) {
	drivers, err := h.service.Drivers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drivers, nil)
}
