package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bus-console-api/internal/middleware"
	"github.com/noah-isme/bus-console-api/internal/service"
	"github.com/noah-isme/bus-console-api/pkg/response"
)

// TariffHandler exposes tariff rates.
type TariffHandler struct {
	service *service.TariffService
}

// NewTariffHandler constructs a tariff handler.
func NewTariffHandler(svc *service.TariffService) *TariffHandler {
	return &TariffHandler{service: svc}
}

// Current godoc
// @Summary Rates applied to each bus category
// @Description Falls back to the built-in rate table when the provider has none.
// @Tags Tariffs
// @Produce json
// @Param role path string true "Console role" Enums(admin, operator)
// @Success 200 {object} response.Envelope
// @Router /{role}/tariff-rates/current [get]
func (h *TariffHandler) Current(c *gin.Context) {
	rates, usingDefaults := h.service.EffectiveRates(c.Request.Context())
	middleware.SetMeta(c, "using_default_rates", usingDefaults)
	response.JSON(c, http.StatusOK, rates, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List tariff rate records
// @Tags Tariffs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/tariff-rates [get]
func (h *TariffHandler) List(c *gin.Context) {
	rates, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rates, nil)
}

// Create godoc
// @Summary Create tariff rate
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param payload body service.TariffRateRequest true "Tariff rate"
// @Success 201 {object} response.Envelope
// @Router /admin/tariff-rates [post]
func (h *TariffHandler) Create(c *gin.Context) {
	var req service.TariffRateRequest
	if !bindJSON(c, &req) {
		return
	}
	rate, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.ContextAuditResourceKey, rate.ID.String())
	response.Created(c, rate)
}

// Update godoc
// @Summary Update tariff rate
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param id path string true "Tariff rate ID"
// @Param payload body service.TariffRateRequest true "Tariff rate"
// @Success 200 {object} response.Envelope
// @Router /admin/tariff-rates/{id} [put]
func (h *TariffHandler) Update(c *gin.Context) {
	var req service.TariffRateRequest
	if !bindJSON(c, &req) {
		return
	}
	rate, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rate, nil)
}

// Delete godoc
// @Summary Delete tariff rate
// @Tags Tariffs
// @Param id path string true "Tariff rate ID"
// @Success 204
// @Router /admin/tariff-rates/{id} [delete]
func (h *TariffHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
