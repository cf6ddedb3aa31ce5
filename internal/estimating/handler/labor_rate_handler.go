package handler

import (
	"strconv"

	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type LaborRateHandler struct {
	svc *service.LaborRateService
}

func NewLaborRateHandler(svc *service.LaborRateService) *LaborRateHandler {
	return &LaborRateHandler{svc: svc}
}

// Current GET /labor-rates
func (h *LaborRateHandler) Current(c *gin.Context) {
	rates, err := h.svc.CurrentRates(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, rates)
}

// Update POST /labor-rates
func (h *LaborRateHandler) Update(c *gin.Context) {
	var input service.UpdateLaborRatesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.CreatedBy == "" {
		input.CreatedBy = GetUserID(c)
	}

	rates, err := h.svc.UpdateRates(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, rates)
}

// History GET /labor-rates/history
func (h *LaborRateHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	rows, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": rows})
}
