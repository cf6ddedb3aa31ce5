package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type PartHandler struct {
	svc *service.PartService
}

func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// List GET /parts
func (h *PartHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	categoryID := c.Query("category_id")
	search := c.Query("search")

	parts, total, err := h.svc.List(c.Request.Context(), categoryID, search, page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: parts,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Get GET /parts/:id
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

// Create POST /parts
func (h *PartHandler) Create(c *gin.Context) {
	var input service.CreatePartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, part)
}

// Update PUT /parts/:id
func (h *PartHandler) Update(c *gin.Context) {
	var input service.UpdatePartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

// Delete DELETE /parts/:id
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// UpdatePrice POST /parts/:id/price
func (h *PartHandler) UpdatePrice(c *gin.Context) {
	var input service.UpdatePriceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.UpdatePrice(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

// PriceHistory GET /parts/:id/price-history
func (h *PartHandler) PriceHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	rows, err := h.svc.PriceHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": rows})
}

// ListCategories GET /parts/categories
func (h *PartHandler) ListCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": cats})
}

// Import POST /parts/import
func (h *PartHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	result, err := h.svc.ImportXLSX(c.Request.Context(), src)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// Export GET /parts/export
func (h *PartHandler) Export(c *gin.Context) {
	f, err := h.svc.ExportXLSX(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("parts_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
