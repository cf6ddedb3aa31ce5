package handler

import (
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type StandardAssemblyHandler struct {
	svc *service.StandardAssemblyService
}

func NewStandardAssemblyHandler(svc *service.StandardAssemblyService) *StandardAssemblyHandler {
	return &StandardAssemblyHandler{svc: svc}
}

// List GET /standard-assemblies
func (h *StandardAssemblyHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	templatesOnly := c.Query("templates_only") == "true"

	rows, total, err := h.svc.List(c.Request.Context(), c.Query("category_id"), c.Query("search"), templatesOnly, page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: rows,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Get GET /standard-assemblies/:id
func (h *StandardAssemblyHandler) Get(c *gin.Context) {
	sa, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, sa)
}

// Create POST /standard-assemblies
func (h *StandardAssemblyHandler) Create(c *gin.Context) {
	var input service.CreateStandardAssemblyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.CreatedBy == "" {
		input.CreatedBy = GetUserID(c)
	}

	sa, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, sa)
}

// Update PUT /standard-assemblies/:id
func (h *StandardAssemblyHandler) Update(c *gin.Context) {
	var input service.UpdateStandardAssemblyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	sa, err := h.svc.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, sa)
}

// Delete DELETE /standard-assemblies/:id
func (h *StandardAssemblyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Cost GET /standard-assemblies/:id/cost
func (h *StandardAssemblyHandler) Cost(c *gin.Context) {
	total, count, err := h.svc.Cost(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"total_cost": total, "component_count": count})
}

// AddComponent POST /standard-assemblies/:id/components
func (h *StandardAssemblyHandler) AddComponent(c *gin.Context) {
	var input service.ComponentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	comp, err := h.svc.AddComponent(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, comp)
}

// UpdateComponent PUT /standard-assemblies/:id/components/:componentId
func (h *StandardAssemblyHandler) UpdateComponent(c *gin.Context) {
	var input service.UpdateComponentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	comp, err := h.svc.UpdateComponent(c.Request.Context(), c.Param("componentId"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, comp)
}

// RemoveComponent DELETE /standard-assemblies/:id/components/:componentId
func (h *StandardAssemblyHandler) RemoveComponent(c *gin.Context) {
	if err := h.svc.RemoveComponent(c.Request.Context(), c.Param("componentId")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// CreateVersion POST /standard-assemblies/:id/versions
func (h *StandardAssemblyHandler) CreateVersion(c *gin.Context) {
	var input service.CreateVersionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.CreatedBy == "" {
		input.CreatedBy = GetUserID(c)
	}

	sa, err := h.svc.CreateVersion(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, sa)
}

// ListVersions GET /standard-assemblies/:id/versions
func (h *StandardAssemblyHandler) ListVersions(c *gin.Context) {
	rows, err := h.svc.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": rows})
}

// CompareVersions GET /standard-assemblies/:id/versions/compare?a=1.0&b=1.1
func (h *StandardAssemblyHandler) CompareVersions(c *gin.Context) {
	versionA := c.Query("a")
	versionB := c.Query("b")
	if versionA == "" || versionB == "" {
		BadRequest(c, "both a and b version parameters are required")
		return
	}

	diff, err := h.svc.CompareVersions(c.Request.Context(), c.Param("id"), versionA, versionB)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, diff)
}

// Apply POST /standard-assemblies/:id/apply/:estimateId
func (h *StandardAssemblyHandler) Apply(c *gin.Context) {
	var input service.ApplyTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	assembly, err := h.svc.ApplyToEstimate(c.Request.Context(), c.Param("id"), c.Param("estimateId"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, assembly)
}

// ListCategories GET /assembly-categories
func (h *StandardAssemblyHandler) ListCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": cats})
}

// CreateCategory POST /assembly-categories
func (h *StandardAssemblyHandler) CreateCategory(c *gin.Context) {
	var input service.CreateAssemblyCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cat, err := h.svc.CreateCategory(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, cat)
}

// ResolveVersion POST /assemblies/:id/resolve-version
func (h *StandardAssemblyHandler) ResolveVersion(c *gin.Context) {
	var input struct {
		TargetVersion string `json:"target_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	assembly, err := h.svc.ResolveVersion(c.Request.Context(), c.Param("id"), input.TargetVersion)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, assembly)
}

// Rematerialize POST /assemblies/:id/rematerialize
func (h *StandardAssemblyHandler) Rematerialize(c *gin.Context) {
	var input struct {
		Policy string `json:"policy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	assembly, err := h.svc.Rematerialize(c.Request.Context(), c.Param("id"), input.Policy)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, assembly)
}
