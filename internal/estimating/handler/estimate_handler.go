package handler

import (
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type EstimateHandler struct {
	svc *service.EstimateService
}

func NewEstimateHandler(svc *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{svc: svc}
}

// ListByProject GET /projects/:id/estimates
func (h *EstimateHandler) ListByProject(c *gin.Context) {
	estimates, err := h.svc.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": estimates})
}

// Get GET /estimates/:id
func (h *EstimateHandler) Get(c *gin.Context) {
	estimate, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, estimate)
}

// Create POST /estimates
func (h *EstimateHandler) Create(c *gin.Context) {
	var input service.CreateEstimateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	estimate, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, estimate)
}

// Update PUT /estimates/:id
func (h *EstimateHandler) Update(c *gin.Context) {
	var input service.UpdateEstimateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	estimate, err := h.svc.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, estimate)
}

// Delete DELETE /estimates/:id
func (h *EstimateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Totals GET /estimates/:id/totals
func (h *EstimateHandler) Totals(c *gin.Context) {
	totals, err := h.svc.Totals(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, totals)
}

// AddAssembly POST /estimates/:id/assemblies
func (h *EstimateHandler) AddAssembly(c *gin.Context) {
	var input service.CreateAssemblyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	assembly, err := h.svc.AddAssembly(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, assembly)
}

// DeleteAssembly DELETE /assemblies/:id
func (h *EstimateHandler) DeleteAssembly(c *gin.Context) {
	if err := h.svc.DeleteAssembly(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// AddAssemblyPart POST /assemblies/:id/parts
func (h *EstimateHandler) AddAssemblyPart(c *gin.Context) {
	var input service.AssemblyPartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	ap, err := h.svc.AddAssemblyPart(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, ap)
}

// UpdateAssemblyPart PUT /assembly-parts/:id
func (h *EstimateHandler) UpdateAssemblyPart(c *gin.Context) {
	var input service.UpdateAssemblyPartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	ap, err := h.svc.UpdateAssemblyPart(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ap)
}

// RemoveAssemblyPart DELETE /assembly-parts/:id
func (h *EstimateHandler) RemoveAssemblyPart(c *gin.Context) {
	if err := h.svc.RemoveAssemblyPart(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// AddComponent POST /estimates/:id/components
func (h *EstimateHandler) AddComponent(c *gin.Context) {
	var input service.EstimateComponentInput
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

// UpdateComponent PUT /estimate-components/:id
func (h *EstimateHandler) UpdateComponent(c *gin.Context) {
	var input service.UpdateEstimateComponentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	comp, err := h.svc.UpdateComponent(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, comp)
}

// RemoveComponent DELETE /estimate-components/:id
func (h *EstimateHandler) RemoveComponent(c *gin.Context) {
	if err := h.svc.RemoveComponent(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// CreateRevision POST /estimates/:id/revisions
func (h *EstimateHandler) CreateRevision(c *gin.Context) {
	var input service.CreateRevisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.CreatedBy == "" {
		input.CreatedBy = GetUserID(c)
	}

	rev, err := h.svc.CreateRevision(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, rev)
}

// ListRevisions GET /estimates/:id/revisions
func (h *EstimateHandler) ListRevisions(c *gin.Context) {
	revs, err := h.svc.ListRevisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": revs})
}
