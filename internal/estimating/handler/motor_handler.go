package handler

import (
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type MotorHandler struct {
	svc *service.MotorService
}

func NewMotorHandler(svc *service.MotorService) *MotorHandler {
	return &MotorHandler{svc: svc}
}

// ListByProject GET /projects/:id/motors
func (h *MotorHandler) ListByProject(c *gin.Context) {
	motors, err := h.svc.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": motors})
}

// Get GET /motors/:id
func (h *MotorHandler) Get(c *gin.Context) {
	motor, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, motor)
}

// Create POST /motors
func (h *MotorHandler) Create(c *gin.Context) {
	var input service.CreateMotorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	motor, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, motor)
}

// Update PUT /motors/:id
func (h *MotorHandler) Update(c *gin.Context) {
	var input service.UpdateMotorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.ChangedBy == "" {
		input.ChangedBy = GetUserID(c)
	}

	motor, err := h.svc.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, motor)
}

// Delete DELETE /motors/:id
func (h *MotorHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Amps GET /motors/:id/amps
func (h *MotorHandler) Amps(c *gin.Context) {
	result, err := h.svc.Amps(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// ListRevisions GET /motors/:id/revisions
func (h *MotorHandler) ListRevisions(c *gin.Context) {
	revs, err := h.svc.ListRevisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": revs})
}

// Revert POST /motors/:id/revert/:revisionId
func (h *MotorHandler) Revert(c *gin.Context) {
	motor, err := h.svc.RevertToRevision(c.Request.Context(), c.Param("id"), c.Param("revisionId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, motor)
}

// NECAmpTable GET /nec-amps
func (h *MotorHandler) NECAmpTable(c *gin.Context) {
	rows, err := h.svc.NECAmpTable(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": rows})
}

// ListVFDTypes GET /vfd-types
func (h *MotorHandler) ListVFDTypes(c *gin.Context) {
	rows, err := h.svc.ListVFDTypes(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": rows})
}
