package handler

import (
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	projects, total, err := h.svc.List(c.Request.Context(), c.Query("status"), c.Query("search"), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: projects,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, project)
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var input service.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	project, err := h.svc.Create(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, project)
}

// Update PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var input service.UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	project, err := h.svc.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, project)
}

// Delete DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Totals GET /projects/:id/totals
func (h *ProjectHandler) Totals(c *gin.Context) {
	totals, err := h.svc.Totals(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, totals)
}
