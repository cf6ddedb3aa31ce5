package service

import (
	"context"
	"fmt"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/google/uuid"
)

type ProjectService struct {
	projects  *repository.ProjectRepository
	estimates *repository.EstimateRepository
	motors    *repository.MotorRepository
}

func NewProjectService(
	projects *repository.ProjectRepository,
	estimates *repository.EstimateRepository,
	motors *repository.MotorRepository,
) *ProjectService {
	return &ProjectService{projects: projects, estimates: estimates, motors: motors}
}

func (s *ProjectService) Create(ctx context.Context, input *CreateProjectInput) (*entity.Project, error) {
	p := &entity.Project{
		ID:          uuid.New().String()[:32],
		ProjectName: input.ProjectName,
		ClientName:  input.ClientName,
		Description: input.Description,
		Status:      "draft",
		IsActive:    true,
		Revision:    input.Revision,
		Remarks:     input.Remarks,
	}
	if input.Status != "" {
		p.Status = input.Status
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.projects.FindByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context, status, search string, page, pageSize int) ([]entity.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.projects.List(ctx, status, search, (page-1)*pageSize, pageSize)
}

func (s *ProjectService) Update(ctx context.Context, id string, input *UpdateProjectInput) (*entity.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.ProjectName != nil {
		p.ProjectName = *input.ProjectName
	}
	if input.ClientName != nil {
		p.ClientName = *input.ClientName
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	if input.Revision != nil {
		p.Revision = *input.Revision
	}
	if input.Remarks != nil {
		p.Remarks = *input.Remarks
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.projects.FindByID(ctx, id)
}

// Delete cascades through estimates, assemblies, parts, components, motors
// and their revisions in one transaction.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		return err
	}
	return s.projects.DeleteCascade(ctx, id)
}

// Totals aggregates over non-optional estimates only. Optional estimates
// never contribute to any project-level figure.
func (s *ProjectService) Totals(ctx context.Context, id string) (*ProjectTotals, error) {
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		return nil, err
	}
	estimates, err := s.estimates.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}

	t := &ProjectTotals{ProjectID: id}
	for i := range estimates {
		et := computeEstimateTotals(&estimates[i])
		t.Estimates = append(t.Estimates, *et)
		if estimates[i].IsOptional {
			continue
		}
		t.MaterialCost += et.MaterialCost
		t.LaborCost += et.LaborCost
		t.TotalHours += et.TotalHours
		t.GrandTotal += et.GrandTotal
	}
	return t, nil
}

type CreateProjectInput struct {
	ProjectName string `json:"project_name" binding:"required"`
	ClientName  string `json:"client_name" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Revision    string `json:"revision"`
	Remarks     string `json:"remarks"`
}

type UpdateProjectInput struct {
	ProjectName *string `json:"project_name"`
	ClientName  *string `json:"client_name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Revision    *string `json:"revision"`
	Remarks     *string `json:"remarks"`
	IsActive    *bool   `json:"is_active"`
}

type ProjectTotals struct {
	ProjectID    string           `json:"project_id"`
	Estimates    []EstimateTotals `json:"estimates,omitempty"`
	MaterialCost float64          `json:"material_cost"`
	LaborCost    float64          `json:"labor_cost"`
	TotalHours   float64          `json:"total_hours"`
	GrandTotal   float64          `json:"grand_total"`
}
