package service

import (
	"context"
	"fmt"
	"time"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/google/uuid"
)

// Fallback labor rates used when no current rate row exists yet.
const (
	defaultEngineeringRate     = 145
	defaultPanelShopRate       = 125
	defaultMachineAssemblyRate = 125
)

type EstimateService struct {
	estimates  *repository.EstimateRepository
	projects   *repository.ProjectRepository
	assemblies *repository.AssemblyRepository
	parts      *repository.PartRepository
	laborRates *LaborRateService
}

func NewEstimateService(
	estimates *repository.EstimateRepository,
	projects *repository.ProjectRepository,
	assemblies *repository.AssemblyRepository,
	parts *repository.PartRepository,
	laborRates *LaborRateService,
) *EstimateService {
	return &EstimateService{
		estimates:  estimates,
		projects:   projects,
		assemblies: assemblies,
		parts:      parts,
		laborRates: laborRates,
	}
}

// Create snapshots the current labor rates onto the new estimate so later
// rate changes never move this quote.
func (s *EstimateService) Create(ctx context.Context, input *CreateEstimateInput) (*entity.Estimate, error) {
	if _, err := s.projects.FindByID(ctx, input.ProjectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", input.ProjectID, err)
	}
	exists, err := s.estimates.ExistsByNumber(ctx, input.EstimateNumber)
	if err != nil {
		return nil, fmt.Errorf("check estimate number: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: estimate number %s already in use", ErrConflict, input.EstimateNumber)
	}

	now := time.Now()
	e := &entity.Estimate{
		ID:                  uuid.New().String()[:32],
		ProjectID:           input.ProjectID,
		EstimateNumber:      input.EstimateNumber,
		EstimateName:        input.EstimateName,
		Description:         input.Description,
		SortOrder:           input.SortOrder,
		IsOptional:          input.IsOptional,
		EngineeringRate:     defaultEngineeringRate,
		PanelShopRate:       defaultPanelShopRate,
		MachineAssemblyRate: defaultMachineAssemblyRate,
		RateSnapshotDate:    &now,
	}
	if rates, err := s.laborRates.CurrentRates(ctx); err == nil {
		e.EngineeringRate = rates.EngineeringRate
		e.PanelShopRate = rates.PanelShopRate
		e.MachineAssemblyRate = rates.MachineAssemblyRate
	}

	if err := s.estimates.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create estimate: %w", err)
	}
	return s.estimates.FindByID(ctx, e.ID)
}

func (s *EstimateService) Get(ctx context.Context, id string) (*entity.Estimate, error) {
	return s.estimates.FindByID(ctx, id)
}

func (s *EstimateService) ListByProject(ctx context.Context, projectID string) ([]entity.Estimate, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.estimates.ListByProject(ctx, projectID)
}

func (s *EstimateService) Update(ctx context.Context, id string, input *UpdateEstimateInput) (*entity.Estimate, error) {
	e, err := s.estimates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.EstimateName != nil {
		e.EstimateName = *input.EstimateName
	}
	if input.Description != nil {
		e.Description = *input.Description
	}
	if input.SortOrder != nil {
		e.SortOrder = *input.SortOrder
	}
	if input.IsOptional != nil {
		e.IsOptional = *input.IsOptional
	}
	if input.EngineeringHours != nil {
		e.EngineeringHours = *input.EngineeringHours
	}
	if input.PanelShopHours != nil {
		e.PanelShopHours = *input.PanelShopHours
	}
	if input.MachineAssemblyHours != nil {
		e.MachineAssemblyHours = *input.MachineAssemblyHours
	}
	if err := s.estimates.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update estimate: %w", err)
	}
	return s.estimates.FindByID(ctx, id)
}

func (s *EstimateService) Delete(ctx context.Context, id string) error {
	if _, err := s.estimates.FindByID(ctx, id); err != nil {
		return err
	}
	return s.estimates.Delete(ctx, id)
}

// Totals recomputes every aggregate from current child state. Nothing here is
// cached; a price change is visible on the next read.
func (s *EstimateService) Totals(ctx context.Context, id string) (*EstimateTotals, error) {
	e, err := s.estimates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return computeEstimateTotals(e), nil
}

func computeEstimateTotals(e *entity.Estimate) *EstimateTotals {
	t := &EstimateTotals{
		EstimateID:     e.ID,
		EstimateNumber: e.EstimateNumber,
		IsOptional:     e.IsOptional,
	}
	for i := range e.Assemblies {
		var assemblyTotal float64
		for j := range e.Assemblies[i].Parts {
			assemblyTotal += e.Assemblies[i].Parts[j].LineTotal()
		}
		t.Assemblies = append(t.Assemblies, AssemblyTotal{
			AssemblyID:   e.Assemblies[i].ID,
			AssemblyName: e.Assemblies[i].AssemblyName,
			Total:        assemblyTotal,
		})
		t.MaterialCost += assemblyTotal
	}
	for i := range e.Components {
		t.MaterialCost += e.Components[i].TotalPrice()
	}

	t.EngineeringCost = e.EngineeringHours * e.EngineeringRate
	t.PanelShopCost = e.PanelShopHours * e.PanelShopRate
	t.MachineAssemblyCost = e.MachineAssemblyHours * e.MachineAssemblyRate
	t.LaborCost = t.EngineeringCost + t.PanelShopCost + t.MachineAssemblyCost
	t.TotalHours = e.EngineeringHours + e.PanelShopHours + e.MachineAssemblyHours
	t.GrandTotal = t.MaterialCost + t.LaborCost
	return t
}

func (s *EstimateService) AddAssembly(ctx context.Context, estimateID string, input *CreateAssemblyInput) (*entity.Assembly, error) {
	if _, err := s.estimates.FindByID(ctx, estimateID); err != nil {
		return nil, err
	}
	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}
	a := &entity.Assembly{
		ID:           uuid.New().String()[:32],
		EstimateID:   estimateID,
		AssemblyName: input.AssemblyName,
		Description:  input.Description,
		Quantity:     qty,
		SortOrder:    input.SortOrder,
	}
	if err := s.assemblies.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create assembly: %w", err)
	}
	return s.assemblies.FindByID(ctx, a.ID)
}

func (s *EstimateService) AddAssemblyPart(ctx context.Context, assemblyID string, input *AssemblyPartInput) (*entity.AssemblyPart, error) {
	if _, err := s.assemblies.FindByID(ctx, assemblyID); err != nil {
		return nil, err
	}
	if _, err := s.parts.FindByID(ctx, input.PartID); err != nil {
		return nil, fmt.Errorf("part %s: %w", input.PartID, err)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	ap := &entity.AssemblyPart{
		ID:            uuid.New().String()[:32],
		AssemblyID:    assemblyID,
		PartID:        input.PartID,
		Quantity:      input.Quantity,
		UnitOfMeasure: input.UnitOfMeasure,
		Notes:         input.Notes,
		SortOrder:     input.SortOrder,
	}
	if ap.UnitOfMeasure == "" {
		ap.UnitOfMeasure = "EA"
	}
	if err := s.assemblies.AddPart(ctx, ap); err != nil {
		return nil, fmt.Errorf("add assembly part: %w", err)
	}
	return s.assemblies.FindPart(ctx, ap.ID)
}

func (s *EstimateService) UpdateAssemblyPart(ctx context.Context, partLineID string, input *UpdateAssemblyPartInput) (*entity.AssemblyPart, error) {
	ap, err := s.assemblies.FindPart(ctx, partLineID)
	if err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		ap.Quantity = *input.Quantity
	}
	if input.UnitOfMeasure != nil {
		ap.UnitOfMeasure = *input.UnitOfMeasure
	}
	if input.Notes != nil {
		ap.Notes = *input.Notes
	}
	if input.SortOrder != nil {
		ap.SortOrder = *input.SortOrder
	}
	if err := s.assemblies.UpdatePart(ctx, ap); err != nil {
		return nil, fmt.Errorf("update assembly part: %w", err)
	}
	return s.assemblies.FindPart(ctx, partLineID)
}

func (s *EstimateService) RemoveAssemblyPart(ctx context.Context, partLineID string) error {
	if _, err := s.assemblies.FindPart(ctx, partLineID); err != nil {
		return err
	}
	return s.assemblies.DeletePart(ctx, partLineID)
}

func (s *EstimateService) DeleteAssembly(ctx context.Context, assemblyID string) error {
	if _, err := s.assemblies.FindByID(ctx, assemblyID); err != nil {
		return err
	}
	return s.assemblies.Delete(ctx, assemblyID)
}

// AddComponent adds a standalone line. When PartID is set the unit price
// defaults to the part's current price unless the caller overrides it.
func (s *EstimateService) AddComponent(ctx context.Context, estimateID string, input *EstimateComponentInput) (*entity.EstimateComponent, error) {
	if _, err := s.estimates.FindByID(ctx, estimateID); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	c := &entity.EstimateComponent{
		ID:            uuid.New().String()[:32],
		EstimateID:    estimateID,
		PartID:        input.PartID,
		ComponentName: input.ComponentName,
		Description:   input.Description,
		PartNumber:    input.PartNumber,
		Manufacturer:  input.Manufacturer,
		UnitPrice:     input.UnitPrice,
		Quantity:      input.Quantity,
		UnitOfMeasure: input.UnitOfMeasure,
		CategoryName:  input.Category,
		Notes:         input.Notes,
		SortOrder:     input.SortOrder,
	}
	if c.UnitOfMeasure == "" {
		c.UnitOfMeasure = "EA"
	}
	if input.PartID != nil {
		part, err := s.parts.FindByID(ctx, *input.PartID)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", *input.PartID, err)
		}
		if c.ComponentName == "" {
			c.ComponentName = part.Description
		}
		if c.PartNumber == "" {
			c.PartNumber = part.PartNumber
		}
		if c.Manufacturer == "" {
			c.Manufacturer = part.Manufacturer
		}
		if input.UnitPrice == 0 {
			c.UnitPrice = part.CurrentPrice()
		}
	}
	if err := s.estimates.AddComponent(ctx, c); err != nil {
		return nil, fmt.Errorf("add estimate component: %w", err)
	}
	return s.estimates.FindComponent(ctx, c.ID)
}

func (s *EstimateService) UpdateComponent(ctx context.Context, componentID string, input *UpdateEstimateComponentInput) (*entity.EstimateComponent, error) {
	c, err := s.estimates.FindComponent(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if input.ComponentName != nil {
		c.ComponentName = *input.ComponentName
	}
	if input.Description != nil {
		c.Description = *input.Description
	}
	if input.UnitPrice != nil {
		c.UnitPrice = *input.UnitPrice
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		c.Quantity = *input.Quantity
	}
	if input.Notes != nil {
		c.Notes = *input.Notes
	}
	if input.SortOrder != nil {
		c.SortOrder = *input.SortOrder
	}
	if err := s.estimates.UpdateComponent(ctx, c); err != nil {
		return nil, fmt.Errorf("update estimate component: %w", err)
	}
	return s.estimates.FindComponent(ctx, componentID)
}

func (s *EstimateService) RemoveComponent(ctx context.Context, componentID string) error {
	if _, err := s.estimates.FindComponent(ctx, componentID); err != nil {
		return err
	}
	return s.estimates.DeleteComponent(ctx, componentID)
}

// CreateRevision bumps the revision counter and records the change summary.
func (s *EstimateService) CreateRevision(ctx context.Context, estimateID string, input *CreateRevisionInput) (*entity.EstimateRevision, error) {
	e, err := s.estimates.FindByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	rev := &entity.EstimateRevision{
		ID:              uuid.New().String()[:32],
		EstimateID:      estimateID,
		RevisionNumber:  e.RevisionNumber + 1,
		ChangesSummary:  input.ChangesSummary,
		DetailedChanges: input.DetailedChanges,
		CreatedBy:       input.CreatedBy,
	}
	if err := s.estimates.CreateRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("create revision: %w", err)
	}

	e.RevisionNumber = rev.RevisionNumber
	if err := s.estimates.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("advance revision counter: %w", err)
	}
	return rev, nil
}

func (s *EstimateService) ListRevisions(ctx context.Context, estimateID string) ([]entity.EstimateRevision, error) {
	if _, err := s.estimates.FindByID(ctx, estimateID); err != nil {
		return nil, err
	}
	return s.estimates.ListRevisions(ctx, estimateID)
}

type CreateEstimateInput struct {
	ProjectID      string `json:"project_id" binding:"required"`
	EstimateNumber string `json:"estimate_number" binding:"required"`
	EstimateName   string `json:"estimate_name" binding:"required"`
	Description    string `json:"description"`
	SortOrder      int    `json:"sort_order"`
	IsOptional     bool   `json:"is_optional"`
}

type UpdateEstimateInput struct {
	EstimateName         *string  `json:"estimate_name"`
	Description          *string  `json:"description"`
	SortOrder            *int     `json:"sort_order"`
	IsOptional           *bool    `json:"is_optional"`
	EngineeringHours     *float64 `json:"engineering_hours"`
	PanelShopHours       *float64 `json:"panel_shop_hours"`
	MachineAssemblyHours *float64 `json:"machine_assembly_hours"`
}

type CreateAssemblyInput struct {
	AssemblyName string  `json:"assembly_name" binding:"required"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	SortOrder    int     `json:"sort_order"`
}

type AssemblyPartInput struct {
	PartID        string  `json:"part_id" binding:"required"`
	Quantity      float64 `json:"quantity" binding:"required"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	Notes         string  `json:"notes"`
	SortOrder     int     `json:"sort_order"`
}

type UpdateAssemblyPartInput struct {
	Quantity      *float64 `json:"quantity"`
	UnitOfMeasure *string  `json:"unit_of_measure"`
	Notes         *string  `json:"notes"`
	SortOrder     *int     `json:"sort_order"`
}

type EstimateComponentInput struct {
	PartID        *string `json:"part_id"`
	ComponentName string  `json:"component_name"`
	Description   string  `json:"description"`
	PartNumber    string  `json:"part_number"`
	Manufacturer  string  `json:"manufacturer"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      float64 `json:"quantity" binding:"required"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	Category      string  `json:"category"`
	Notes         string  `json:"notes"`
	SortOrder     int     `json:"sort_order"`
}

type UpdateEstimateComponentInput struct {
	ComponentName *string  `json:"component_name"`
	Description   *string  `json:"description"`
	UnitPrice     *float64 `json:"unit_price"`
	Quantity      *float64 `json:"quantity"`
	Notes         *string  `json:"notes"`
	SortOrder     *int     `json:"sort_order"`
}

type CreateRevisionInput struct {
	ChangesSummary  string `json:"changes_summary"`
	DetailedChanges string `json:"detailed_changes"`
	CreatedBy       string `json:"created_by"`
}

type EstimateTotals struct {
	EstimateID          string          `json:"estimate_id"`
	EstimateNumber      string          `json:"estimate_number"`
	IsOptional          bool            `json:"is_optional"`
	Assemblies          []AssemblyTotal `json:"assemblies,omitempty"`
	MaterialCost        float64         `json:"material_cost"`
	EngineeringCost     float64         `json:"engineering_cost"`
	PanelShopCost       float64         `json:"panel_shop_cost"`
	MachineAssemblyCost float64         `json:"machine_assembly_cost"`
	LaborCost           float64         `json:"labor_cost"`
	TotalHours          float64         `json:"total_hours"`
	GrandTotal          float64         `json:"grand_total"`
}

type AssemblyTotal struct {
	AssemblyID   string  `json:"assembly_id"`
	AssemblyName string  `json:"assembly_name"`
	Total        float64 `json:"total"`
}
