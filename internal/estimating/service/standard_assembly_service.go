package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/google/uuid"
)

// Rematerialization policies. Replace discards local edits and rebuilds the
// part list from the template; merge keeps local lines and only adjusts lines
// whose part also appears in the template.
const (
	RematerializeReplace = "replace"
	RematerializeMerge   = "merge"
)

type StandardAssemblyService struct {
	templates  *repository.StandardAssemblyRepository
	categories *repository.AssemblyCategoryRepository
	assemblies *repository.AssemblyRepository
	parts      *repository.PartRepository
}

func NewStandardAssemblyService(
	templates *repository.StandardAssemblyRepository,
	categories *repository.AssemblyCategoryRepository,
	assemblies *repository.AssemblyRepository,
	parts *repository.PartRepository,
) *StandardAssemblyService {
	return &StandardAssemblyService{
		templates:  templates,
		categories: categories,
		assemblies: assemblies,
		parts:      parts,
	}
}

func (s *StandardAssemblyService) Create(ctx context.Context, input *CreateStandardAssemblyInput) (*entity.StandardAssembly, error) {
	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		return nil, fmt.Errorf("category %s: %w", input.CategoryID, err)
	}
	sa := &entity.StandardAssembly{
		ID:             uuid.New().String()[:32],
		Name:           input.Name,
		AssemblyNumber: input.AssemblyNumber,
		Description:    input.Description,
		CategoryID:     input.CategoryID,
		Version:        "1.0",
		IsActive:       true,
		IsTemplate:     true,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.templates.Create(ctx, sa); err != nil {
		return nil, fmt.Errorf("create standard assembly: %w", err)
	}
	return s.templates.FindByID(ctx, sa.ID)
}

func (s *StandardAssemblyService) Get(ctx context.Context, id string) (*entity.StandardAssembly, error) {
	return s.templates.FindByID(ctx, id)
}

func (s *StandardAssemblyService) List(ctx context.Context, categoryID, search string, templatesOnly bool, page, pageSize int) ([]entity.StandardAssembly, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.templates.List(ctx, categoryID, search, templatesOnly, (page-1)*pageSize, pageSize)
}

func (s *StandardAssemblyService) Update(ctx context.Context, id string, input *UpdateStandardAssemblyInput) (*entity.StandardAssembly, error) {
	sa, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		sa.Name = *input.Name
	}
	if input.AssemblyNumber != nil {
		sa.AssemblyNumber = *input.AssemblyNumber
	}
	if input.Description != nil {
		sa.Description = *input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *input.CategoryID); err != nil {
			return nil, fmt.Errorf("category %s: %w", *input.CategoryID, err)
		}
		sa.CategoryID = *input.CategoryID
	}
	if input.IsActive != nil {
		sa.IsActive = *input.IsActive
	}
	if err := s.templates.Update(ctx, sa); err != nil {
		return nil, fmt.Errorf("update standard assembly: %w", err)
	}
	return s.templates.FindByID(ctx, id)
}

// Delete removes one version row. It refuses while any estimate assembly
// still references it.
func (s *StandardAssemblyService) Delete(ctx context.Context, id string) error {
	if _, err := s.templates.FindByID(ctx, id); err != nil {
		return err
	}
	refs, err := s.templates.CountAssemblyRefs(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("count template references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: version is referenced by %d assembly(ies)", ErrConflict, refs)
	}
	return s.templates.Delete(ctx, id)
}

func (s *StandardAssemblyService) AddComponent(ctx context.Context, assemblyID string, input *ComponentInput) (*entity.StandardAssemblyComponent, error) {
	if _, err := s.templates.FindByID(ctx, assemblyID); err != nil {
		return nil, err
	}
	if _, err := s.parts.FindByID(ctx, input.PartID); err != nil {
		return nil, fmt.Errorf("part %s: %w", input.PartID, err)
	}
	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}
	c := &entity.StandardAssemblyComponent{
		ID:                 uuid.New().String()[:32],
		StandardAssemblyID: assemblyID,
		PartID:             input.PartID,
		Quantity:           qty,
		UnitOfMeasure:      input.UnitOfMeasure,
		Notes:              input.Notes,
		SortOrder:          input.SortOrder,
	}
	if c.UnitOfMeasure == "" {
		c.UnitOfMeasure = "EA"
	}
	if err := s.templates.AddComponent(ctx, c); err != nil {
		return nil, fmt.Errorf("add component: %w", err)
	}
	return s.templates.FindComponent(ctx, c.ID)
}

func (s *StandardAssemblyService) UpdateComponent(ctx context.Context, componentID string, input *UpdateComponentInput) (*entity.StandardAssemblyComponent, error) {
	c, err := s.templates.FindComponent(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		c.Quantity = *input.Quantity
	}
	if input.UnitOfMeasure != nil {
		c.UnitOfMeasure = *input.UnitOfMeasure
	}
	if input.Notes != nil {
		c.Notes = *input.Notes
	}
	if input.SortOrder != nil {
		c.SortOrder = *input.SortOrder
	}
	if err := s.templates.UpdateComponent(ctx, c); err != nil {
		return nil, fmt.Errorf("update component: %w", err)
	}
	return s.templates.FindComponent(ctx, componentID)
}

func (s *StandardAssemblyService) RemoveComponent(ctx context.Context, componentID string) error {
	if _, err := s.templates.FindComponent(ctx, componentID); err != nil {
		return err
	}
	return s.templates.DeleteComponent(ctx, componentID)
}

// Cost sums quantity times each component part's current price. Always
// computed from child state, never stored.
func (s *StandardAssemblyService) Cost(ctx context.Context, id string) (float64, int, error) {
	components, err := s.templates.ListComponents(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	var total float64
	for i := range components {
		if components[i].Part != nil {
			total += components[i].Part.CurrentPrice() * components[i].Quantity
		}
	}
	return total, len(components), nil
}

// CreateVersion snapshots the family into a new version row. The new row
// copies the source's components, becomes the family's current template, and
// gets a release note record.
func (s *StandardAssemblyService) CreateVersion(ctx context.Context, sourceID string, input *CreateVersionInput) (*entity.StandardAssembly, error) {
	source, err := s.templates.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	rootID := source.FamilyRootID()
	family, err := s.templates.ListFamily(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}

	version := input.Version
	if version == "" {
		version = nextMinorVersion(family)
	} else {
		for i := range family {
			if family[i].Version == version {
				return nil, fmt.Errorf("%w: version %s already exists", ErrConflict, version)
			}
		}
	}

	next := &entity.StandardAssembly{
		ID:             uuid.New().String()[:32],
		Name:           source.Name,
		AssemblyNumber: source.AssemblyNumber,
		Description:    source.Description,
		CategoryID:     source.CategoryID,
		BaseAssemblyID: &rootID,
		Version:        version,
		IsActive:       true,
		IsTemplate:     true,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.templates.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("create version row: %w", err)
	}

	for i := range source.Components {
		c := &entity.StandardAssemblyComponent{
			ID:                 uuid.New().String()[:32],
			StandardAssemblyID: next.ID,
			PartID:             source.Components[i].PartID,
			Quantity:           source.Components[i].Quantity,
			UnitOfMeasure:      source.Components[i].UnitOfMeasure,
			Notes:              source.Components[i].Notes,
			SortOrder:          source.Components[i].SortOrder,
		}
		if err := s.templates.AddComponent(ctx, c); err != nil {
			return nil, fmt.Errorf("copy component: %w", err)
		}
	}

	// Only one row per family carries the template flag.
	for i := range family {
		if family[i].IsTemplate {
			family[i].IsTemplate = false
			if err := s.templates.Update(ctx, &family[i]); err != nil {
				return nil, fmt.Errorf("retire previous template: %w", err)
			}
		}
	}

	record := &entity.AssemblyVersion{
		ID:                 uuid.New().String()[:32],
		StandardAssemblyID: next.ID,
		VersionNumber:      version,
		Notes:              input.Notes,
		CreatedBy:          input.CreatedBy,
	}
	if err := s.templates.CreateVersionRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("record version note: %w", err)
	}

	return s.templates.FindByID(ctx, next.ID)
}

// ListVersions returns every version row of the assembly's family.
func (s *StandardAssemblyService) ListVersions(ctx context.Context, id string) ([]entity.StandardAssembly, error) {
	sa, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.templates.ListFamily(ctx, sa.FamilyRootID())
}

// CompareVersions diffs the component lists of two versions in the same
// family.
func (s *StandardAssemblyService) CompareVersions(ctx context.Context, id, versionA, versionB string) (*VersionDiff, error) {
	sa, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rootID := sa.FamilyRootID()

	rowA, err := s.templates.FindFamilyVersion(ctx, rootID, versionA)
	if err != nil {
		return nil, versionLookupErr(err, versionA)
	}
	rowB, err := s.templates.FindFamilyVersion(ctx, rootID, versionB)
	if err != nil {
		return nil, versionLookupErr(err, versionB)
	}

	compA, err := s.templates.ListComponents(ctx, rowA.ID)
	if err != nil {
		return nil, err
	}
	compB, err := s.templates.ListComponents(ctx, rowB.ID)
	if err != nil {
		return nil, err
	}

	byPartA := make(map[string]*entity.StandardAssemblyComponent, len(compA))
	for i := range compA {
		byPartA[compA[i].PartID] = &compA[i]
	}
	byPartB := make(map[string]*entity.StandardAssemblyComponent, len(compB))
	for i := range compB {
		byPartB[compB[i].PartID] = &compB[i]
	}

	diff := &VersionDiff{VersionA: versionA, VersionB: versionB}
	for partID, a := range byPartA {
		b, ok := byPartB[partID]
		if !ok {
			diff.Removed = append(diff.Removed, componentLine(a))
			continue
		}
		if a.Quantity != b.Quantity {
			diff.QuantityChanged = append(diff.QuantityChanged, QuantityChange{
				PartID:      partID,
				PartNumber:  partNumber(a),
				QuantityA:   a.Quantity,
				QuantityB:   b.Quantity,
			})
		}
	}
	for partID, b := range byPartB {
		if _, ok := byPartA[partID]; !ok {
			diff.Added = append(diff.Added, componentLine(b))
		}
	}
	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i].PartNumber < diff.Added[j].PartNumber })
	sort.Slice(diff.Removed, func(i, j int) bool { return diff.Removed[i].PartNumber < diff.Removed[j].PartNumber })
	sort.Slice(diff.QuantityChanged, func(i, j int) bool { return diff.QuantityChanged[i].PartNumber < diff.QuantityChanged[j].PartNumber })
	return diff, nil
}

// ApplyToEstimate materializes the template into an estimate: a new assembly
// instance referencing (template id, version), with an editable copy of every
// component line. Copied lines keep the template quantities; later template
// edits never propagate to the instance.
func (s *StandardAssemblyService) ApplyToEstimate(ctx context.Context, templateID, estimateID string, input *ApplyTemplateInput) (*entity.Assembly, error) {
	template, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}
	name := input.Name
	if name == "" {
		name = template.Name
	}

	version := template.Version
	assembly := &entity.Assembly{
		ID:                      uuid.New().String()[:32],
		EstimateID:              estimateID,
		AssemblyName:            name,
		Description:             template.Description,
		Quantity:                qty,
		SortOrder:               input.SortOrder,
		StandardAssemblyID:      &template.ID,
		StandardAssemblyVersion: &version,
	}
	if err := s.assemblies.Create(ctx, assembly); err != nil {
		return nil, fmt.Errorf("create assembly instance: %w", err)
	}

	for i := range template.Components {
		ap := &entity.AssemblyPart{
			ID:            uuid.New().String()[:32],
			AssemblyID:    assembly.ID,
			PartID:        template.Components[i].PartID,
			Quantity:      template.Components[i].Quantity,
			UnitOfMeasure: template.Components[i].UnitOfMeasure,
			Notes:         template.Components[i].Notes,
			SortOrder:     template.Components[i].SortOrder,
		}
		if err := s.assemblies.AddPart(ctx, ap); err != nil {
			return nil, fmt.Errorf("materialize component: %w", err)
		}
	}
	return s.assemblies.FindByID(ctx, assembly.ID)
}

// ResolveVersion repoints an estimate assembly at another version of its
// template family. The family root is the referenced row's base assembly (or
// the row itself); the target is searched first as the base row, then among
// derived rows. Both reference fields move in one atomic update.
func (s *StandardAssemblyService) ResolveVersion(ctx context.Context, assemblyID, targetVersion string) (*entity.Assembly, error) {
	if targetVersion == "" {
		return nil, fmt.Errorf("%w: target version is required", ErrValidation)
	}
	assembly, err := s.assemblies.FindByID(ctx, assemblyID)
	if err != nil {
		return nil, err
	}
	if assembly.StandardAssemblyID == nil {
		return nil, fmt.Errorf("%w: assembly has no template reference", ErrValidation)
	}

	current, err := s.templates.FindByID(ctx, *assembly.StandardAssemblyID)
	if err != nil {
		return nil, fmt.Errorf("referenced template: %w", err)
	}

	target, err := s.templates.FindFamilyVersion(ctx, current.FamilyRootID(), targetVersion)
	if err != nil {
		return nil, versionLookupErr(err, targetVersion)
	}

	if err := s.assemblies.UpdateStandardAssemblyRef(ctx, assemblyID, target.ID, target.Version); err != nil {
		return nil, fmt.Errorf("update template reference: %w", err)
	}
	return s.assemblies.FindByID(ctx, assemblyID)
}

// Rematerialize rebuilds an assembly's part lines from its referenced
// template version. The caller chooses the policy explicitly.
func (s *StandardAssemblyService) Rematerialize(ctx context.Context, assemblyID, policy string) (*entity.Assembly, error) {
	if policy != RematerializeReplace && policy != RematerializeMerge {
		return nil, fmt.Errorf("%w: unknown policy %q", ErrValidation, policy)
	}

	assembly, err := s.assemblies.FindByID(ctx, assemblyID)
	if err != nil {
		return nil, err
	}
	if assembly.StandardAssemblyID == nil {
		return nil, fmt.Errorf("%w: assembly has no template reference", ErrValidation)
	}

	components, err := s.templates.ListComponents(ctx, *assembly.StandardAssemblyID)
	if err != nil {
		return nil, fmt.Errorf("list template components: %w", err)
	}

	switch policy {
	case RematerializeReplace:
		if err := s.assemblies.DeletePartsByAssembly(ctx, assemblyID); err != nil {
			return nil, fmt.Errorf("clear assembly parts: %w", err)
		}
		for i := range components {
			ap := &entity.AssemblyPart{
				ID:            uuid.New().String()[:32],
				AssemblyID:    assemblyID,
				PartID:        components[i].PartID,
				Quantity:      components[i].Quantity,
				UnitOfMeasure: components[i].UnitOfMeasure,
				Notes:         components[i].Notes,
				SortOrder:     components[i].SortOrder,
			}
			if err := s.assemblies.AddPart(ctx, ap); err != nil {
				return nil, fmt.Errorf("materialize component: %w", err)
			}
		}

	case RematerializeMerge:
		existing := make(map[string]*entity.AssemblyPart, len(assembly.Parts))
		for i := range assembly.Parts {
			existing[assembly.Parts[i].PartID] = &assembly.Parts[i]
		}
		for i := range components {
			if ap, ok := existing[components[i].PartID]; ok {
				ap.Quantity = components[i].Quantity
				ap.UnitOfMeasure = components[i].UnitOfMeasure
				ap.SortOrder = components[i].SortOrder
				if err := s.assemblies.UpdatePart(ctx, ap); err != nil {
					return nil, fmt.Errorf("merge component: %w", err)
				}
				continue
			}
			ap := &entity.AssemblyPart{
				ID:            uuid.New().String()[:32],
				AssemblyID:    assemblyID,
				PartID:        components[i].PartID,
				Quantity:      components[i].Quantity,
				UnitOfMeasure: components[i].UnitOfMeasure,
				Notes:         components[i].Notes,
				SortOrder:     components[i].SortOrder,
			}
			if err := s.assemblies.AddPart(ctx, ap); err != nil {
				return nil, fmt.Errorf("merge component: %w", err)
			}
		}
	}
	return s.assemblies.FindByID(ctx, assemblyID)
}

func (s *StandardAssemblyService) ListCategories(ctx context.Context) ([]entity.AssemblyCategory, error) {
	return s.categories.List(ctx, true)
}

func (s *StandardAssemblyService) CreateCategory(ctx context.Context, input *CreateAssemblyCategoryInput) (*entity.AssemblyCategory, error) {
	cat := &entity.AssemblyCategory{
		ID:          uuid.New().String()[:32],
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, fmt.Errorf("create assembly category: %w", err)
	}
	return cat, nil
}

// nextMinorVersion bumps the minor component past the family's highest
// version. Unparseable versions are ignored.
func nextMinorVersion(family []entity.StandardAssembly) string {
	maxMajor, maxMinor := 1, 0
	for i := range family {
		major, minor, ok := parseVersion(family[i].Version)
		if !ok {
			continue
		}
		if major > maxMajor || (major == maxMajor && minor > maxMinor) {
			maxMajor, maxMinor = major, minor
		}
	}
	return fmt.Sprintf("%d.%d", maxMajor, maxMinor+1)
}

func parseVersion(v string) (major, minor int, ok bool) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func versionLookupErr(err error, version string) error {
	if err == repository.ErrNotFound {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}
	return err
}

func componentLine(c *entity.StandardAssemblyComponent) ComponentLine {
	return ComponentLine{
		PartID:     c.PartID,
		PartNumber: partNumber(c),
		Quantity:   c.Quantity,
	}
}

func partNumber(c *entity.StandardAssemblyComponent) string {
	if c.Part != nil {
		return c.Part.PartNumber
	}
	return ""
}

type CreateStandardAssemblyInput struct {
	Name           string `json:"name" binding:"required"`
	AssemblyNumber string `json:"assembly_number"`
	Description    string `json:"description"`
	CategoryID     string `json:"category_id" binding:"required"`
	CreatedBy      string `json:"created_by"`
}

type UpdateStandardAssemblyInput struct {
	Name           *string `json:"name"`
	AssemblyNumber *string `json:"assembly_number"`
	Description    *string `json:"description"`
	CategoryID     *string `json:"category_id"`
	IsActive       *bool   `json:"is_active"`
}

type ComponentInput struct {
	PartID        string  `json:"part_id" binding:"required"`
	Quantity      float64 `json:"quantity"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	Notes         string  `json:"notes"`
	SortOrder     int     `json:"sort_order"`
}

type UpdateComponentInput struct {
	Quantity      *float64 `json:"quantity"`
	UnitOfMeasure *string  `json:"unit_of_measure"`
	Notes         *string  `json:"notes"`
	SortOrder     *int     `json:"sort_order"`
}

type CreateVersionInput struct {
	Version   string `json:"version"`
	Notes     string `json:"notes"`
	CreatedBy string `json:"created_by"`
}

type ApplyTemplateInput struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	SortOrder int     `json:"sort_order"`
}

type CreateAssemblyCategoryInput struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type VersionDiff struct {
	VersionA        string           `json:"version_a"`
	VersionB        string           `json:"version_b"`
	Added           []ComponentLine  `json:"added"`
	Removed         []ComponentLine  `json:"removed"`
	QuantityChanged []QuantityChange `json:"quantity_changed"`
}

type ComponentLine struct {
	PartID     string  `json:"part_id"`
	PartNumber string  `json:"part_number"`
	Quantity   float64 `json:"quantity"`
}

type QuantityChange struct {
	PartID     string  `json:"part_id"`
	PartNumber string  `json:"part_number"`
	QuantityA  float64 `json:"quantity_a"`
	QuantityB  float64 `json:"quantity_b"`
}
