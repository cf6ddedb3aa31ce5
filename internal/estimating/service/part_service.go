package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// priceChangeFloor is the minimum absolute delta recorded as a price change.
// Smaller movements are treated as noise and skipped.
const priceChangeFloor = 0.01

type PartService struct {
	parts      *repository.PartRepository
	categories *repository.PartCategoryRepository
}

func NewPartService(parts *repository.PartRepository, categories *repository.PartCategoryRepository) *PartService {
	return &PartService{parts: parts, categories: categories}
}

func (s *PartService) Create(ctx context.Context, input *CreatePartInput) (*entity.Part, error) {
	part := &entity.Part{
		ID:               uuid.New().String()[:32],
		CategoryID:       input.CategoryID,
		Model:            input.Model,
		Rating:           input.Rating,
		MasterItemNumber: input.MasterItemNumber,
		Manufacturer:     input.Manufacturer,
		PartNumber:       input.PartNumber,
		UPC:              input.UPC,
		Description:      input.Description,
		Vendor:           input.Vendor,
	}
	if err := s.parts.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}

	if input.UnitPrice != nil {
		row := &entity.PartPriceHistory{
			ID:        uuid.New().String()[:32],
			PartID:    part.ID,
			NewPrice:  *input.UnitPrice,
			ChangedAt: time.Now(),
			IsCurrent: true,
			Source:    "manual",
		}
		if err := s.parts.AppendPriceHistory(ctx, row); err != nil {
			return nil, fmt.Errorf("record initial price: %w", err)
		}
	}
	return s.parts.FindByID(ctx, part.ID)
}

func (s *PartService) Get(ctx context.Context, id string) (*entity.Part, error) {
	return s.parts.FindByID(ctx, id)
}

func (s *PartService) List(ctx context.Context, categoryID, search string, page, pageSize int) ([]entity.Part, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.parts.List(ctx, categoryID, search, (page-1)*pageSize, pageSize)
}

func (s *PartService) Update(ctx context.Context, id string, input *UpdatePartInput) (*entity.Part, error) {
	part, err := s.parts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		part.CategoryID = input.CategoryID
	}
	if input.Model != nil {
		part.Model = *input.Model
	}
	if input.Rating != nil {
		part.Rating = *input.Rating
	}
	if input.MasterItemNumber != nil {
		part.MasterItemNumber = *input.MasterItemNumber
	}
	if input.Manufacturer != nil {
		part.Manufacturer = *input.Manufacturer
	}
	if input.PartNumber != nil {
		part.PartNumber = *input.PartNumber
	}
	if input.UPC != nil {
		part.UPC = *input.UPC
	}
	if input.Description != nil {
		part.Description = *input.Description
	}
	if input.Vendor != nil {
		part.Vendor = *input.Vendor
	}

	if err := s.parts.Update(ctx, part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	return s.parts.FindByID(ctx, id)
}

// Delete refuses to remove a part still referenced by any assembly, template
// or estimate line.
func (s *PartService) Delete(ctx context.Context, id string) error {
	if _, err := s.parts.FindByID(ctx, id); err != nil {
		return err
	}
	refs, err := s.parts.CountReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("count part references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: part is referenced by %d line(s)", ErrConflict, refs)
	}
	return s.parts.Delete(ctx, id)
}

// UpdatePrice appends a price history row and flips is_current. Changes
// smaller than one cent are silently skipped; the current price stands.
func (s *PartService) UpdatePrice(ctx context.Context, id string, input *UpdatePriceInput) (*entity.Part, error) {
	part, err := s.parts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current := part.CurrentPrice()
	if len(part.PriceHistory) > 0 && math.Abs(input.NewPrice-current) < priceChangeFloor {
		return part, nil
	}

	row := &entity.PartPriceHistory{
		ID:            uuid.New().String()[:32],
		PartID:        id,
		NewPrice:      input.NewPrice,
		ChangedAt:     time.Now(),
		ChangedReason: input.Reason,
		IsCurrent:     true,
		Source:        "manual",
	}
	if input.Source != "" {
		row.Source = input.Source
	}
	if len(part.PriceHistory) > 0 {
		old := current
		row.OldPrice = &old
	}
	if err := s.parts.AppendPriceHistory(ctx, row); err != nil {
		return nil, fmt.Errorf("append price history: %w", err)
	}
	return s.parts.FindByID(ctx, id)
}

func (s *PartService) PriceHistory(ctx context.Context, id string, limit int) ([]entity.PartPriceHistory, error) {
	if _, err := s.parts.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.parts.ListPriceHistory(ctx, id, limit)
}

func (s *PartService) ListCategories(ctx context.Context) ([]entity.PartCategory, error) {
	return s.categories.List(ctx, true)
}

// ImportXLSX reads a parts workbook and upserts each row. Existing parts are
// matched by part number; their price goes through the same history path as a
// manual update.
func (s *PartService) ImportXLSX(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrValidation, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: workbook has no data rows", ErrValidation)
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["part_number"]; !ok {
		return nil, fmt.Errorf("%w: missing part_number column", ErrValidation)
	}

	result := &ImportResult{}
	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for n, row := range rows[1:] {
		partNumber := cell(row, "part_number")
		if partNumber == "" {
			result.Skipped++
			continue
		}

		var price *float64
		if raw := cell(row, "price"); raw != "" {
			v, err := strconv.ParseFloat(strings.TrimPrefix(raw, "$"), 64)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: bad price %q", n+2, raw))
				result.Skipped++
				continue
			}
			price = &v
		}

		existing, err := s.parts.FindByIdentifier(ctx, partNumber)
		switch {
		case err == nil:
			changed := false
			if v := cell(row, "manufacturer"); v != "" && v != existing.Manufacturer {
				existing.Manufacturer = v
				changed = true
			}
			if v := cell(row, "description"); v != "" && v != existing.Description {
				existing.Description = v
				changed = true
			}
			if v := cell(row, "vendor"); v != "" && v != existing.Vendor {
				existing.Vendor = v
				changed = true
			}
			if changed {
				if err := s.parts.Update(ctx, existing); err != nil {
					return nil, fmt.Errorf("update part %s: %w", partNumber, err)
				}
			}
			if price != nil {
				if _, err := s.UpdatePrice(ctx, existing.ID, &UpdatePriceInput{
					NewPrice: *price,
					Reason:   "xlsx import",
					Source:   "xlsx_import",
				}); err != nil {
					return nil, fmt.Errorf("import price for %s: %w", partNumber, err)
				}
			}
			result.Updated++

		case err == repository.ErrNotFound:
			input := &CreatePartInput{
				PartNumber:   partNumber,
				Manufacturer: cell(row, "manufacturer"),
				Description:  cell(row, "description"),
				Vendor:       cell(row, "vendor"),
				Model:        cell(row, "model"),
				UPC:          cell(row, "upc"),
				UnitPrice:    price,
			}
			if input.Manufacturer == "" {
				input.Manufacturer = "UNKNOWN"
			}
			if catName := cell(row, "category"); catName != "" {
				cat, err := s.ensureCategory(ctx, catName)
				if err != nil {
					return nil, err
				}
				input.CategoryID = &cat.ID
			}
			if _, err := s.Create(ctx, input); err != nil {
				return nil, fmt.Errorf("create part %s: %w", partNumber, err)
			}
			result.Created++

		default:
			return nil, fmt.Errorf("lookup part %s: %w", partNumber, err)
		}
	}
	return result, nil
}

// ExportXLSX writes the catalog (optionally one category) to a workbook.
func (s *PartService) ExportXLSX(ctx context.Context, categoryID string) (*excelize.File, error) {
	parts, _, err := s.parts.List(ctx, categoryID, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Parts"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"part_number", "manufacturer", "description", "model", "category", "vendor", "upc", "price"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, p := range parts {
		row := i + 2
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		values := []interface{}{p.PartNumber, p.Manufacturer, p.Description, p.Model, category, p.Vendor, p.UPC, p.CurrentPrice()}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}

func (s *PartService) ensureCategory(ctx context.Context, name string) (*entity.PartCategory, error) {
	cat, err := s.categories.FindByName(ctx, name)
	if err == nil {
		return cat, nil
	}
	if err != repository.ErrNotFound {
		return nil, fmt.Errorf("lookup category %s: %w", name, err)
	}
	cat = &entity.PartCategory{
		ID:       uuid.New().String()[:32],
		Name:     name,
		IsActive: true,
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, fmt.Errorf("create category %s: %w", name, err)
	}
	return cat, nil
}

type CreatePartInput struct {
	PartNumber       string   `json:"part_number" binding:"required"`
	Manufacturer     string   `json:"manufacturer" binding:"required"`
	CategoryID       *string  `json:"category_id"`
	Model            string   `json:"model"`
	Rating           string   `json:"rating"`
	MasterItemNumber string   `json:"master_item_number"`
	UPC              string   `json:"upc"`
	Description      string   `json:"description"`
	Vendor           string   `json:"vendor"`
	UnitPrice        *float64 `json:"unit_price"`
}

type UpdatePartInput struct {
	CategoryID       *string `json:"category_id"`
	Model            *string `json:"model"`
	Rating           *string `json:"rating"`
	MasterItemNumber *string `json:"master_item_number"`
	Manufacturer     *string `json:"manufacturer"`
	PartNumber       *string `json:"part_number"`
	UPC              *string `json:"upc"`
	Description      *string `json:"description"`
	Vendor           *string `json:"vendor"`
}

type UpdatePriceInput struct {
	NewPrice float64 `json:"new_price" binding:"required"`
	Reason   string  `json:"reason"`
	Source   string  `json:"source"`
}

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
