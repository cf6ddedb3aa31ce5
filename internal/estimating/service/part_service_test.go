package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/apopovich85/Est/internal/estimating/testutil"
	"github.com/xuri/excelize/v2"
)

func TestPriceUpdateAppendsHistory(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	part := testutil.SeedPart(t, db, "RLY-800", 25.00)

	updated, err := svc.Part.UpdatePrice(ctx, part.ID, &UpdatePriceInput{NewPrice: 27.50, Reason: "vendor increase"})
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if updated.CurrentPrice() != 27.50 {
		t.Errorf("Expected current price 27.50, got %.2f", updated.CurrentPrice())
	}

	history, err := svc.Part.PriceHistory(ctx, part.ID, 0)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 history rows, got %d", len(history))
	}
	current := 0
	for _, h := range history {
		if h.IsCurrent {
			current++
			if h.NewPrice != 27.50 {
				t.Errorf("Current row must carry the new price, got %.2f", h.NewPrice)
			}
			if h.OldPrice == nil || *h.OldPrice != 25.00 {
				t.Errorf("Current row must record the old price")
			}
		}
	}
	if current != 1 {
		t.Errorf("Exactly one history row may be current, found %d", current)
	}
}

func TestPriceUpdateSkipsSubCentChanges(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	part := testutil.SeedPart(t, db, "TRM-810", 1.005)

	if _, err := svc.Part.UpdatePrice(ctx, part.ID, &UpdatePriceInput{NewPrice: 1.009}); err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	history, err := svc.Part.PriceHistory(ctx, part.ID, 0)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Sub-cent change must not create a history row, got %d rows", len(history))
	}
}

func TestDeletePartRefusedWhileReferenced(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Ref Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-300")
	part := testutil.SeedPart(t, db, "SWI-820", 15.00)

	assembly, err := svc.Estimate.AddAssembly(ctx, estimate.ID, &CreateAssemblyInput{AssemblyName: "Switch Bank"})
	if err != nil {
		t.Fatalf("AddAssembly: %v", err)
	}
	line, err := svc.Estimate.AddAssemblyPart(ctx, assembly.ID, &AssemblyPartInput{PartID: part.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddAssemblyPart: %v", err)
	}

	if err := svc.Part.Delete(ctx, part.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict while referenced, got %v", err)
	}

	if err := svc.Estimate.RemoveAssemblyPart(ctx, line.ID); err != nil {
		t.Fatalf("RemoveAssemblyPart: %v", err)
	}
	if err := svc.Part.Delete(ctx, part.ID); err != nil {
		t.Errorf("Delete after dereferencing: %v", err)
	}
}

func TestImportXLSXUpsertsByPartNumber(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	existing := testutil.SeedPart(t, db, "BRK-900", 100.00)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"part_number", "manufacturer", "description", "category", "price"},
		{"BRK-900", "Square D", "updated breaker", "Breakers", "110.00"},
		{"NEW-901", "ABB", "new contactor", "Contactors", "$45.00"},
		{"", "", "", "", ""},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(sheet, cell, v)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write workbook: %v", err)
	}

	result, err := svc.Part.ImportXLSX(ctx, &buf)
	if err != nil {
		t.Fatalf("ImportXLSX: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 || result.Skipped != 1 {
		t.Errorf("Expected 1 created / 1 updated / 1 skipped, got %d/%d/%d",
			result.Created, result.Updated, result.Skipped)
	}

	reloaded, err := svc.Part.Get(ctx, existing.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.CurrentPrice() != 110.00 {
		t.Errorf("Import must route prices through history, got %.2f", reloaded.CurrentPrice())
	}
	if reloaded.Description != "updated breaker" {
		t.Errorf("Import must update descriptive fields, got %q", reloaded.Description)
	}

	history, err := svc.Part.PriceHistory(ctx, existing.ID, 0)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected a second history row from the import, got %d", len(history))
	}

	parts, _, err := svc.Part.List(ctx, "", "NEW-901", 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("Expected the imported part to be searchable, got %d rows", len(parts))
	}
	if parts[0].CurrentPrice() != 45.00 {
		t.Errorf("Expected imported price 45.00, got %.2f", parts[0].CurrentPrice())
	}
	if parts[0].Category == nil || parts[0].Category.Name != "Contactors" {
		t.Errorf("Import must create missing categories")
	}
}

func TestImportXLSXRequiresPartNumberColumn(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "description")
	f.SetCellValue(sheet, "A2", "orphan row")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write workbook: %v", err)
	}

	_, err := svc.Part.ImportXLSX(context.Background(), &buf)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
}

func TestCreatePartWithInitialPrice(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)
	ctx := context.Background()

	price := 75.25
	part, err := svc.Part.Create(ctx, &CreatePartInput{
		PartNumber:   "PSU-930",
		Manufacturer: "Phoenix Contact",
		Description:  "24VDC supply",
		UnitPrice:    &price,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if part.CurrentPrice() != 75.25 {
		t.Errorf("Expected initial price 75.25, got %.2f", part.CurrentPrice())
	}

	history, err := svc.Part.PriceHistory(ctx, part.ID, 0)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 1 || !history[0].IsCurrent {
		t.Errorf("Initial price must land as the single current history row")
	}
}
