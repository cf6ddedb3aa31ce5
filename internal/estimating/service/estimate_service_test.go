package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/apopovich85/Est/internal/estimating/testutil"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateTotalsRecomputedFromChildren(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Totals Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-100")
	breaker := testutil.SeedPart(t, db, "BRK-500", 100.00)
	wire := testutil.SeedPart(t, db, "WIR-050", 2.50)

	assembly, err := svc.Estimate.AddAssembly(ctx, estimate.ID, &CreateAssemblyInput{AssemblyName: "Main Panel"})
	if err != nil {
		t.Fatalf("AddAssembly: %v", err)
	}
	if _, err := svc.Estimate.AddAssemblyPart(ctx, assembly.ID, &AssemblyPartInput{PartID: breaker.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddAssemblyPart breaker: %v", err)
	}
	line, err := svc.Estimate.AddAssemblyPart(ctx, assembly.ID, &AssemblyPartInput{PartID: wire.ID, Quantity: 100})
	if err != nil {
		t.Fatalf("AddAssemblyPart wire: %v", err)
	}

	totals, err := svc.Estimate.Totals(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// 2x100.00 + 100x2.50
	if !almostEqual(totals.MaterialCost, 450.00) {
		t.Errorf("Expected material 450.00, got %.2f", totals.MaterialCost)
	}

	// Quantity edit moves the total by exactly delta times unit price
	q := 150.0
	if _, err := svc.Estimate.UpdateAssemblyPart(ctx, line.ID, &UpdateAssemblyPartInput{Quantity: &q}); err != nil {
		t.Fatalf("UpdateAssemblyPart: %v", err)
	}
	after, err := svc.Estimate.Totals(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("Totals after edit: %v", err)
	}
	if !almostEqual(after.MaterialCost-totals.MaterialCost, 50*2.50) {
		t.Errorf("Expected material to move by 125.00, moved %.2f", after.MaterialCost-totals.MaterialCost)
	}
}

func TestEstimateTotalsIncludeLaborAtSnapshotRates(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Labor Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-101")

	eng, shop, mach := 10.0, 20.0, 5.0
	if _, err := svc.Estimate.Update(ctx, estimate.ID, &UpdateEstimateInput{
		EngineeringHours:     &eng,
		PanelShopHours:       &shop,
		MachineAssemblyHours: &mach,
	}); err != nil {
		t.Fatalf("Update hours: %v", err)
	}

	totals, err := svc.Estimate.Totals(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// 10x145 + 20x125 + 5x125
	if !almostEqual(totals.LaborCost, 4575.00) {
		t.Errorf("Expected labor 4575.00, got %.2f", totals.LaborCost)
	}
	if !almostEqual(totals.TotalHours, 35) {
		t.Errorf("Expected 35 hours, got %g", totals.TotalHours)
	}
	if !almostEqual(totals.GrandTotal, totals.MaterialCost+totals.LaborCost) {
		t.Errorf("Grand total must be material plus labor")
	}
}

func TestStandaloneComponentsCountTowardMaterial(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Component Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-102")
	hmi := testutil.SeedPart(t, db, "HMI-700", 1200.00)

	// Catalog-backed line defaults its price from the part
	c, err := svc.Estimate.AddComponent(ctx, estimate.ID, &EstimateComponentInput{PartID: &hmi.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if c.UnitPrice != 1200.00 {
		t.Errorf("Expected defaulted unit price 1200.00, got %.2f", c.UnitPrice)
	}
	if c.PartNumber != "HMI-700" {
		t.Errorf("Expected part number copied from catalog, got %q", c.PartNumber)
	}

	// Free-form line
	if _, err := svc.Estimate.AddComponent(ctx, estimate.ID, &EstimateComponentInput{
		ComponentName: "Custom bracket",
		UnitPrice:     55.00,
		Quantity:      2,
	}); err != nil {
		t.Fatalf("AddComponent free-form: %v", err)
	}

	totals, err := svc.Estimate.Totals(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !almostEqual(totals.MaterialCost, 1310.00) {
		t.Errorf("Expected material 1310.00, got %.2f", totals.MaterialCost)
	}
}

func TestEstimateNumberMustBeUnique(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Duplicate Project")

	input := &CreateEstimateInput{
		ProjectID:      project.ID,
		EstimateNumber: "EST-DUP",
		EstimateName:   "first",
	}
	if _, err := svc.Estimate.Create(ctx, input); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Estimate.Create(ctx, input)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict on duplicate number, got %v", err)
	}
}

func TestCreateEstimateSnapshotsLaborRates(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Snapshot Project")

	if _, err := svc.LaborRate.UpdateRates(ctx, &UpdateLaborRatesInput{
		EngineeringRate:     160,
		PanelShopRate:       135,
		MachineAssemblyRate: 130,
	}); err != nil {
		t.Fatalf("UpdateRates: %v", err)
	}

	e, err := svc.Estimate.Create(ctx, &CreateEstimateInput{
		ProjectID:      project.ID,
		EstimateNumber: "EST-103",
		EstimateName:   "snapshot",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.EngineeringRate != 160 || e.PanelShopRate != 135 || e.MachineAssemblyRate != 130 {
		t.Errorf("Expected snapshot rates 160/135/130, got %g/%g/%g",
			e.EngineeringRate, e.PanelShopRate, e.MachineAssemblyRate)
	}
	if e.RateSnapshotDate == nil {
		t.Errorf("Expected a snapshot date")
	}

	// Later rate changes must not move this estimate
	if _, err := svc.LaborRate.UpdateRates(ctx, &UpdateLaborRatesInput{
		EngineeringRate:     200,
		PanelShopRate:       200,
		MachineAssemblyRate: 200,
	}); err != nil {
		t.Fatalf("UpdateRates second: %v", err)
	}
	reloaded, err := svc.Estimate.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.EngineeringRate != 160 {
		t.Errorf("Snapshot rate must survive rate changes, got %g", reloaded.EngineeringRate)
	}
}

func TestRevisionCounterAdvances(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Revision Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-104")

	rev, err := svc.Estimate.CreateRevision(ctx, estimate.ID, &CreateRevisionInput{ChangesSummary: "initial quote"})
	if err != nil {
		t.Fatalf("CreateRevision: %v", err)
	}
	if rev.RevisionNumber != 1 {
		t.Errorf("Expected revision 1, got %d", rev.RevisionNumber)
	}

	rev2, err := svc.Estimate.CreateRevision(ctx, estimate.ID, &CreateRevisionInput{ChangesSummary: "price update"})
	if err != nil {
		t.Fatalf("CreateRevision second: %v", err)
	}
	if rev2.RevisionNumber != 2 {
		t.Errorf("Expected revision 2, got %d", rev2.RevisionNumber)
	}

	revs, err := svc.Estimate.ListRevisions(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revs) != 2 {
		t.Errorf("Expected 2 revision records, got %d", len(revs))
	}
}

func TestPriceChangeVisibleOnNextTotalsRead(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Live Price Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-105")
	part := testutil.SeedPart(t, db, "PLC-900", 500.00)

	assembly, err := svc.Estimate.AddAssembly(ctx, estimate.ID, &CreateAssemblyInput{AssemblyName: "PLC Rack"})
	if err != nil {
		t.Fatalf("AddAssembly: %v", err)
	}
	if _, err := svc.Estimate.AddAssemblyPart(ctx, assembly.ID, &AssemblyPartInput{PartID: part.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddAssemblyPart: %v", err)
	}

	if _, err := svc.Part.UpdatePrice(ctx, part.ID, &UpdatePriceInput{NewPrice: 650.00}); err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}

	totals, err := svc.Estimate.Totals(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !almostEqual(totals.MaterialCost, 650.00) {
		t.Errorf("Totals must reflect the new current price, got %.2f", totals.MaterialCost)
	}
}
