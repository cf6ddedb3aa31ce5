package service

import (
	"context"
	"errors"
	"testing"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/testutil"
)

func TestProjectTotalsSkipOptionalEstimates(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Optional Project")
	part := testutil.SeedPart(t, db, "XFMR-010", 1000.00)

	main := testutil.SeedEstimate(t, db, project.ID, "EST-200")
	alt := testutil.SeedEstimate(t, db, project.ID, "EST-201")

	for _, e := range []*entity.Estimate{main, alt} {
		assembly, err := svc.Estimate.AddAssembly(ctx, e.ID, &CreateAssemblyInput{AssemblyName: "Transformer"})
		if err != nil {
			t.Fatalf("AddAssembly: %v", err)
		}
		if _, err := svc.Estimate.AddAssemblyPart(ctx, assembly.ID, &AssemblyPartInput{PartID: part.ID, Quantity: 1}); err != nil {
			t.Fatalf("AddAssemblyPart: %v", err)
		}
	}

	totals, err := svc.Project.Totals(ctx, project.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !almostEqual(totals.GrandTotal, 2000.00) {
		t.Fatalf("Expected 2000.00 with both estimates counted, got %.2f", totals.GrandTotal)
	}

	// Flag the alternate optional; its grand total drops out, nothing else moves
	opt := true
	if _, err := svc.Estimate.Update(ctx, alt.ID, &UpdateEstimateInput{IsOptional: &opt}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, err := svc.Project.Totals(ctx, project.ID)
	if err != nil {
		t.Fatalf("Totals after flag: %v", err)
	}
	if !almostEqual(after.GrandTotal, 1000.00) {
		t.Errorf("Expected 1000.00 after flagging optional, got %.2f", after.GrandTotal)
	}
	if len(after.Estimates) != 2 {
		t.Errorf("Optional estimates still appear in the breakdown, got %d", len(after.Estimates))
	}

	// Toggling back restores exactly the removed amount
	opt = false
	if _, err := svc.Estimate.Update(ctx, alt.ID, &UpdateEstimateInput{IsOptional: &opt}); err != nil {
		t.Fatalf("Update back: %v", err)
	}
	restored, err := svc.Project.Totals(ctx, project.ID)
	if err != nil {
		t.Fatalf("Totals restored: %v", err)
	}
	if !almostEqual(restored.GrandTotal, 2000.00) {
		t.Errorf("Expected 2000.00 after unflagging, got %.2f", restored.GrandTotal)
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	db, repos, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Doomed Project")
	estimate := testutil.SeedEstimate(t, db, project.ID, "EST-210")
	part := testutil.SeedPart(t, db, "FUS-020", 5.00)

	assembly, err := svc.Estimate.AddAssembly(ctx, estimate.ID, &CreateAssemblyInput{AssemblyName: "Fuse Block"})
	if err != nil {
		t.Fatalf("AddAssembly: %v", err)
	}
	if _, err := svc.Estimate.AddAssemblyPart(ctx, assembly.ID, &AssemblyPartInput{PartID: part.ID, Quantity: 3}); err != nil {
		t.Fatalf("AddAssemblyPart: %v", err)
	}
	if _, err := svc.Estimate.AddComponent(ctx, estimate.ID, &EstimateComponentInput{
		ComponentName: "misc hardware", UnitPrice: 10, Quantity: 1,
	}); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	hp := 10.0
	motor, err := svc.Motor.Create(ctx, &CreateMotorInput{
		ProjectID: project.ID, MotorName: "Conveyor", Voltage: 460, HP: &hp,
	})
	if err != nil {
		t.Fatalf("Create motor: %v", err)
	}

	if err := svc.Project.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repos.Project.FindByID(ctx, project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Project must be gone, got %v", err)
	}
	if _, err := repos.Estimate.FindByID(ctx, estimate.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Estimate must be gone, got %v", err)
	}
	if _, err := repos.Assembly.FindByID(ctx, assembly.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Assembly must be gone, got %v", err)
	}
	if _, err := repos.Motor.FindByID(ctx, motor.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Motor must be gone, got %v", err)
	}

	var lines int64
	db.Model(&entity.AssemblyPart{}).Where("assembly_id = ?", assembly.ID).Count(&lines)
	if lines != 0 {
		t.Errorf("Assembly part lines must be gone, found %d", lines)
	}

	// The catalog part itself survives
	if _, err := repos.Part.FindByID(ctx, part.ID); err != nil {
		t.Errorf("Catalog part must survive project deletion: %v", err)
	}
}

func TestProjectStatusDefaultsToDraft(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)

	p, err := svc.Project.Create(context.Background(), &CreateProjectInput{
		ProjectName: "New Plant",
		ClientName:  "Acme Foods",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != "draft" {
		t.Errorf("Expected draft status, got %q", p.Status)
	}
	if !p.IsActive {
		t.Errorf("New projects start active")
	}
}
