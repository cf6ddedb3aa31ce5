package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedNECRow(t *testing.T, db *gorm.DB, hp, v230, v460 float64) {
	t.Helper()
	row := &entity.NECAmpRow{
		ID:         uuid.New().String()[:32],
		HP:         hp,
		Voltage230: &v230,
		Voltage460: &v460,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("Failed to seed NEC row: %v", err)
	}
}

func seedMotor(t *testing.T, db *gorm.DB, svc *Services, projectID string) *entity.Motor {
	t.Helper()
	hp := 10.0
	m, err := svc.Motor.Create(context.Background(), &CreateMotorInput{
		ProjectID: projectID,
		MotorName: "Conveyor Drive",
		Location:  "Line 1",
		Voltage:   460,
		HP:        &hp,
	})
	if err != nil {
		t.Fatalf("Create motor: %v", err)
	}
	return m
}

func TestMotorCreateDefaults(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	project := testutil.SeedProject(t, db, "Motor Project")

	m := seedMotor(t, db, svc, project.ID)
	if m.RevisionNumber != "0.0" {
		t.Errorf("Expected revision 0.0, got %s", m.RevisionNumber)
	}
	if m.Qty != 1 || m.OverloadPct != 1.15 || m.DutyType != "ND" {
		t.Errorf("Expected defaults qty=1 overload=1.15 duty=ND, got %d/%g/%s",
			m.Qty, m.OverloadPct, m.DutyType)
	}
}

func TestMotorRequiresHPAndLoadRequiresRating(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Validation Project")

	_, err := svc.Motor.Create(ctx, &CreateMotorInput{
		ProjectID: project.ID, MotorName: "No HP", Voltage: 460,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Motor without hp must fail validation, got %v", err)
	}

	_, err = svc.Motor.Create(ctx, &CreateMotorInput{
		ProjectID: project.ID, MotorName: "No rating", LoadType: "load", Voltage: 480,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Load without power rating must fail validation, got %v", err)
	}
}

func TestElectricalChangeBumpsMajorRevision(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Revision Project M")
	m := seedMotor(t, db, svc, project.ID)

	hp := 15.0
	updated, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{HP: &hp, ChangedBy: "tester"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RevisionNumber != "1.0" {
		t.Errorf("Expected 1.0 after electrical change, got %s", updated.RevisionNumber)
	}
	if updated.RevisionType != RevisionMajor {
		t.Errorf("Expected major revision type, got %s", updated.RevisionType)
	}

	revs, err := svc.Motor.ListRevisions(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revs) != 1 {
		t.Fatalf("Expected one snapshot, got %d", len(revs))
	}
	// The snapshot captures the pre-change state
	if revs[0].HP == nil || *revs[0].HP != 10.0 {
		t.Errorf("Snapshot must hold the previous hp, got %v", revs[0].HP)
	}
	if !strings.Contains(revs[0].FieldsChanged, "hp") {
		t.Errorf("Change set must name the changed field, got %s", revs[0].FieldsChanged)
	}
}

func TestDescriptiveChangeBumpsMinorRevision(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Minor Project")
	m := seedMotor(t, db, svc, project.ID)

	loc := "Line 2"
	updated, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{Location: &loc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RevisionNumber != "0.1" {
		t.Errorf("Expected 0.1 after descriptive change, got %s", updated.RevisionNumber)
	}

	// Mixed change: the electrical field wins
	loc = "Line 3"
	v := 230.0
	updated, err = svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{Location: &loc, Voltage: &v})
	if err != nil {
		t.Fatalf("Update mixed: %v", err)
	}
	if updated.RevisionNumber != "1.0" {
		t.Errorf("Mixed change must bump major, got %s", updated.RevisionNumber)
	}
}

func TestTrivialChangeOverwritesWithoutSnapshot(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Overwrite Project")
	m := seedMotor(t, db, svc, project.ID)

	notes := "greased bearings"
	updated, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{AdditionalNotes: &notes})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RevisionNumber != "0.0" {
		t.Errorf("Notes change must not bump the revision, got %s", updated.RevisionNumber)
	}
	if updated.AdditionalNotes != notes {
		t.Errorf("Notes change must still apply")
	}

	revs, err := svc.Motor.ListRevisions(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("Overwrites take no snapshot, found %d", len(revs))
	}
}

func TestRevisionSequenceAcrossChanges(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Sequence Project")
	m := seedMotor(t, db, svc, project.ID)

	hp := 20.0
	if _, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{HP: &hp}); err != nil {
		t.Fatalf("major: %v", err)
	}
	loc := "Mezzanine"
	if _, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{Location: &loc}); err != nil {
		t.Fatalf("minor: %v", err)
	}
	frame := "256T"
	updated, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{Frame: &frame})
	if err != nil {
		t.Fatalf("second minor: %v", err)
	}
	if updated.RevisionNumber != "1.2" {
		t.Errorf("Expected 0.0 -> 1.0 -> 1.1 -> 1.2, got %s", updated.RevisionNumber)
	}

	qty := 2
	updated, err = svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{Qty: &qty})
	if err != nil {
		t.Fatalf("second major: %v", err)
	}
	if updated.RevisionNumber != "2.0" {
		t.Errorf("Major bump resets the minor counter, got %s", updated.RevisionNumber)
	}
}

func TestRevertIsAMajorBump(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Revert Project")
	m := seedMotor(t, db, svc, project.ID)

	hp := 25.0
	if _, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{HP: &hp}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	revs, err := svc.Motor.ListRevisions(ctx, m.ID)
	if err != nil || len(revs) != 1 {
		t.Fatalf("ListRevisions: %v (%d)", err, len(revs))
	}

	reverted, err := svc.Motor.RevertToRevision(ctx, m.ID, revs[0].ID)
	if err != nil {
		t.Fatalf("RevertToRevision: %v", err)
	}
	if reverted.HP == nil || *reverted.HP != 10.0 {
		t.Errorf("Revert must restore the snapshot hp, got %v", reverted.HP)
	}
	if reverted.RevisionNumber != "2.0" {
		t.Errorf("Revert records as a major bump, got %s", reverted.RevisionNumber)
	}
}

func TestRevertRejectsForeignRevision(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Foreign Project")
	m1 := seedMotor(t, db, svc, project.ID)
	hp := 50.0
	m2, err := svc.Motor.Create(ctx, &CreateMotorInput{
		ProjectID: project.ID, MotorName: "Pump", Voltage: 460, HP: &hp,
	})
	if err != nil {
		t.Fatalf("Create second motor: %v", err)
	}
	newHP := 60.0
	if _, err := svc.Motor.Update(ctx, m2.ID, &UpdateMotorInput{HP: &newHP}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	revs, err := svc.Motor.ListRevisions(ctx, m2.ID)
	if err != nil || len(revs) != 1 {
		t.Fatalf("ListRevisions: %v (%d)", err, len(revs))
	}

	_, err = svc.Motor.RevertToRevision(ctx, m1.ID, revs[0].ID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for a foreign revision, got %v", err)
	}
}

func TestMotorAmpsFromNECTable(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Amps Project")
	seedNECRow(t, db, 10, 28, 14)
	m := seedMotor(t, db, svc, project.ID)

	res, err := svc.Motor.Amps(ctx, m.ID)
	if err != nil {
		t.Fatalf("Amps: %v", err)
	}
	if res.Amps != 14 || res.Source != "nec_table" {
		t.Errorf("Expected 14A from the table at 460V, got %g from %s", res.Amps, res.Source)
	}
}

func TestManualAmpsOverrideWins(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Override Project")
	seedNECRow(t, db, 10, 28, 14)
	m := seedMotor(t, db, svc, project.ID)

	override := true
	manual := 17.5
	if _, err := svc.Motor.Update(ctx, m.ID, &UpdateMotorInput{
		NECAmpsOverride: &override,
		ManualAmps:      &manual,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	res, err := svc.Motor.Amps(ctx, m.ID)
	if err != nil {
		t.Fatalf("Amps: %v", err)
	}
	if res.Amps != 17.5 || res.Source != "manual" {
		t.Errorf("Expected manual override 17.5A, got %g from %s", res.Amps, res.Source)
	}
}

func TestLoadAmpsFromKVA(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Load Project")

	cases := []struct {
		name   string
		phase  string
		kva    float64
		volts  float64
		expect float64
	}{
		{"three phase", "three", 50, 480, 50 * 1000 / (480 * 1.7320508075688772)},
		{"single phase", "single", 10, 240, 10 * 1000 / 240.0},
		{"balanced single phase", "single_balanced", 30, 120, 30 * 1000 / 120.0 / 3},
	}
	for i, tc := range cases {
		kva := tc.kva
		m, err := svc.Motor.Create(ctx, &CreateMotorInput{
			ProjectID:   project.ID,
			MotorName:   tc.name,
			LoadType:    "load",
			Voltage:     tc.volts,
			PowerRating: &kva,
			PhaseConfig: tc.phase,
			SortOrder:   i,
		})
		if err != nil {
			t.Fatalf("%s: Create: %v", tc.name, err)
		}
		res, err := svc.Motor.Amps(ctx, m.ID)
		if err != nil {
			t.Fatalf("%s: Amps: %v", tc.name, err)
		}
		if !almostEqual(res.Amps, tc.expect) {
			t.Errorf("%s: expected %.4fA, got %.4fA", tc.name, tc.expect, res.Amps)
		}
		if res.Source != "kva_conversion" {
			t.Errorf("%s: expected kva_conversion source, got %s", tc.name, res.Source)
		}
	}
}

func TestLoadAmpsPassThrough(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Rated Project")

	rating := 42.0
	m, err := svc.Motor.Create(ctx, &CreateMotorInput{
		ProjectID:   project.ID,
		MotorName:   "Heater bank",
		LoadType:    "load",
		Voltage:     480,
		PowerRating: &rating,
		PowerUnit:   "Amps",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := svc.Motor.Amps(ctx, m.ID)
	if err != nil {
		t.Fatalf("Amps: %v", err)
	}
	if res.Amps != 42.0 || res.Source != "rated_amps" {
		t.Errorf("Amps-rated loads pass through, got %g from %s", res.Amps, res.Source)
	}
}

func TestMotorAmpsMissingTableEntry(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()
	project := testutil.SeedProject(t, db, "Missing Table Project")
	m := seedMotor(t, db, svc, project.ID)

	_, err := svc.Motor.Amps(ctx, m.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound without a table row, got %v", err)
	}
}
