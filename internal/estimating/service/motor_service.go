package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/google/uuid"
)

// Revision classification. Major changes bump X.0, minor changes bump 0.X,
// trivial changes overwrite in place without a new revision.
const (
	RevisionMajor     = "major"
	RevisionMinor     = "minor"
	RevisionOverwrite = "overwrite"
)

// Field sets driving revision classification. Electrical fields force a major
// bump, descriptive fields a minor one; anything else overwrites silently.
var (
	majorChangeFields = map[string]bool{
		"hp": true, "voltage": true, "load_type": true, "power_rating": true,
		"power_unit": true, "phase_config": true, "vfd_type_id": true,
		"duty_type": true, "qty": true,
	}
	minorChangeFields = map[string]bool{
		"motor_name": true, "location": true, "encl_type": true, "frame": true,
		"speed_range": true, "overload_percentage": true, "continuous_load": true,
	}
)

type MotorService struct {
	motors   *repository.MotorRepository
	projects *repository.ProjectRepository
}

func NewMotorService(motors *repository.MotorRepository, projects *repository.ProjectRepository) *MotorService {
	return &MotorService{motors: motors, projects: projects}
}

func (s *MotorService) Create(ctx context.Context, input *CreateMotorInput) (*entity.Motor, error) {
	if _, err := s.projects.FindByID(ctx, input.ProjectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", input.ProjectID, err)
	}
	loadType := input.LoadType
	if loadType == "" {
		loadType = "motor"
	}
	if loadType == "motor" && input.HP == nil {
		return nil, fmt.Errorf("%w: hp is required for motors", ErrValidation)
	}
	if loadType == "load" && input.PowerRating == nil {
		return nil, fmt.Errorf("%w: power_rating is required for loads", ErrValidation)
	}

	m := &entity.Motor{
		ID:              uuid.New().String()[:32],
		ProjectID:       input.ProjectID,
		LoadType:        loadType,
		MotorName:       input.MotorName,
		Location:        input.Location,
		EnclType:        input.EnclType,
		Frame:           input.Frame,
		AdditionalNotes: input.AdditionalNotes,
		HP:              input.HP,
		SpeedRange:      input.SpeedRange,
		Voltage:         input.Voltage,
		Qty:             input.Qty,
		OverloadPct:     input.OverloadPct,
		ContinuousLoad:  input.ContinuousLoad,
		VFDTypeID:       input.VFDTypeID,
		DutyType:        input.DutyType,
		PowerRating:     input.PowerRating,
		PowerUnit:       input.PowerUnit,
		PhaseConfig:     input.PhaseConfig,
		SortOrder:       input.SortOrder,
		RevisionNumber:  "0.0",
		RevisionType:    RevisionMajor,
	}
	if m.Qty <= 0 {
		m.Qty = 1
	}
	if m.OverloadPct == 0 {
		m.OverloadPct = 1.15
	}
	if m.DutyType == "" {
		m.DutyType = "ND"
	}
	if m.PowerUnit == "" {
		m.PowerUnit = "kVA"
	}
	if m.PhaseConfig == "" {
		m.PhaseConfig = "three"
	}
	if err := s.motors.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create motor: %w", err)
	}
	return s.motors.FindByID(ctx, m.ID)
}

func (s *MotorService) Get(ctx context.Context, id string) (*entity.Motor, error) {
	return s.motors.FindByID(ctx, id)
}

func (s *MotorService) ListByProject(ctx context.Context, projectID string) ([]entity.Motor, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.motors.ListByProject(ctx, projectID)
}

// Update applies the change, classifies it against the field sets, bumps the
// revision number accordingly and snapshots the previous state. Trivial
// changes overwrite without a snapshot.
func (s *MotorService) Update(ctx context.Context, id string, input *UpdateMotorInput) (*entity.Motor, error) {
	m, err := s.motors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string][2]interface{}{}
	apply := func(field string, old, new interface{}, set func()) {
		if fmt.Sprint(old) == fmt.Sprint(new) {
			return
		}
		changes[field] = [2]interface{}{old, new}
		set()
	}

	if input.MotorName != nil {
		apply("motor_name", m.MotorName, *input.MotorName, func() { m.MotorName = *input.MotorName })
	}
	if input.Location != nil {
		apply("location", m.Location, *input.Location, func() { m.Location = *input.Location })
	}
	if input.EnclType != nil {
		apply("encl_type", m.EnclType, *input.EnclType, func() { m.EnclType = *input.EnclType })
	}
	if input.Frame != nil {
		apply("frame", m.Frame, *input.Frame, func() { m.Frame = *input.Frame })
	}
	if input.AdditionalNotes != nil {
		apply("additional_notes", m.AdditionalNotes, *input.AdditionalNotes, func() { m.AdditionalNotes = *input.AdditionalNotes })
	}
	if input.HP != nil {
		apply("hp", deref(m.HP), *input.HP, func() { m.HP = input.HP })
	}
	if input.SpeedRange != nil {
		apply("speed_range", m.SpeedRange, *input.SpeedRange, func() { m.SpeedRange = *input.SpeedRange })
	}
	if input.Voltage != nil {
		apply("voltage", m.Voltage, *input.Voltage, func() { m.Voltage = *input.Voltage })
	}
	if input.Qty != nil {
		apply("qty", m.Qty, *input.Qty, func() { m.Qty = *input.Qty })
	}
	if input.OverloadPct != nil {
		apply("overload_percentage", m.OverloadPct, *input.OverloadPct, func() { m.OverloadPct = *input.OverloadPct })
	}
	if input.ContinuousLoad != nil {
		apply("continuous_load", m.ContinuousLoad, *input.ContinuousLoad, func() { m.ContinuousLoad = *input.ContinuousLoad })
	}
	if input.VFDTypeID != nil {
		apply("vfd_type_id", deref(m.VFDTypeID), *input.VFDTypeID, func() { m.VFDTypeID = input.VFDTypeID })
	}
	if input.DutyType != nil {
		apply("duty_type", m.DutyType, *input.DutyType, func() { m.DutyType = *input.DutyType })
	}
	if input.PowerRating != nil {
		apply("power_rating", deref(m.PowerRating), *input.PowerRating, func() { m.PowerRating = input.PowerRating })
	}
	if input.PowerUnit != nil {
		apply("power_unit", m.PowerUnit, *input.PowerUnit, func() { m.PowerUnit = *input.PowerUnit })
	}
	if input.PhaseConfig != nil {
		apply("phase_config", m.PhaseConfig, *input.PhaseConfig, func() { m.PhaseConfig = *input.PhaseConfig })
	}
	if input.NECAmpsOverride != nil {
		apply("nec_amps_override", m.NECAmpsOverride, *input.NECAmpsOverride, func() { m.NECAmpsOverride = *input.NECAmpsOverride })
	}
	if input.ManualAmps != nil {
		apply("manual_amps", deref(m.ManualAmps), *input.ManualAmps, func() { m.ManualAmps = input.ManualAmps })
	}
	if input.SortOrder != nil {
		m.SortOrder = *input.SortOrder
	}

	if len(changes) == 0 {
		if err := s.motors.Update(ctx, m); err != nil {
			return nil, fmt.Errorf("update motor: %w", err)
		}
		return s.motors.FindByID(ctx, id)
	}

	revType := classifyChanges(changes)
	if revType != RevisionOverwrite {
		next, err := bumpRevision(m.RevisionNumber, revType)
		if err != nil {
			return nil, err
		}
		if err := s.snapshotRevision(ctx, m, next, revType, changes, input.ChangedBy, input.ChangeDescription); err != nil {
			return nil, err
		}
		m.RevisionNumber = next
		m.RevisionType = revType
	}

	if err := s.motors.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update motor: %w", err)
	}
	return s.motors.FindByID(ctx, id)
}

func (s *MotorService) Delete(ctx context.Context, id string) error {
	if _, err := s.motors.FindByID(ctx, id); err != nil {
		return err
	}
	return s.motors.Delete(ctx, id)
}

func (s *MotorService) ListRevisions(ctx context.Context, motorID string) ([]entity.MotorRevision, error) {
	if _, err := s.motors.FindByID(ctx, motorID); err != nil {
		return nil, err
	}
	return s.motors.ListRevisions(ctx, motorID)
}

// RevertToRevision restores the snapshot's fields onto the motor. A revert is
// always a major bump so the history shows the rollback.
func (s *MotorService) RevertToRevision(ctx context.Context, motorID, revisionID string) (*entity.Motor, error) {
	m, err := s.motors.FindByID(ctx, motorID)
	if err != nil {
		return nil, err
	}
	rev, err := s.motors.FindRevision(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if rev.MotorID != motorID {
		return nil, fmt.Errorf("%w: revision belongs to another motor", ErrValidation)
	}

	next, err := bumpRevision(m.RevisionNumber, RevisionMajor)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("reverted to revision %s", rev.RevisionNumber)
	if err := s.snapshotRevision(ctx, m, next, RevisionMajor, nil, rev.ChangedBy, desc); err != nil {
		return nil, err
	}

	m.LoadType = rev.LoadType
	m.MotorName = rev.MotorName
	m.Location = rev.Location
	m.EnclType = rev.EnclType
	m.Frame = rev.Frame
	m.AdditionalNotes = rev.AdditionalNotes
	m.HP = rev.HP
	m.SpeedRange = rev.SpeedRange
	m.Voltage = rev.Voltage
	m.Qty = rev.Qty
	m.OverloadPct = rev.OverloadPct
	m.ContinuousLoad = rev.ContinuousLoad
	m.VFDTypeID = rev.VFDTypeID
	m.DutyType = rev.DutyType
	m.PowerRating = rev.PowerRating
	m.PowerUnit = rev.PowerUnit
	m.PhaseConfig = rev.PhaseConfig
	m.NECAmpsOverride = rev.NECAmpsOverride
	m.ManualAmps = rev.ManualAmps
	m.RevisionNumber = next
	m.RevisionType = RevisionMajor

	if err := s.motors.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("revert motor: %w", err)
	}
	return s.motors.FindByID(ctx, motorID)
}

// Amps resolves the line current for a motor or load.
//
// Motors use the NEC full-load table by HP and voltage unless a manual
// override is set. Loads convert their power rating: kVA uses
// kVA*1000/(V*sqrt3) three-phase or kVA*1000/V single-phase; a balanced
// single-phase load splits across three circuits. Amps-rated loads pass
// through.
func (s *MotorService) Amps(ctx context.Context, id string) (*AmpsResult, error) {
	m, err := s.motors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &AmpsResult{MotorID: m.ID, LoadType: m.LoadType, Voltage: m.Voltage}

	if m.NECAmpsOverride && m.ManualAmps != nil {
		res.Amps = *m.ManualAmps
		res.Source = "manual"
		return res, nil
	}

	if m.LoadType == "motor" {
		if m.HP == nil {
			return nil, fmt.Errorf("%w: motor has no hp rating", ErrValidation)
		}
		row, err := s.motors.FindNECAmps(ctx, *m.HP)
		if err != nil {
			if err == repository.ErrNotFound {
				return nil, fmt.Errorf("%w: no table entry for %g HP", ErrNotFound, *m.HP)
			}
			return nil, err
		}
		amps := row.AmpsAt(m.Voltage)
		if amps == nil {
			return nil, fmt.Errorf("%w: no table entry for %g HP at %gV", ErrNotFound, *m.HP, m.Voltage)
		}
		res.Amps = *amps
		res.Source = "nec_table"
		return res, nil
	}

	if m.PowerRating == nil {
		return nil, fmt.Errorf("%w: load has no power rating", ErrValidation)
	}
	switch m.PowerUnit {
	case "Amps":
		res.Amps = *m.PowerRating
		res.Source = "rated_amps"
	case "kVA":
		watts := *m.PowerRating * 1000
		switch m.PhaseConfig {
		case "three":
			res.Amps = watts / (m.Voltage * math.Sqrt(3))
		case "single":
			res.Amps = watts / m.Voltage
		case "single_balanced":
			res.Amps = watts / m.Voltage / 3
		default:
			return nil, fmt.Errorf("%w: unknown phase config %q", ErrValidation, m.PhaseConfig)
		}
		res.Source = "kva_conversion"
	default:
		return nil, fmt.Errorf("%w: unknown power unit %q", ErrValidation, m.PowerUnit)
	}
	return res, nil
}

func (s *MotorService) NECAmpTable(ctx context.Context) ([]entity.NECAmpRow, error) {
	return s.motors.ListNECAmps(ctx)
}

func (s *MotorService) ListVFDTypes(ctx context.Context) ([]entity.VFDType, error) {
	return s.motors.ListVFDTypes(ctx, true)
}

func (s *MotorService) snapshotRevision(ctx context.Context, m *entity.Motor, revNumber, revType string, changes map[string][2]interface{}, changedBy, description string) error {
	var fieldsJSON string
	if len(changes) > 0 {
		flat := make(map[string]map[string]interface{}, len(changes))
		for field, pair := range changes {
			flat[field] = map[string]interface{}{"old": pair[0], "new": pair[1]}
		}
		raw, err := json.Marshal(flat)
		if err != nil {
			return fmt.Errorf("encode change set: %w", err)
		}
		fieldsJSON = string(raw)
	}

	rev := &entity.MotorRevision{
		ID:                uuid.New().String()[:32],
		MotorID:           m.ID,
		RevisionNumber:    revNumber,
		RevisionType:      revType,
		FieldsChanged:     fieldsJSON,
		LoadType:          m.LoadType,
		MotorName:         m.MotorName,
		Location:          m.Location,
		EnclType:          m.EnclType,
		Frame:             m.Frame,
		AdditionalNotes:   m.AdditionalNotes,
		HP:                m.HP,
		SpeedRange:        m.SpeedRange,
		Voltage:           m.Voltage,
		Qty:               m.Qty,
		OverloadPct:       m.OverloadPct,
		ContinuousLoad:    m.ContinuousLoad,
		VFDTypeID:         m.VFDTypeID,
		DutyType:          m.DutyType,
		PowerRating:       m.PowerRating,
		PowerUnit:         m.PowerUnit,
		PhaseConfig:       m.PhaseConfig,
		NECAmpsOverride:   m.NECAmpsOverride,
		ManualAmps:        m.ManualAmps,
		ChangedBy:         changedBy,
		ChangeDescription: description,
	}
	if err := s.motors.CreateRevision(ctx, rev); err != nil {
		return fmt.Errorf("snapshot revision: %w", err)
	}
	return nil
}

func classifyChanges(changes map[string][2]interface{}) string {
	result := RevisionOverwrite
	for field := range changes {
		if majorChangeFields[field] {
			return RevisionMajor
		}
		if minorChangeFields[field] {
			result = RevisionMinor
		}
	}
	return result
}

// bumpRevision advances "major.minor": major bumps go to X+1.0, minor bumps
// to X.Y+1.
func bumpRevision(current, revType string) (string, error) {
	parts := strings.SplitN(current, ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: bad revision number %q", ErrValidation, current)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: bad revision number %q", ErrValidation, current)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad revision number %q", ErrValidation, current)
	}
	switch revType {
	case RevisionMajor:
		return fmt.Sprintf("%d.0", major+1), nil
	case RevisionMinor:
		return fmt.Sprintf("%d.%d", major, minor+1), nil
	}
	return current, nil
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

type CreateMotorInput struct {
	ProjectID       string   `json:"project_id" binding:"required"`
	LoadType        string   `json:"load_type"`
	MotorName       string   `json:"motor_name" binding:"required"`
	Location        string   `json:"location"`
	EnclType        string   `json:"encl_type"`
	Frame           string   `json:"frame"`
	AdditionalNotes string   `json:"additional_notes"`
	HP              *float64 `json:"hp"`
	SpeedRange      string   `json:"speed_range"`
	Voltage         float64  `json:"voltage" binding:"required"`
	Qty             int      `json:"qty"`
	OverloadPct     float64  `json:"overload_percentage"`
	ContinuousLoad  bool     `json:"continuous_load"`
	VFDTypeID       *string  `json:"vfd_type_id"`
	DutyType        string   `json:"duty_type"`
	PowerRating     *float64 `json:"power_rating"`
	PowerUnit       string   `json:"power_unit"`
	PhaseConfig     string   `json:"phase_config"`
	SortOrder       int      `json:"sort_order"`
}

type UpdateMotorInput struct {
	MotorName         *string  `json:"motor_name"`
	Location          *string  `json:"location"`
	EnclType          *string  `json:"encl_type"`
	Frame             *string  `json:"frame"`
	AdditionalNotes   *string  `json:"additional_notes"`
	HP                *float64 `json:"hp"`
	SpeedRange        *string  `json:"speed_range"`
	Voltage           *float64 `json:"voltage"`
	Qty               *int     `json:"qty"`
	OverloadPct       *float64 `json:"overload_percentage"`
	ContinuousLoad    *bool    `json:"continuous_load"`
	VFDTypeID         *string  `json:"vfd_type_id"`
	DutyType          *string  `json:"duty_type"`
	PowerRating       *float64 `json:"power_rating"`
	PowerUnit         *string  `json:"power_unit"`
	PhaseConfig       *string  `json:"phase_config"`
	NECAmpsOverride   *bool    `json:"nec_amps_override"`
	ManualAmps        *float64 `json:"manual_amps"`
	SortOrder         *int     `json:"sort_order"`
	ChangedBy         string   `json:"changed_by"`
	ChangeDescription string   `json:"change_description"`
}

type AmpsResult struct {
	MotorID  string  `json:"motor_id"`
	LoadType string  `json:"load_type"`
	Voltage  float64 `json:"voltage"`
	Amps     float64 `json:"amps"`
	Source   string  `json:"source"`
}
