package entity

import "time"

// VFDType is the drive family lookup used for motor drive selection.
type VFDType struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	TypeName     string    `json:"type_name" gorm:"size:50;not null;uniqueIndex"`
	Manufacturer string    `json:"manufacturer,omitempty" gorm:"size:100"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	SortOrder    int       `json:"sort_order" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (VFDType) TableName() string {
	return "vfd_types"
}

// NECAmpRow is the NEC full-load current table, one row per HP rating.
type NECAmpRow struct {
	ID          string   `json:"id" gorm:"primaryKey;size:32"`
	HP          float64  `json:"hp" gorm:"type:numeric(6,2);not null;uniqueIndex"`
	Voltage115  *float64 `json:"voltage_115,omitempty" gorm:"type:numeric(8,2)"`
	Voltage200  *float64 `json:"voltage_200,omitempty" gorm:"type:numeric(8,2)"`
	Voltage208  *float64 `json:"voltage_208,omitempty" gorm:"type:numeric(8,2)"`
	Voltage230  *float64 `json:"voltage_230,omitempty" gorm:"type:numeric(8,2)"`
	Voltage460  *float64 `json:"voltage_460,omitempty" gorm:"type:numeric(8,2)"`
	Voltage575  *float64 `json:"voltage_575,omitempty" gorm:"type:numeric(8,2)"`
	Voltage2300 *float64 `json:"voltage_2300,omitempty" gorm:"type:numeric(8,2)"`
}

func (NECAmpRow) TableName() string {
	return "nec_amp_table"
}

// AmpsAt returns the full-load current for the given line voltage, or nil
// when the table has no value for that voltage.
func (r *NECAmpRow) AmpsAt(voltage float64) *float64 {
	switch int(voltage) {
	case 115:
		return r.Voltage115
	case 200:
		return r.Voltage200
	case 208:
		return r.Voltage208
	case 230:
		return r.Voltage230
	case 460:
		return r.Voltage460
	case 575:
		return r.Voltage575
	case 2300:
		return r.Voltage2300
	}
	return nil
}

// Motor tracks a motor or generic load on a project, with revision history.
type Motor struct {
	ID              string   `json:"id" gorm:"primaryKey;size:32"`
	ProjectID       string   `json:"project_id" gorm:"size:32;not null;index"`
	LoadType        string   `json:"load_type" gorm:"size:20;not null;default:motor"` // motor/load
	MotorName       string   `json:"motor_name" gorm:"size:255;not null"`
	Location        string   `json:"location,omitempty" gorm:"size:100"`
	EnclType        string   `json:"encl_type,omitempty" gorm:"size:50"`
	Frame           string   `json:"frame,omitempty" gorm:"size:50"`
	AdditionalNotes string   `json:"additional_notes,omitempty" gorm:"type:text"`
	HP              *float64 `json:"hp,omitempty" gorm:"type:numeric(8,2)"` // motors only
	SpeedRange      string   `json:"speed_range,omitempty" gorm:"size:50"`
	Voltage         float64  `json:"voltage" gorm:"type:numeric(8,2);not null"`
	Qty             int      `json:"qty" gorm:"not null;default:1"`
	OverloadPct     float64  `json:"overload_percentage" gorm:"column:overload_percentage;type:numeric(5,3);default:1.15"`
	ContinuousLoad  bool     `json:"continuous_load" gorm:"default:true;not null"`
	VFDTypeID       *string  `json:"vfd_type_id,omitempty" gorm:"size:32;index"`
	DutyType        string   `json:"duty_type" gorm:"size:2;default:ND"` // ND/HD

	// Load-specific fields
	PowerRating *float64 `json:"power_rating,omitempty" gorm:"type:numeric(10,3)"`
	PowerUnit   string   `json:"power_unit" gorm:"size:10;default:kVA"` // kVA/Amps
	PhaseConfig string   `json:"phase_config" gorm:"size:10;default:three"`

	// Overrides
	NECAmpsOverride bool     `json:"nec_amps_override" gorm:"default:false"`
	ManualAmps      *float64 `json:"manual_amps,omitempty" gorm:"type:numeric(8,3)"`

	SortOrder      int       `json:"sort_order" gorm:"default:0"`
	RevisionNumber string    `json:"revision_number" gorm:"size:20;default:0.0"`
	RevisionType   string    `json:"revision_type" gorm:"size:20;default:major"` // major/minor/overwrite
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	VFDType   *VFDType        `json:"vfd_type,omitempty" gorm:"foreignKey:VFDTypeID"`
	Revisions []MotorRevision `json:"revisions,omitempty" gorm:"foreignKey:MotorID"`
}

func (Motor) TableName() string {
	return "motors"
}

// MotorRevision snapshots every motor field at the time of a change.
type MotorRevision struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	MotorID        string `json:"motor_id" gorm:"size:32;not null;index"`
	RevisionNumber string `json:"revision_number" gorm:"size:20;not null"`
	RevisionType   string `json:"revision_type" gorm:"size:20;default:major"`
	FieldsChanged  string `json:"fields_changed,omitempty" gorm:"type:text"` // JSON map of old/new values

	// Snapshot
	LoadType        string   `json:"load_type" gorm:"size:20;not null"`
	MotorName       string   `json:"motor_name" gorm:"size:255;not null"`
	Location        string   `json:"location,omitempty" gorm:"size:100"`
	EnclType        string   `json:"encl_type,omitempty" gorm:"size:50"`
	Frame           string   `json:"frame,omitempty" gorm:"size:50"`
	AdditionalNotes string   `json:"additional_notes,omitempty" gorm:"type:text"`
	HP              *float64 `json:"hp,omitempty" gorm:"type:numeric(8,2)"`
	SpeedRange      string   `json:"speed_range,omitempty" gorm:"size:50"`
	Voltage         float64  `json:"voltage" gorm:"type:numeric(8,2);not null"`
	Qty             int      `json:"qty" gorm:"not null"`
	OverloadPct     float64  `json:"overload_percentage" gorm:"column:overload_percentage;type:numeric(5,3)"`
	ContinuousLoad  bool     `json:"continuous_load" gorm:"not null"`
	VFDTypeID       *string  `json:"vfd_type_id,omitempty" gorm:"size:32"`
	DutyType        string   `json:"duty_type" gorm:"size:2"`
	PowerRating     *float64 `json:"power_rating,omitempty" gorm:"type:numeric(10,3)"`
	PowerUnit       string   `json:"power_unit" gorm:"size:10"`
	PhaseConfig     string   `json:"phase_config" gorm:"size:10"`
	NECAmpsOverride bool     `json:"nec_amps_override"`
	ManualAmps      *float64 `json:"manual_amps,omitempty" gorm:"type:numeric(8,3)"`

	ChangedBy         string    `json:"changed_by,omitempty" gorm:"size:100"`
	ChangeDescription string    `json:"change_description,omitempty" gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"`
}

func (MotorRevision) TableName() string {
	return "motor_revisions"
}
