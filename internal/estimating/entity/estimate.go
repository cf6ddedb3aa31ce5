package entity

import "time"

// Estimate is one quoted scope within a project. Labor rates are snapshotted
// at creation so later rate changes never move an existing quote.
type Estimate struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID      string    `json:"project_id" gorm:"size:32;not null;index"`
	EstimateNumber string    `json:"estimate_number" gorm:"size:100;not null;uniqueIndex"`
	EstimateName   string    `json:"estimate_name" gorm:"size:255;not null"`
	Description    string    `json:"description,omitempty" gorm:"type:text"`
	SortOrder      int       `json:"sort_order" gorm:"default:0"`
	RevisionNumber int       `json:"revision_number" gorm:"default:0"`
	IsOptional     bool      `json:"is_optional" gorm:"default:false"` // excluded from all project-level aggregates

	// Labor rate snapshot
	EngineeringRate     float64    `json:"engineering_rate" gorm:"type:numeric(8,2);default:145"`
	PanelShopRate       float64    `json:"panel_shop_rate" gorm:"type:numeric(8,2);default:125"`
	MachineAssemblyRate float64    `json:"machine_assembly_rate" gorm:"type:numeric(8,2);default:125"`
	RateSnapshotDate    *time.Time `json:"rate_snapshot_date,omitempty" gorm:"type:date"`

	// Estimate-level labor hours
	EngineeringHours     float64 `json:"engineering_hours" gorm:"type:numeric(8,2);default:0"`
	PanelShopHours       float64 `json:"panel_shop_hours" gorm:"type:numeric(8,2);default:0"`
	MachineAssemblyHours float64 `json:"machine_assembly_hours" gorm:"type:numeric(8,2);default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project    *Project            `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Assemblies []Assembly          `json:"assemblies,omitempty" gorm:"foreignKey:EstimateID"`
	Components []EstimateComponent `json:"components,omitempty" gorm:"foreignKey:EstimateID"`
	Revisions  []EstimateRevision  `json:"revisions,omitempty" gorm:"foreignKey:EstimateID"`
}

func (Estimate) TableName() string {
	return "estimates"
}

// EstimateComponent is a standalone line added directly to an estimate,
// outside any assembly. PartID is optional; custom lines carry their own
// price and description.
type EstimateComponent struct {
	ID            string  `json:"id" gorm:"primaryKey;size:32"`
	EstimateID    string  `json:"estimate_id" gorm:"size:32;not null;index"`
	PartID        *string `json:"part_id,omitempty" gorm:"size:32;index"`
	ComponentName string  `json:"component_name" gorm:"size:255;not null"`
	Description   string  `json:"description,omitempty" gorm:"type:text"`
	PartNumber    string  `json:"part_number,omitempty" gorm:"size:100"`
	Manufacturer  string  `json:"manufacturer,omitempty" gorm:"size:100"`
	UnitPrice     float64 `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Quantity      float64 `json:"quantity" gorm:"type:numeric(10,3);not null;default:1"`
	UnitOfMeasure string  `json:"unit_of_measure" gorm:"size:20;default:EA"`
	CategoryName  string  `json:"category,omitempty" gorm:"column:category;size:100"`
	Notes         string  `json:"notes,omitempty" gorm:"type:text"`
	SortOrder     int     `json:"sort_order" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Part *Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (EstimateComponent) TableName() string {
	return "estimate_components"
}

// TotalPrice is the line total for this component.
func (c *EstimateComponent) TotalPrice() float64 {
	return c.UnitPrice * c.Quantity
}

// EstimateRevision tracks the change log per estimate revision number.
type EstimateRevision struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	EstimateID      string    `json:"estimate_id" gorm:"size:32;not null;index;uniqueIndex:uk_estimate_revision"`
	RevisionNumber  int       `json:"revision_number" gorm:"not null;uniqueIndex:uk_estimate_revision"`
	ChangesSummary  string    `json:"changes_summary,omitempty" gorm:"type:text"`
	DetailedChanges string    `json:"detailed_changes,omitempty" gorm:"type:text"`
	CreatedBy       string    `json:"created_by,omitempty" gorm:"size:100"`
	CreatedAt       time.Time `json:"created_at"`
}

func (EstimateRevision) TableName() string {
	return "estimate_revisions"
}
