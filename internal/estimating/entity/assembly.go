package entity

import "time"

// Assembly is an instance inside an estimate, usually materialized from a
// StandardAssembly template.
//
// StandardAssemblyVersion denormalizes the version of the row
// StandardAssemblyID points at; the two fields must always change together.
type Assembly struct {
	ID           string  `json:"id" gorm:"primaryKey;size:32"`
	EstimateID   string  `json:"estimate_id" gorm:"size:32;not null;index"`
	AssemblyName string  `json:"assembly_name" gorm:"size:255;not null"`
	Description  string  `json:"description,omitempty" gorm:"type:text"`
	SortOrder    int     `json:"sort_order" gorm:"default:0"`
	Quantity     float64 `json:"quantity" gorm:"type:numeric(10,3);default:1"`

	StandardAssemblyID      *string `json:"standard_assembly_id,omitempty" gorm:"size:32;index"`
	StandardAssemblyVersion *string `json:"standard_assembly_version,omitempty" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	StandardAssembly *StandardAssembly `json:"standard_assembly,omitempty" gorm:"foreignKey:StandardAssemblyID"`
	Parts            []AssemblyPart    `json:"parts,omitempty" gorm:"foreignKey:AssemblyID"`
}

func (Assembly) TableName() string {
	return "assemblies"
}

// AssemblyPart is the materialized, independently editable copy of a template
// line for one assembly instance. Pricing always follows the part's current
// price; only quantity and notes are frozen here.
type AssemblyPart struct {
	ID            string  `json:"id" gorm:"primaryKey;size:32"`
	AssemblyID    string  `json:"assembly_id" gorm:"size:32;not null;index"`
	PartID        string  `json:"part_id" gorm:"size:32;not null;index"`
	Quantity      float64 `json:"quantity" gorm:"type:numeric(10,3);not null;default:1"`
	UnitOfMeasure string  `json:"unit_of_measure" gorm:"size:20;default:EA"`
	SortOrder     int     `json:"sort_order" gorm:"default:0"`
	Notes         string  `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Part *Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (AssemblyPart) TableName() string {
	return "assembly_parts"
}

// LineTotal is quantity times the part's current unit price. Requires the
// Part relation (with current price history) preloaded.
func (ap *AssemblyPart) LineTotal() float64 {
	if ap.Part == nil {
		return 0
	}
	return ap.Part.CurrentPrice() * ap.Quantity
}
