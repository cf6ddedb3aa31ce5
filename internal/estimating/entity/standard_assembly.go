package entity

import "time"

// AssemblyCategory groups standard assemblies (MCC buckets, pump panels, ...)
type AssemblyCategory struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:20;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AssemblyCategory) TableName() string {
	return "assembly_categories"
}

// StandardAssembly is a versioned reusable template bill of materials.
//
// Version families are one level deep: the base row has BaseAssemblyID nil,
// every derived version points directly at the base. (Base-or-self, version)
// is unique within a family.
type StandardAssembly struct {
	ID             string  `json:"id" gorm:"primaryKey;size:32"`
	Name           string  `json:"name" gorm:"size:255;not null;index"`
	AssemblyNumber string  `json:"assembly_number,omitempty" gorm:"size:50;index"`
	Description    string  `json:"description,omitempty" gorm:"type:text"`
	CategoryID     string  `json:"category_id" gorm:"size:32;not null;index"`
	BaseAssemblyID *string `json:"base_assembly_id,omitempty" gorm:"size:32;index"`
	Version        string  `json:"version" gorm:"size:20;not null;default:1.0"`
	IsActive       bool    `json:"is_active" gorm:"default:true;index"`
	IsTemplate     bool    `json:"is_template" gorm:"default:false"` // current template version of the family
	CreatedBy      string  `json:"created_by,omitempty" gorm:"size:100"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Category        *AssemblyCategory          `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Components      []StandardAssemblyComponent `json:"components,omitempty" gorm:"foreignKey:StandardAssemblyID"`
	BaseAssembly    *StandardAssembly          `json:"base_assembly,omitempty" gorm:"foreignKey:BaseAssemblyID"`
	VersionRecords  []AssemblyVersion          `json:"version_records,omitempty" gorm:"foreignKey:StandardAssemblyID"`
}

func (StandardAssembly) TableName() string {
	return "standard_assemblies"
}

// FamilyRootID returns the identifier of the base row of this assembly's
// version family: the base id when derived, its own id when it is the base.
func (sa *StandardAssembly) FamilyRootID() string {
	if sa.BaseAssemblyID != nil {
		return *sa.BaseAssemblyID
	}
	return sa.ID
}

// StandardAssemblyComponent is one template line: a part with quantity.
type StandardAssemblyComponent struct {
	ID                 string  `json:"id" gorm:"primaryKey;size:32"`
	StandardAssemblyID string  `json:"standard_assembly_id" gorm:"size:32;not null;index"`
	PartID             string  `json:"part_id" gorm:"size:32;not null;index"`
	Quantity           float64 `json:"quantity" gorm:"type:numeric(10,3);not null;default:1"`
	UnitOfMeasure      string  `json:"unit_of_measure" gorm:"size:20;default:EA"`
	Notes              string  `json:"notes,omitempty" gorm:"type:text"`
	SortOrder          int     `json:"sort_order" gorm:"default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Relations
	Part *Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (StandardAssemblyComponent) TableName() string {
	return "standard_assembly_components"
}

// AssemblyVersion records the release note for each created version.
type AssemblyVersion struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:32"`
	StandardAssemblyID string    `json:"standard_assembly_id" gorm:"size:32;not null;index"`
	VersionNumber      string    `json:"version_number" gorm:"size:20;not null"`
	Notes              string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy          string    `json:"created_by,omitempty" gorm:"size:100"`
	CreatedAt          time.Time `json:"created_at"`
}

func (AssemblyVersion) TableName() string {
	return "assembly_versions"
}
