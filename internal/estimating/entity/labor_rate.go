package entity

import "time"

// LaborRate is the shop-wide rate set. Updates append a new row and flip
// is_current; estimates snapshot the current row at creation.
type LaborRate struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:32"`
	EngineeringRate     float64   `json:"engineering_rate" gorm:"type:numeric(8,2);not null"`
	PanelShopRate       float64   `json:"panel_shop_rate" gorm:"type:numeric(8,2);not null"`
	MachineAssemblyRate float64   `json:"machine_assembly_rate" gorm:"type:numeric(8,2);not null"`
	Notes               string    `json:"notes,omitempty" gorm:"type:text"`
	IsCurrent           bool      `json:"is_current" gorm:"default:false;index"`
	CreatedBy           string    `json:"created_by,omitempty" gorm:"size:100"`
	CreatedAt           time.Time `json:"created_at"`
}

func (LaborRate) TableName() string {
	return "labor_rates"
}
