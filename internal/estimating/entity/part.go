package entity

import "time"

// PartCategory groups catalog parts (breakers, contactors, enclosures, ...)
type PartCategory struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string    `json:"description,omitempty" gorm:"size:255"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (PartCategory) TableName() string {
	return "part_categories"
}

// Part is a catalog part. Pricing lives in PartPriceHistory; the row flagged
// is_current holds the effective unit price.
type Part struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	CategoryID       *string `json:"category_id,omitempty" gorm:"size:32;index"`
	Model            string  `json:"model,omitempty" gorm:"size:100"`
	Rating           string  `json:"rating,omitempty" gorm:"size:50"`
	MasterItemNumber string  `json:"master_item_number,omitempty" gorm:"size:100"`
	Manufacturer     string  `json:"manufacturer" gorm:"size:100;not null;index"`
	PartNumber       string  `json:"part_number" gorm:"size:100;not null;uniqueIndex"`
	UPC              string  `json:"upc,omitempty" gorm:"size:50"`
	Description      string  `json:"description,omitempty" gorm:"type:text"`
	Vendor           string  `json:"vendor,omitempty" gorm:"size:100"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	Category     *PartCategory      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	PriceHistory []PartPriceHistory `json:"price_history,omitempty" gorm:"foreignKey:PartID"`
}

func (Part) TableName() string {
	return "parts"
}

// CurrentPrice returns the effective unit price from preloaded history.
// Callers must preload PriceHistory (or at least the is_current row).
func (p *Part) CurrentPrice() float64 {
	for i := range p.PriceHistory {
		if p.PriceHistory[i].IsCurrent {
			return p.PriceHistory[i].NewPrice
		}
	}
	return 0
}

// PartPriceHistory is the append-only price log. Exactly one row per part
// carries is_current=true.
type PartPriceHistory struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	PartID        string     `json:"part_id" gorm:"size:32;not null;index"`
	OldPrice      *float64   `json:"old_price,omitempty" gorm:"type:numeric(12,2)"`
	NewPrice      float64    `json:"new_price" gorm:"type:numeric(12,2);not null"`
	ChangedAt     time.Time  `json:"changed_at"`
	ChangedReason string     `json:"changed_reason,omitempty" gorm:"size:255"`
	EffectiveDate *time.Time `json:"effective_date,omitempty" gorm:"type:date"`
	IsCurrent     bool       `json:"is_current" gorm:"default:false;index"`
	Source        string     `json:"source" gorm:"size:50;default:manual"` // manual/xlsx_import/api
}

func (PartPriceHistory) TableName() string {
	return "parts_price_history"
}
