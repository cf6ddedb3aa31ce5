package entity

import "time"

// Project is the top-level container for estimates and motors.
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectName string    `json:"project_name" gorm:"size:255;not null"`
	ClientName  string    `json:"client_name" gorm:"size:255;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Status      string    `json:"status" gorm:"size:50;default:draft"` // draft/quoted/awarded/closed
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	Revision    string    `json:"revision,omitempty" gorm:"size:50"`
	Remarks     string    `json:"remarks,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Estimates []Estimate `json:"estimates,omitempty" gorm:"foreignKey:ProjectID"`
	Motors    []Motor    `json:"motors,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}
