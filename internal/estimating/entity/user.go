package entity

import "time"

// User is an application account. Passwords are stored as bcrypt hashes;
// the role drives the JWT role claim.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Username     string    `json:"username" gorm:"size:80;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:120;not null;uniqueIndex"`
	FullName     string    `json:"full_name" gorm:"size:200;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         string    `json:"role" gorm:"size:50;default:viewer"` // admin/estimator/viewer
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
