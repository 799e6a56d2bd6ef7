package models

import "time"

// User roles.
const (
	RoleUser   = "user"
	RoleExpert = "expert"
)

// User is an account: a regular user tracking habits, or an expert who
// authors templates and assigns them. Email is nullable so accounts
// without one don't collide on the unique index.
type User struct {
	ID        string  `gorm:"primaryKey;size:32"`
	Name      string  `gorm:"size:128;not null"`
	Email     *string `gorm:"size:256;uniqueIndex"`
	Role      string `gorm:"size:16;default:user;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Tasks       []Task       `gorm:"foreignKey:UserID"`
	Assignments []Assignment `gorm:"foreignKey:UserID"`
}
