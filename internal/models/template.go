package models

import "time"

// Template is a reusable plan authored by an expert. Tasks holds the raw
// payload as persisted: either a legacy flat blueprint array or the
// versioned {version: "2.0", phases: [...]} structure. internal/plan
// normalizes both.
type Template struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`
	CreatorID   string `gorm:"size:32;index"`
	Approved    bool   `gorm:"default:false;index"`
	Tasks       string `gorm:"type:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Creator User `gorm:"foreignKey:CreatorID"`
}

// Assignment enrolls a user in a template from a chosen start date. Its
// instantiated tasks reference it and are removed with it.
type Assignment struct {
	ID         string `gorm:"primaryKey;size:32"`
	UserID     string `gorm:"size:32;not null;index"`
	TemplateID string `gorm:"size:32;not null;index"`
	StartDate  string `gorm:"size:10;not null"`
	CreatedAt  time.Time

	User     User     `gorm:"foreignKey:UserID"`
	Template Template `gorm:"foreignKey:TemplateID"`
	Tasks    []Task   `gorm:"foreignKey:AssignmentID"`
}
