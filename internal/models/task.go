package models

import "time"

// Task is one user-facing habit instance. Recurrence, subtasks, and the
// sparse per-date history are stored as JSON payloads; the scheduling core
// decodes them into internal/habit types.
type Task struct {
	ID          string  `gorm:"primaryKey;size:32"`
	UserID      string  `gorm:"size:32;not null;index"`
	Title       string  `gorm:"size:256;not null"`
	Type        string  `gorm:"size:16;default:binary"`
	Category    string  `gorm:"size:64;index"`
	StartDate   string  `gorm:"size:10;not null"`
	Time        string  `gorm:"size:5"`
	DailyTarget float64
	Unit        string  `gorm:"size:32"`
	StepValue   float64
	Subtasks    string  `gorm:"type:json"`
	Recurrence  string  `gorm:"type:json"`
	History     string  `gorm:"type:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Set when the task was instantiated from a template phase.
	AssignmentID *string `gorm:"size:32;index"`
	PhaseID      string  `gorm:"size:64"`
	PhaseName    string  `gorm:"size:128"`
	PhaseOrder   int
	PhaseDays    int
	PhaseStart   string `gorm:"size:10"`
	PhaseEnd     string `gorm:"size:10"`

	User       User        `gorm:"foreignKey:UserID"`
	Assignment *Assignment `gorm:"foreignKey:AssignmentID"`
}
