package models

import "time"

// Category is one row of the append-only category registry: builtin rows
// are seeded at migration, custom rows are added when a user picks a new
// icon. Existing rows are never mutated. The scheduling core never reads
// this table; it exists for rendering only.
type Category struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128;not null"`
	Icon      string `gorm:"size:16"`
	Builtin   bool   `gorm:"default:false"`
	CreatedAt time.Time
}

// Snapshot is a per-user daily rollup written by the digest job: how many
// tasks were due and how many were completed on a given date.
type Snapshot struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Date      string `gorm:"size:10;not null;index:idx_snapshot_day,unique"`
	UserID    string `gorm:"size:32;not null;index:idx_snapshot_day,unique"`
	DueCount  int
	DoneCount int
	CreatedAt time.Time
}
