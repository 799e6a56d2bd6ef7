package db

import (
	"fmt"

	"github.com/mgrier/stride/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Task{},
		&models.Template{},
		&models.Assignment{},
		&models.Snapshot{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// BuiltinCategories are the registry rows seeded at migration. Custom rows
// are appended at runtime and never collide with these ids.
var BuiltinCategories = []models.Category{
	{ID: "health", Name: "Health", Icon: "💪", Builtin: true},
	{ID: "mind", Name: "Mind", Icon: "🧠", Builtin: true},
	{ID: "work", Name: "Work", Icon: "💼", Builtin: true},
	{ID: "learning", Name: "Learning", Icon: "📚", Builtin: true},
	{ID: "social", Name: "Social", Icon: "👥", Builtin: true},
	{ID: "other", Name: "Other", Icon: "✨", Builtin: true},
}

// SeedCategories upserts the builtin category registry rows. Name and icon
// are refreshed for builtins; custom rows are left untouched.
func SeedCategories(db *gorm.DB) error {
	for _, c := range BuiltinCategories {
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "icon", "builtin"}),
		}).Create(&c)
		if result.Error != nil {
			return fmt.Errorf("db: seed category %q: %w", c.ID, result.Error)
		}
	}
	return nil
}
