// Package category manages the icon registry for task categories.
//
// The registry is append-only: builtin rows are seeded at migration and
// custom rows are added when a user picks a new emoji, but an existing id
// is never redefined. The scheduling core does not read categories; they
// exist purely for rendering.
package category

import (
	"fmt"

	"github.com/mgrier/stride/internal/models"
	"gorm.io/gorm"
)

// All returns every registry row, builtins first, then custom rows by id.
func All(db *gorm.DB) ([]models.Category, error) {
	var rows []models.Category
	if err := db.Order("builtin DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("category: list: %w", err)
	}
	return rows, nil
}

// Extend appends a custom category. Redefining an existing id is refused;
// callers that want the existing row should just use it.
func Extend(db *gorm.DB, id, name, icon string) (*models.Category, error) {
	if id == "" || name == "" {
		return nil, fmt.Errorf("category: id and name are required")
	}

	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("category: check %s: %w", id, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("category: %q already registered", id)
	}

	row := models.Category{ID: id, Name: name, Icon: icon}
	if err := db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("category: register %s: %w", id, err)
	}
	return &row, nil
}
