package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mgrier/stride/internal/models"
	"github.com/mgrier/stride/internal/plan"
	"gorm.io/gorm"
)

type templateCreateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Creator     string          `json:"creator"`
	Tasks       json.RawMessage `json:"tasks"`
}

// templateCreate validates the tasks payload and persists the template. The
// payload is normalized once here so a malformed template is rejected at
// authoring time, not at enrollment.
func templateCreate(db *gorm.DB, req templateCreateRequest) (*models.Template, error) {
	if _, err := plan.Normalize(req.Tasks); err != nil {
		return nil, err
	}

	id, err := generateTemplateID()
	if err != nil {
		return nil, err
	}
	tpl := models.Template{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   req.Creator,
		Tasks:       string(req.Tasks),
	}
	if err := db.Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("server: create template: %w", err)
	}
	return &tpl, nil
}

// templateList returns templates, optionally filtered by creator.
func templateList(db *gorm.DB, creator string) ([]models.Template, error) {
	q := db.Model(&models.Template{})
	if creator != "" {
		q = q.Where("creator_id = ?", creator)
	}
	var tpls []models.Template
	if err := q.Order("created_at ASC, id ASC").Find(&tpls).Error; err != nil {
		return nil, fmt.Errorf("server: list templates: %w", err)
	}
	return tpls, nil
}

// generateTemplateID creates a unique template ID in tpl-xxxxx format.
func generateTemplateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("server: generate template ID: %w", err)
	}
	return "tpl-" + hex.EncodeToString(b)[:5], nil
}
