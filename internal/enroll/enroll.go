// Package enroll assigns plan templates to users, expanding phases into
// concrete task rows.
package enroll

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/models"
	"github.com/mgrier/stride/internal/plan"
	"gorm.io/gorm"
)

// GenerateID creates a unique assignment ID in asg-xxxxx format.
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("enroll: generate ID: %w", err)
	}
	return "asg-" + hex.EncodeToString(b)[:5], nil
}

// GenerateTaskID creates a unique task ID for an instantiated blueprint.
func GenerateTaskID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("enroll: generate task ID: %w", err)
	}
	return "task-" + hex.EncodeToString(b)[:5], nil
}

// Assign enrolls a user in a template from startDate: the template's phases
// are expanded into task rows, all persisted in one transaction with the
// assignment. A template with no phases still produces an assignment, just
// with zero tasks.
func Assign(db *gorm.DB, userID, templateID, startDate string) (*models.Assignment, error) {
	if _, ok := dates.Parse(startDate); !ok {
		return nil, fmt.Errorf("enroll: invalid start date %q", startDate)
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enroll: user not found: %s", userID)
		}
		return nil, fmt.Errorf("enroll: check user %s: %w", userID, err)
	}

	var tpl models.Template
	if err := db.Where("id = ?", templateID).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enroll: template not found: %s", templateID)
		}
		return nil, fmt.Errorf("enroll: load template %s: %w", templateID, err)
	}

	phases, err := plan.Normalize(json.RawMessage(tpl.Tasks))
	if err != nil {
		return nil, err
	}
	instances := plan.Expand(phases, startDate)

	asgID, err := GenerateID()
	if err != nil {
		return nil, err
	}
	assignment := models.Assignment{
		ID:         asgID,
		UserID:     userID,
		TemplateID: templateID,
		StartDate:  startDate,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("enroll: create assignment: %w", err)
		}
		for _, inst := range instances {
			row, err := instanceRow(tx, inst, userID, asgID)
			if err != nil {
				return err
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("enroll: create task %q: %w", inst.Title, err)
			}
			assignment.Tasks = append(assignment.Tasks, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List returns assignments, optionally filtered by user, with their
// templates and instantiated tasks preloaded.
func List(db *gorm.DB, userID string) ([]models.Assignment, error) {
	q := db.Preload("Template").Preload("Tasks").Order("created_at ASC, id ASC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var rows []models.Assignment
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("enroll: list assignments: %w", err)
	}
	return rows, nil
}

// Unassign deletes an assignment and every task instantiated from it.
func Unassign(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("enroll: delete tasks of %s: %w", id, err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Assignment{})
		if result.Error != nil {
			return fmt.Errorf("enroll: delete %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("enroll: assignment not found: %s", id)
		}
		return nil
	})
}

// generateUniqueTaskID generates an instance task ID and retries once on
// collision with an existing row.
func generateUniqueTaskID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateTaskID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("enroll: check task ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("enroll: failed to generate unique task ID after retries")
}

// instanceRow converts one expanded instance into a task row.
func instanceRow(db *gorm.DB, inst plan.Instance, userID, assignmentID string) (*models.Task, error) {
	id, err := generateUniqueTaskID(db)
	if err != nil {
		return nil, err
	}

	subtasks, err := marshalJSON(inst.Subtasks)
	if err != nil {
		return nil, fmt.Errorf("enroll: marshal subtasks: %w", err)
	}
	rule, err := marshalJSON(inst.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("enroll: marshal recurrence: %w", err)
	}

	return &models.Task{
		ID:           id,
		UserID:       userID,
		Title:        inst.Title,
		Type:         inst.Kind,
		Category:     inst.Category,
		StartDate:    inst.StartDate,
		Time:         inst.Time,
		DailyTarget:  inst.DailyTarget,
		Unit:         inst.Unit,
		StepValue:    inst.StepValue,
		Subtasks:     subtasks,
		Recurrence:   rule,
		History:      "{}",
		AssignmentID: &assignmentID,
		PhaseID:      inst.PhaseID,
		PhaseName:    inst.PhaseName,
		PhaseOrder:   inst.PhaseOrder,
		PhaseDays:    inst.PhaseDays,
		PhaseStart:   inst.PhaseStart,
		PhaseEnd:     inst.PhaseEnd,
	}, nil
}

// marshalJSON marshals a value to a JSON string, returning empty string for nil.
func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
