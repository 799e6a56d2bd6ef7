// Package task provides habit task lifecycle operations.
package task

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/habit"
	"github.com/mgrier/stride/internal/models"
	"github.com/mgrier/stride/internal/progress"
	"github.com/mgrier/stride/internal/recurrence"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	UserID      string
	Title       string
	Kind        string // binary, quantitative, checklist
	Category    string
	StartDate   string // defaults to today
	Time        string
	DailyTarget float64
	Unit        string
	StepValue   float64
	Subtasks    []habit.Subtask
	Recurrence  *habit.Rule
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	UserID       string
	Category     string
	Kind         string
	AssignmentID string
}

// GenerateID creates a unique task ID in task-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("task: generate ID: %w", err)
	}
	return "task-" + hex.EncodeToString(b)[:5], nil
}

// Create creates a new task with an auto-generated ID.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("task: title is required")
	}
	if opts.UserID == "" {
		return nil, fmt.Errorf("task: user is required")
	}
	if opts.Kind == "" {
		opts.Kind = habit.KindBinary
	}
	if opts.StartDate == "" {
		opts.StartDate = dates.Today()
	}
	if opts.Recurrence != nil {
		if err := opts.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	subtasks, err := marshalJSON(opts.Subtasks)
	if err != nil {
		return nil, fmt.Errorf("task: marshal subtasks: %w", err)
	}
	rule, err := marshalJSON(opts.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("task: marshal recurrence: %w", err)
	}

	row := models.Task{
		ID:          id,
		UserID:      opts.UserID,
		Title:       opts.Title,
		Type:        opts.Kind,
		Category:    opts.Category,
		StartDate:   opts.StartDate,
		Time:        opts.Time,
		DailyTarget: opts.DailyTarget,
		Unit:        opts.Unit,
		StepValue:   opts.StepValue,
		Subtasks:    subtasks,
		Recurrence:  rule,
		History:     "{}",
	}

	if err := db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}
	return &row, nil
}

// Get retrieves a task by ID.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	var row models.Task
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %s", id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &row, nil
}

// List returns tasks matching the given filters, ordered by creation time.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})

	if filters.UserID != "" {
		q = q.Where("user_id = ?", filters.UserID)
	}
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.Kind != "" {
		q = q.Where("type = ?", filters.Kind)
	}
	if filters.AssignmentID != "" {
		q = q.Where("assignment_id = ?", filters.AssignmentID)
	}

	var rows []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return rows, nil
}

// Delete removes a task.
func Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("task: delete %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task: not found: %s", id)
	}
	return nil
}

// Decode converts a persisted row into the scheduling core's definition.
// Malformed recurrence or history payloads degrade to "always due" and an
// empty history instead of erroring, so legacy rows still render.
func Decode(row *models.Task) *habit.Definition {
	def := &habit.Definition{
		ID:          row.ID,
		Kind:        row.Type,
		Title:       row.Title,
		Category:    row.Category,
		StartDate:   row.StartDate,
		Time:        row.Time,
		DailyTarget: row.DailyTarget,
		Unit:        row.Unit,
		StepValue:   row.StepValue,
	}
	if isJSON(row.Subtasks) {
		json.Unmarshal([]byte(row.Subtasks), &def.Subtasks)
	}
	if isJSON(row.Recurrence) {
		var rule habit.Rule
		if err := json.Unmarshal([]byte(row.Recurrence), &rule); err == nil && rule.Validate() == nil {
			def.Recurrence = &rule
		}
	}
	def.History = map[string]habit.Value{}
	if isJSON(row.History) {
		json.Unmarshal([]byte(row.History), &def.History)
	}
	return def
}

// RecordHistory sets the history entry for one date and persists it.
func RecordHistory(db *gorm.DB, id, dateStr string, value habit.Value) (*models.Task, error) {
	if _, ok := dates.Parse(dateStr); !ok {
		return nil, fmt.Errorf("task: invalid date %q", dateStr)
	}

	row, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	// With dailyLimit set, one calendar day contributes at most one count
	// toward the period target.
	def := Decode(row)
	if def.Recurrence.IsPeriodCount() && def.Recurrence.DailyLimit && value.Count() > 1 {
		value = habit.NumValue(1)
	}

	history := map[string]habit.Value{}
	if isJSON(row.History) {
		json.Unmarshal([]byte(row.History), &history)
	}
	history[dateStr] = value

	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("task: marshal history for %s: %w", id, err)
	}
	if err := db.Model(&models.Task{}).Where("id = ?", id).Update("history", string(data)).Error; err != nil {
		return nil, fmt.Errorf("task: record history for %s: %w", id, err)
	}
	row.History = string(data)
	return row, nil
}

// DueOn returns the user's tasks that are due on dateStr.
func DueOn(db *gorm.DB, userID, dateStr string) ([]models.Task, error) {
	rows, err := List(db, ListFilters{UserID: userID})
	if err != nil {
		return nil, err
	}
	var due []models.Task
	for _, row := range rows {
		if recurrence.IsDue(Decode(&row), dateStr) {
			due = append(due, row)
		}
	}
	return due, nil
}

// TaskStats bundles the derived figures the API returns for one task.
type TaskStats struct {
	Streak         int     `json:"streak"`
	Total          int     `json:"total"`
	PeriodProgress float64 `json:"periodProgress"`
	PeriodTarget   int     `json:"periodTarget,omitempty"`
	CompletedToday bool    `json:"completedToday"`
}

// StatsFor computes streak, totals, and period progress for a task as of
// the given date.
func StatsFor(db *gorm.DB, id, today string) (*TaskStats, error) {
	row, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	def := Decode(row)
	s := progress.ComputeOn(def, today)
	ts := &TaskStats{
		Streak:         s.Streak,
		Total:          s.Total,
		PeriodProgress: progress.PeriodProgressOn(def, today),
		CompletedToday: progress.CompletedOn(def, today),
	}
	if def.Recurrence.IsPeriodCount() {
		ts.PeriodTarget = def.Recurrence.PeriodTarget
	}
	return ts, nil
}

// isJSON reports whether a stored payload holds a usable JSON document.
func isJSON(s string) bool {
	return s != "" && s != "null"
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

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("task: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("task: failed to generate unique ID after retries")
}
