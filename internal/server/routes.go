package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mgrier/stride/internal/category"
	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/enroll"
	"github.com/mgrier/stride/internal/habit"
	"github.com/mgrier/stride/internal/models"
	"github.com/mgrier/stride/internal/recurrence"
	"github.com/mgrier/stride/internal/task"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	api := router.Group("/api")

	api.GET("/health", handleHealth())

	api.GET("/tasks", handleTaskList(db))
	api.POST("/tasks", handleTaskCreate(db))
	api.GET("/tasks/:id", handleTaskGet(db))
	api.DELETE("/tasks/:id", handleTaskDelete(db))
	api.POST("/tasks/:id/history", handleHistoryRecord(db))
	api.GET("/tasks/:id/stats", handleTaskStats(db))

	api.GET("/due", handleDue(db))

	api.GET("/templates", handleTemplateList(db))
	api.POST("/templates", handleTemplateCreate(db))

	api.POST("/assignments", handleAssign(db))
	api.DELETE("/assignments/:id", handleUnassign(db))

	api.GET("/categories", handleCategoryList(db))
	api.POST("/categories", handleCategoryCreate(db))

	api.GET("/events", handleSSE(db))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// taskView is the wire shape for one task: the scheduling definition plus
// row metadata and the due flag for the requested date.
type taskView struct {
	*habit.Definition
	UserID       string `json:"userId"`
	AssignmentID string `json:"assignmentId,omitempty"`
	PhaseID      string `json:"phaseId,omitempty"`
	PhaseName    string `json:"phaseName,omitempty"`
	PhaseOrder   int    `json:"phaseOrder,omitempty"`
	PhaseDays    int    `json:"phaseDays,omitempty"`
	PhaseStart   string `json:"phaseStartDate,omitempty"`
	PhaseEnd     string `json:"phaseEndDate,omitempty"`
	Due          bool   `json:"due"`
}

func viewOf(row *models.Task, dateStr string) taskView {
	def := task.Decode(row)
	v := taskView{
		Definition: def,
		UserID:     row.UserID,
		PhaseID:    row.PhaseID,
		PhaseName:  row.PhaseName,
		PhaseOrder: row.PhaseOrder,
		PhaseDays:  row.PhaseDays,
		PhaseStart: row.PhaseStart,
		PhaseEnd:   row.PhaseEnd,
		Due:        recurrence.IsDue(def, dateStr),
	}
	if row.AssignmentID != nil {
		v.AssignmentID = *row.AssignmentID
	}
	return v
}

// dateParam returns the date query parameter, defaulting to today.
func dateParam(c *gin.Context) string {
	if d := c.Query("date"); d != "" {
		return d
	}
	return dates.Today()
}

func handleTaskList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := task.List(db, task.ListFilters{
			UserID:       c.Query("user"),
			Category:     c.Query("category"),
			Kind:         c.Query("type"),
			AssignmentID: c.Query("assignment"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		date := dateParam(c)
		views := make([]taskView, len(rows))
		for i := range rows {
			views[i] = viewOf(&rows[i], date)
		}
		c.JSON(http.StatusOK, gin.H{"tasks": views, "date": date})
	}
}

type taskCreateRequest struct {
	User        string          `json:"user" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Kind        string          `json:"type"`
	Category    string          `json:"category"`
	StartDate   string          `json:"date"`
	Time        string          `json:"time"`
	DailyTarget float64         `json:"dailyTarget"`
	Unit        string          `json:"unit"`
	StepValue   float64         `json:"stepValue"`
	Subtasks    []habit.Subtask `json:"subtasks"`
	Recurrence  *habit.Rule     `json:"recurrence"`
}

func handleTaskCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		row, err := task.Create(db, task.CreateOpts{
			UserID:      req.User,
			Title:       req.Title,
			Kind:        req.Kind,
			Category:    req.Category,
			StartDate:   req.StartDate,
			Time:        req.Time,
			DailyTarget: req.DailyTarget,
			Unit:        req.Unit,
			StepValue:   req.StepValue,
			Subtasks:    req.Subtasks,
			Recurrence:  req.Recurrence,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, viewOf(row, dates.Today()))
	}
}

func handleTaskGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := task.Get(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, viewOf(row, dateParam(c)))
	}
}

func handleTaskDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := task.Delete(db, c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type historyRequest struct {
	Date  string      `json:"date" binding:"required"`
	Value habit.Value `json:"value"`
}

func handleHistoryRecord(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req historyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		row, err := task.RecordHistory(db, c.Param("id"), req.Date, req.Value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, viewOf(row, req.Date))
	}
}

func handleTaskStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := task.StatsFor(db, c.Param("id"), dateParam(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func handleDue(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.Query("user")
		if user == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
			return
		}
		date := dateParam(c)
		rows, err := task.DueOn(db, user, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]taskView, len(rows))
		for i := range rows {
			views[i] = viewOf(&rows[i], date)
		}
		c.JSON(http.StatusOK, gin.H{"tasks": views, "date": date})
	}
}

func handleTemplateList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpls, err := templateList(db, c.Query("creator"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": tpls})
	}
}

func handleTemplateCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req templateCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tpl, err := templateCreate(db, req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, tpl)
	}
}

type assignRequest struct {
	User      string `json:"user" binding:"required"`
	Template  string `json:"template" binding:"required"`
	StartDate string `json:"startDate"`
}

func handleAssign(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.StartDate == "" {
			req.StartDate = dates.Today()
		}
		asg, err := enroll.Assign(db, req.User, req.Template, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows, err := task.List(db, task.ListFilters{AssignmentID: asg.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]taskView, len(rows))
		for i := range rows {
			views[i] = viewOf(&rows[i], req.StartDate)
		}
		c.JSON(http.StatusCreated, gin.H{"assignment": asg, "tasks": views})
	}
}

func handleUnassign(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := enroll.Unassign(db, c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleCategoryList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := category.All(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": rows})
	}
}

type categoryCreateRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

func handleCategoryCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		row, err := category.Extend(db, req.ID, req.Name, req.Icon)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, row)
	}
}
