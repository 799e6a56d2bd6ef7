package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mgrier/stride/internal/db"
	"github.com/mgrier/stride/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testRouter builds a router over an in-memory SQLite database with one
// seeded user.
func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.SeedCategories(gdb); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	if err := gdb.Create(&models.User{ID: "user-aaaaa", Name: "Alice"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, gdb)
	return router, gdb
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	router, _ := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	router, _ := testRouter(t)

	// Create.
	w := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]any{
		"user":        "user-aaaaa",
		"title":       "Hydrate",
		"type":        "quantitative",
		"category":    "health",
		"date":        "2024-01-01",
		"dailyTarget": 8,
		"unit":        "glasses",
		"recurrence":  map[string]any{"type": "daily"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID  string `json:"id"`
		Due bool   `json:"due"`
	}
	decodeBody(t, w, &created)
	if created.ID == "" {
		t.Fatal("created task has no id")
	}
	if !created.Due {
		t.Error("daily task should be due on creation day")
	}

	// Record history.
	w = doJSON(t, router, http.MethodPost, "/api/tasks/"+created.ID+"/history", map[string]any{
		"date":  "2024-01-02",
		"value": 8,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d: %s", w.Code, w.Body.String())
	}

	// Stats as of the recorded day.
	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+created.ID+"/stats?date=2024-01-02", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d: %s", w.Code, w.Body.String())
	}
	var stats struct {
		Streak         int     `json:"streak"`
		Total          int     `json:"total"`
		CompletedToday bool    `json:"completedToday"`
		PeriodProgress float64 `json:"periodProgress"`
	}
	decodeBody(t, w, &stats)
	if stats.Streak != 1 || stats.Total != 1 || !stats.CompletedToday {
		t.Errorf("stats = %+v", stats)
	}

	// List.
	w = doJSON(t, router, http.MethodGet, "/api/tasks?user=user-aaaaa&date=2024-01-02", nil)
	var list struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	decodeBody(t, w, &list)
	if len(list.Tasks) != 1 {
		t.Errorf("list returned %d tasks, want 1", len(list.Tasks))
	}

	// Delete.
	w = doJSON(t, router, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestTaskCreate_BadRequest(t *testing.T) {
	router, _ := testRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]any{"title": "No user"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDueEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	mk := func(title string, rule map[string]any) {
		t.Helper()
		w := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]any{
			"user": "user-aaaaa", "title": title, "date": "2024-01-01", "recurrence": rule,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s: %s", title, w.Body.String())
		}
	}
	mk("daily", map[string]any{"type": "daily"})
	mk("mondays", map[string]any{"type": "weekly", "weekDays": []int{1}})

	// 2024-01-03 is a Wednesday.
	w := doJSON(t, router, http.MethodGet, "/api/due?user=user-aaaaa&date=2024-01-03", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("due status = %d", w.Code)
	}
	var due struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
	}
	decodeBody(t, w, &due)
	if len(due.Tasks) != 1 || due.Tasks[0].Title != "daily" {
		t.Errorf("due = %+v, want only the daily task", due.Tasks)
	}

	w = doJSON(t, router, http.MethodGet, "/api/due?date=2024-01-03", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("due without user = %d, want 400", w.Code)
	}
}

func TestTemplateAndAssignment(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/templates", map[string]any{
		"name":    "Starter",
		"creator": "user-aaaaa",
		"tasks": map[string]any{
			"version": "2.0",
			"phases": []map[string]any{
				{"id": "p1", "name": "Week one", "days": 7, "tasks": []map[string]any{
					{"type": "binary", "title": "Walk", "recurrence": map[string]any{"type": "daily", "endType": "never"}},
				}},
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("template create status = %d: %s", w.Code, w.Body.String())
	}
	var tpl struct {
		ID string `json:"ID"`
	}
	decodeBody(t, w, &tpl)
	if tpl.ID == "" {
		t.Fatalf("template has no id: %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"user": "user-aaaaa", "template": tpl.ID, "startDate": "2024-01-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("assign status = %d: %s", w.Code, w.Body.String())
	}
	var assigned struct {
		Assignment struct {
			ID string `json:"ID"`
		} `json:"assignment"`
		Tasks []struct {
			Title      string `json:"title"`
			PhaseEnd   string `json:"phaseEndDate"`
			Recurrence struct {
				EndType string `json:"endType"`
				EndDate string `json:"endDate"`
			} `json:"recurrence"`
		} `json:"tasks"`
	}
	decodeBody(t, w, &assigned)
	if len(assigned.Tasks) != 1 {
		t.Fatalf("assignment produced %d tasks, want 1", len(assigned.Tasks))
	}
	got := assigned.Tasks[0]
	if got.PhaseEnd != "2024-01-07" || got.Recurrence.EndDate != "2024-01-07" || got.Recurrence.EndType != "date" {
		t.Errorf("phase boundary not applied: %+v", got)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/assignments/"+assigned.Assignment.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unassign status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks?assignment=%s", assigned.Assignment.ID), nil)
	var list struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	decodeBody(t, w, &list)
	if len(list.Tasks) != 0 {
		t.Errorf("tasks remain after unassign: %d", len(list.Tasks))
	}
}

func TestTemplateCreate_MalformedTasks(t *testing.T) {
	router, _ := testRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/templates", map[string]any{
		"name":  "Broken",
		"tasks": map[string]any{"phases": "nope"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCategories(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/categories", nil)
	var list struct {
		Categories []struct {
			ID      string `json:"ID"`
			Builtin bool   `json:"Builtin"`
		} `json:"categories"`
	}
	decodeBody(t, w, &list)
	if len(list.Categories) == 0 {
		t.Fatal("no builtin categories after seeding")
	}

	w = doJSON(t, router, http.MethodPost, "/api/categories", map[string]any{
		"id": "yoga", "name": "Yoga", "icon": "🧘",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("category create status = %d: %s", w.Code, w.Body.String())
	}

	// Append-only: redefining an id is refused.
	w = doJSON(t, router, http.MethodPost, "/api/categories", map[string]any{
		"id": "yoga", "name": "Other", "icon": "🙃",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("redefinition status = %d, want 409", w.Code)
	}
}

func TestSSE_ConnectedEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// nil DB: the handler sends the connected event and returns.
	router.GET("/api/events", handleSSE(nil))

	w := doJSON(t, router, http.MethodGet, "/api/events", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sse status = %d", w.Code)
	}
	body := w.Body.String()
	if !bytes.Contains([]byte(body), []byte("event: connected")) {
		t.Errorf("sse body missing connected event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}
