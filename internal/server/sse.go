package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mgrier/stride/internal/models"
	"gorm.io/gorm"
)

// taskUpdateEvent holds data for a task-update SSE event.
type taskUpdateEvent struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updatedAt"`
}

// handleSSE streams task updates by polling for rows touched since the
// client connected, so open clients can refresh a day view when history is
// recorded elsewhere.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		// Send connected event.
		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// If no DB, just send connected and return — tests use nil DB.
		if db == nil {
			return
		}

		user := c.Query("user")
		lastSeen := time.Now()

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				q := db.Where("updated_at > ?", lastSeen)
				if user != "" {
					q = q.Where("user_id = ?", user)
				}
				var updated []models.Task
				q.Order("updated_at ASC").Find(&updated)

				if len(updated) == 0 {
					continue
				}
				lastSeen = updated[len(updated)-1].UpdatedAt

				for _, row := range updated {
					writeSSE(c.Writer, "task", taskUpdateEvent{
						ID:        row.ID,
						UserID:    row.UserID,
						Title:     row.Title,
						UpdatedAt: row.UpdatedAt.UTC().Format(time.RFC3339),
					})
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
