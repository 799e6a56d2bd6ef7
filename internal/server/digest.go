package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/models"
	"github.com/mgrier/stride/internal/progress"
	"github.com/mgrier/stride/internal/task"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// runDigest periodically writes per-user Snapshot rows of today's due and
// completed task counts, on the given cron schedule. It exits when ctx is
// cancelled or the expression doesn't parse.
func runDigest(ctx context.Context, db *gorm.DB, expr string, out io.Writer) {
	for {
		d := nextCronDuration(expr)
		if d == 0 {
			if out != nil {
				fmt.Fprintf(out, "digest: bad cron expression %q, job disabled\n", expr)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
		if err := WriteSnapshots(db, dates.Today()); err != nil && out != nil {
			fmt.Fprintf(out, "digest: %v\n", err)
		}
	}
}

// WriteSnapshots upserts one Snapshot row per user for the given date.
func WriteSnapshots(db *gorm.DB, dateStr string) error {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return fmt.Errorf("server: list users for digest: %w", err)
	}

	for _, u := range users {
		due, err := task.DueOn(db, u.ID, dateStr)
		if err != nil {
			return err
		}
		done := 0
		for i := range due {
			if progress.CompletedOn(task.Decode(&due[i]), dateStr) {
				done++
			}
		}

		snap := models.Snapshot{
			Date:      dateStr,
			UserID:    u.ID,
			DueCount:  len(due),
			DoneCount: done,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"due_count", "done_count"}),
		}).Create(&snap)
		if result.Error != nil {
			return fmt.Errorf("server: snapshot for %s/%s: %w", u.ID, dateStr, result.Error)
		}
	}
	return nil
}
