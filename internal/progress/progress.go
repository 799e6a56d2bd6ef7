// Package progress derives completion, period progress, and streak figures
// from a task's sparse per-date history.
package progress

import (
	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/habit"
)

// CompletedOn reports whether the task counts as completed on dateStr. For
// quantitative tasks the recorded value must reach the daily target; for
// everything else any truthy entry counts.
func CompletedOn(def *habit.Definition, dateStr string) bool {
	v, ok := def.HistoryValue(dateStr)
	if !ok {
		return false
	}
	if def.Kind == habit.KindQuantitative {
		return v.Num >= def.DailyTarget
	}
	return v.Truthy()
}

// PeriodProgress sums history activity within the current period, compared
// by callers against the rule's period target. The period is the week
// containing today, or the month for monthly rules.
func PeriodProgress(def *habit.Definition) float64 {
	return PeriodProgressOn(def, dates.Today())
}

// PeriodProgressOn is PeriodProgress with an explicit "today".
func PeriodProgressOn(def *habit.Definition, today string) float64 {
	start, end := dates.WeekRange(today)
	if def.Recurrence != nil && def.Recurrence.Type == habit.TypeMonthly {
		start, end = dates.MonthRange(today)
	}
	if start == "" {
		return 0
	}

	var sum float64
	for date, v := range def.History {
		if date < start || date > end {
			continue
		}
		if !v.Truthy() {
			continue
		}
		sum += v.Count()
	}
	return sum
}

// Stats holds derived completion statistics for a task.
type Stats struct {
	Streak int `json:"streak"`
	Total  int `json:"total"`
}

// Compute returns the task's current streak and total completion count.
func Compute(def *habit.Definition) Stats {
	return ComputeOn(def, dates.Today())
}

// ComputeOn is Compute with an explicit "today".
//
// Total counts every date with a truthy history entry. The streak walks
// backward one day at a time from its anchor while each day is complete.
// The anchor is today if today is complete, otherwise yesterday — a day
// still in progress must not zero an otherwise unbroken streak.
func ComputeOn(def *habit.Definition, today string) Stats {
	var s Stats
	for _, v := range def.History {
		if v.Truthy() {
			s.Total++
		}
	}

	anchor := today
	if !CompletedOn(def, anchor) {
		anchor = dates.AddDays(today, -1)
		if !CompletedOn(def, anchor) {
			return s
		}
	}
	for CompletedOn(def, anchor) {
		s.Streak++
		anchor = dates.AddDays(anchor, -1)
	}
	return s
}
