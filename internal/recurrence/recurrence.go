// Package recurrence decides whether a task is due on a given calendar day.
package recurrence

import (
	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/habit"
)

// IsDue reports whether the task is due on dateStr.
//
// Period-count tasks are never due on a specific day; they are tracked as
// cumulative progress against a weekly or monthly target instead. A task
// without a recurrence rule is due every day, which keeps legacy rows that
// predate recurrence rendering instead of disappearing.
func IsDue(def *habit.Definition, dateStr string) bool {
	rule := def.Recurrence
	if rule == nil {
		return true
	}
	if rule.IsPeriodCount() {
		return false
	}
	if rule.EndType == habit.EndDate && dateStr > rule.EndDate {
		return false
	}

	switch rule.Type {
	case habit.TypeOnce:
		return dateStr == def.StartDate
	case habit.TypeDaily:
		return true
	case habit.TypeWeekly:
		return dueOnWeekday(rule.WeekDays, dateStr)
	case habit.TypeMonthly:
		if rule.MonthType == habit.MonthByDay {
			return sameNthWeekday(def.StartDate, dateStr)
		}
		return dates.DayOfMonth(dateStr) == dates.DayOfMonth(def.StartDate)
	}
	return true
}

func dueOnWeekday(weekDays []int, dateStr string) bool {
	wd := dates.Weekday(dateStr)
	for _, d := range weekDays {
		if d == wd {
			return true
		}
	}
	return false
}

// sameNthWeekday matches "first Friday"-style rules by comparing the raw
// week number (ceil(day/7)) and weekday of both dates. A month with a fifth
// occurrence never matches an anchor whose month only had four; that
// asymmetry is intentional and matched to the recorded behavior.
func sameNthWeekday(startDate, dateStr string) bool {
	sw, swd, _ := dates.NthWeekdayInfo(startDate)
	dw, dwd, _ := dates.NthWeekdayInfo(dateStr)
	return sw == dw && swd == dwd
}
