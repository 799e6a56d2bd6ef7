package main

import (
	"fmt"
	"strings"

	"github.com/mgrier/stride/internal/habit"
)

var weekdayAbbrev = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// formatRule renders a recurrence rule as a short human-readable schedule.
func formatRule(r *habit.Rule) string {
	if r == nil {
		return "daily"
	}

	var s string
	switch r.Type {
	case habit.TypeOnce:
		s = "once"
	case habit.TypeDaily:
		s = "daily"
	case habit.TypeWeekly:
		if r.Mode == habit.ModePeriodCount {
			s = fmt.Sprintf("%dx/week", r.PeriodTarget)
		} else {
			s = "weekly on " + formatWeekDays(r.WeekDays)
		}
	case habit.TypeMonthly:
		if r.Mode == habit.ModePeriodCount {
			s = fmt.Sprintf("%dx/month", r.PeriodTarget)
		} else if r.MonthType == habit.MonthByDay {
			s = "monthly (same weekday)"
		} else {
			s = "monthly (same date)"
		}
	default:
		s = r.Type
	}

	if r.EndType == habit.EndDate && r.EndDate != "" {
		s += " until " + r.EndDate
	}
	return s
}

// formatWeekDays renders a 0-6 weekday list as abbreviated names.
func formatWeekDays(days []int) string {
	if len(days) == 0 {
		return "no days"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdayAbbrev) {
			names = append(names, weekdayAbbrev[d])
		}
	}
	return strings.Join(names, ",")
}

// formatCount renders a progress count, dropping the decimal point for
// whole numbers (3 -> "3", 2.5 -> "2.5").
func formatCount(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

func checkmark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
