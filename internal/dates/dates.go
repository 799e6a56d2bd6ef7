// Package dates provides calendar-day arithmetic over ISO YYYY-MM-DD
// date-strings. No timezone conversion is performed; all functions work on
// local calendar days only.
package dates

import "time"

// Layout is the wire format for all date-strings in Stride.
const Layout = "2006-01-02"

// Today returns today's date-string.
func Today() string {
	return time.Now().Format(Layout)
}

// Parse converts a date-string to a time.Time at local midnight. The second
// return value is false for unparseable input; callers degrade to zeroed
// results rather than erroring, since form state upstream may be empty.
func Parse(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays returns the date-string n calendar days after dateStr (n may be
// negative). Returns "" for unparseable input.
func AddDays(dateStr string, n int) string {
	t, ok := Parse(dateStr)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, n).Format(Layout)
}

// Weekday returns the weekday index (0=Sunday..6=Saturday) of dateStr, or 0
// for unparseable input.
func Weekday(dateStr string) int {
	t, ok := Parse(dateStr)
	if !ok {
		return 0
	}
	return int(t.Weekday())
}

// DayOfMonth returns the day-of-month of dateStr, or 0 for unparseable input.
func DayOfMonth(dateStr string) int {
	t, ok := Parse(dateStr)
	if !ok {
		return 0
	}
	return t.Day()
}

// DaysInMonth returns the number of days in the given month. The month is
// 0-indexed (0=January); out-of-range months roll over into the adjacent
// year, matching native date normalization (-1 is December of year-1).
func DaysInMonth(year, month int) int {
	// Day 0 of the following month is the last day of the target month.
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.Local).Day()
}

// FirstWeekdayOfMonth returns the weekday index (0=Sunday) of the 1st of the
// given month. The month is 0-indexed and rolls over like DaysInMonth.
func FirstWeekdayOfMonth(year, month int) int {
	return int(time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local).Weekday())
}

// WeekRange returns the Sunday..Saturday span of the week containing
// dateStr. Returns empty strings for unparseable input.
func WeekRange(dateStr string) (start, end string) {
	t, ok := Parse(dateStr)
	if !ok {
		return "", ""
	}
	sunday := t.AddDate(0, 0, -int(t.Weekday()))
	return sunday.Format(Layout), sunday.AddDate(0, 0, 6).Format(Layout)
}

// MonthRange returns the 1st..last-day span of the month containing dateStr.
// Returns empty strings for unparseable input.
func MonthRange(dateStr string) (start, end string) {
	t, ok := Parse(dateStr)
	if !ok {
		return "", ""
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	return first.Format(Layout), last.Format(Layout)
}

// NthWeekdayInfo describes where dateStr falls within its month: weekNum is
// ceil(dayOfMonth/7), weekday is the 0=Sunday index, and isLast reports
// whether this is the final occurrence of that weekday in the month (adding
// 7 days crosses into the next month). All zero values for unparseable input.
func NthWeekdayInfo(dateStr string) (weekNum, weekday int, isLast bool) {
	t, ok := Parse(dateStr)
	if !ok {
		return 0, 0, false
	}
	day := t.Day()
	weekNum = (day-1)/7 + 1
	weekday = int(t.Weekday())
	isLast = day+7 > DaysInMonth(t.Year(), int(t.Month())-1)
	return weekNum, weekday, isLast
}
