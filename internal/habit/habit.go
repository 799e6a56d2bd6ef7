// Package habit defines the task definition and recurrence rule types shared
// by the scheduling core. Shapes mirror the persisted JSON exactly.
package habit

import (
	"encoding/json"
	"fmt"
)

// Task kinds.
const (
	KindBinary       = "binary"
	KindQuantitative = "quantitative"
	KindChecklist    = "checklist"
)

// Recurrence types.
const (
	TypeOnce    = "once"
	TypeDaily   = "daily"
	TypeWeekly  = "weekly"
	TypeMonthly = "monthly"
)

// Recurrence modes.
const (
	ModeSpecificDays = "specificDays"
	ModePeriodCount  = "periodCount"
)

// Monthly pattern selectors.
const (
	MonthByDate = "date" // same day-of-month as the start date
	MonthByDay  = "day"  // same nth-weekday-of-month as the start date
)

// Recurrence end conditions.
const (
	EndNever = "never"
	EndDate  = "date"
)

// Rule describes when a task is due. Optional fields are only meaningful for
// certain type/mode combinations; Validate enforces the cross-field
// invariants once at decode time so evaluators don't defend per call.
type Rule struct {
	Type         string `json:"type"`
	Mode         string `json:"mode,omitempty"`
	WeekDays     []int  `json:"weekDays,omitempty"`
	MonthType    string `json:"monthType,omitempty"`
	PeriodTarget int    `json:"periodTarget,omitempty"`
	DailyLimit   bool   `json:"dailyLimit,omitempty"`
	EndType      string `json:"endType,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

// Validate checks the rule's cross-field invariants.
func (r *Rule) Validate() error {
	switch r.Type {
	case TypeOnce, TypeDaily, TypeWeekly, TypeMonthly:
	default:
		return fmt.Errorf("habit: unknown recurrence type %q", r.Type)
	}
	if r.Mode == ModePeriodCount && r.Type != TypeWeekly && r.Type != TypeMonthly {
		return fmt.Errorf("habit: periodCount mode requires weekly or monthly type, got %q", r.Type)
	}
	for _, d := range r.WeekDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("habit: weekday index %d out of range", d)
		}
	}
	if r.EndType == EndDate && r.EndDate == "" {
		return fmt.Errorf("habit: endType=date requires endDate")
	}
	return nil
}

// IsPeriodCount reports whether the rule tracks a rolling period target
// instead of fixed calendar days.
func (r *Rule) IsPeriodCount() bool {
	return r != nil && r.Mode == ModePeriodCount
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	cp := *r
	if r.WeekDays != nil {
		cp.WeekDays = append([]int(nil), r.WeekDays...)
	}
	return &cp
}

// Value is one history cell. The persisted JSON stores either a bool (binary
// and checklist completion) or a number (quantitative progress, period
// counts); Value keeps both readings so consumers can coerce either way.
type Value struct {
	Num     float64
	Numeric bool
}

// BoolValue returns a Value recording a completion flag.
func BoolValue(done bool) Value {
	if done {
		return Value{Num: 1}
	}
	return Value{}
}

// NumValue returns a Value recording a numeric amount.
func NumValue(n float64) Value {
	return Value{Num: n, Numeric: true}
}

// Truthy reports whether the entry counts as activity: any true bool, or any
// non-zero number.
func (v Value) Truthy() bool {
	return v.Num != 0
}

// Count returns the entry's contribution toward a period target: a stored
// true counts as 1, a numeric value counts as itself.
func (v Value) Count() float64 {
	if v.Numeric {
		return v.Num
	}
	if v.Num != 0 {
		return 1
	}
	return 0
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumValue(n)
		return nil
	}
	return fmt.Errorf("habit: history value %s is neither bool nor number", data)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Num != 0)
}

// Subtask is one checklist item.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Definition is a task as the scheduling core sees it: the static fields a
// caller loads from persistence plus the sparse per-date history.
type Definition struct {
	ID          string           `json:"id,omitempty"`
	Kind        string           `json:"type"`
	Title       string           `json:"title,omitempty"`
	Category    string           `json:"category,omitempty"`
	StartDate   string           `json:"date"`
	Time        string           `json:"time,omitempty"`
	DailyTarget float64          `json:"dailyTarget,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	StepValue   float64          `json:"stepValue,omitempty"`
	Subtasks    []Subtask        `json:"subtasks,omitempty"`
	Recurrence  *Rule            `json:"recurrence,omitempty"`
	History     map[string]Value `json:"history,omitempty"`
}

// ParseDefinition decodes and validates a persisted task definition. A
// missing recurrence is legal (legacy rows) and left nil; evaluators treat
// it as "due every day".
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("habit: parse definition: %w", err)
	}
	if def.Recurrence != nil {
		if err := def.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}
	return &def, nil
}

// HistoryValue looks up the history entry for dateStr.
func (d *Definition) HistoryValue(dateStr string) (Value, bool) {
	v, ok := d.History[dateStr]
	return v, ok
}
