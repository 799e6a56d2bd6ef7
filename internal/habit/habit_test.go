package habit

import (
	"encoding/json"
	"testing"
)

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"daily", Rule{Type: TypeDaily}, false},
		{"once", Rule{Type: TypeOnce}, false},
		{"weekly specific days", Rule{Type: TypeWeekly, Mode: ModeSpecificDays, WeekDays: []int{1, 3, 5}}, false},
		{"weekly period count", Rule{Type: TypeWeekly, Mode: ModePeriodCount, PeriodTarget: 3}, false},
		{"monthly period count", Rule{Type: TypeMonthly, Mode: ModePeriodCount, PeriodTarget: 5}, false},
		{"unknown type", Rule{Type: "fortnightly"}, true},
		{"period count on daily", Rule{Type: TypeDaily, Mode: ModePeriodCount}, true},
		{"period count on once", Rule{Type: TypeOnce, Mode: ModePeriodCount}, true},
		{"weekday out of range", Rule{Type: TypeWeekly, WeekDays: []int{7}}, true},
		{"negative weekday", Rule{Type: TypeWeekly, WeekDays: []int{-1}}, true},
		{"end date without date", Rule{Type: TypeDaily, EndType: EndDate}, true},
		{"end date with date", Rule{Type: TypeDaily, EndType: EndDate, EndDate: "2024-06-01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRule_Clone(t *testing.T) {
	orig := &Rule{Type: TypeWeekly, WeekDays: []int{1, 2}}
	cp := orig.Clone()
	cp.WeekDays[0] = 6
	cp.EndType = EndDate
	if orig.WeekDays[0] != 1 || orig.EndType != "" {
		t.Errorf("Clone shares state with original: %+v", orig)
	}
	var nilRule *Rule
	if nilRule.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw     string
		truthy  bool
		count   float64
		numeric bool
	}{
		{"true", true, 1, false},
		{"false", false, 0, false},
		{"0", false, 0, true},
		{"2", true, 2, true},
		{"1.5", true, 1.5, true},
	}
	for _, tt := range tests {
		var v Value
		if err := json.Unmarshal([]byte(tt.raw), &v); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.raw, err)
		}
		if v.Truthy() != tt.truthy {
			t.Errorf("Value(%s).Truthy() = %v, want %v", tt.raw, v.Truthy(), tt.truthy)
		}
		if v.Count() != tt.count {
			t.Errorf("Value(%s).Count() = %v, want %v", tt.raw, v.Count(), tt.count)
		}
		if v.Numeric != tt.numeric {
			t.Errorf("Value(%s).Numeric = %v, want %v", tt.raw, v.Numeric, tt.numeric)
		}
	}
}

func TestValue_UnmarshalJSON_Invalid(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`"yes"`), &v); err == nil {
		t.Error("expected an error for a string history value")
	}
}

func TestValue_RoundTrip(t *testing.T) {
	for _, raw := range []string{"true", "false", "2", "1.5"} {
		var v Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %q: %v", raw, err)
		}
		if string(out) != raw {
			t.Errorf("round trip %q -> %q", raw, out)
		}
	}
}

func TestParseDefinition(t *testing.T) {
	data := []byte(`{
		"id": "task-abc12",
		"type": "quantitative",
		"title": "Hydrate",
		"date": "2024-01-01",
		"dailyTarget": 8,
		"unit": "glasses",
		"stepValue": 1,
		"recurrence": {"type": "daily", "endType": "never"},
		"history": {"2024-01-01": 8, "2024-01-02": true}
	}`)
	def, err := ParseDefinition(data)
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.Kind != KindQuantitative || def.DailyTarget != 8 {
		t.Errorf("definition = %+v", def)
	}
	if v, ok := def.HistoryValue("2024-01-01"); !ok || v.Num != 8 || !v.Numeric {
		t.Errorf("history[2024-01-01] = %+v, ok=%v", v, ok)
	}
	if v, ok := def.HistoryValue("2024-01-02"); !ok || !v.Truthy() || v.Numeric {
		t.Errorf("history[2024-01-02] = %+v, ok=%v", v, ok)
	}
}

func TestParseDefinition_InvalidRule(t *testing.T) {
	data := []byte(`{"type": "binary", "date": "2024-01-01",
		"recurrence": {"type": "daily", "mode": "periodCount"}}`)
	if _, err := ParseDefinition(data); err == nil {
		t.Error("expected validation error for periodCount on daily")
	}
}

func TestParseDefinition_MissingRecurrence(t *testing.T) {
	def, err := ParseDefinition([]byte(`{"type": "binary", "date": "2024-01-01"}`))
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.Recurrence != nil {
		t.Error("missing recurrence should stay nil")
	}
}
