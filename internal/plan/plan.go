// Package plan expands multi-phase templates into concrete task instances.
//
// A template's tasks payload comes in two shapes: a legacy flat array of
// task blueprints, and the versioned {version: "2.0", phases: [...]}
// structure. Normalize canonicalizes both to a phase list so the expander
// only deals with one shape.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/habit"
)

// Version is the versioned template payload marker.
const Version = "2.0"

// DefaultPhaseDays is used when a phase omits its duration.
const DefaultPhaseDays = 7

// Phase is one ordered, day-bounded segment of a template. Tasks are
// blueprints: definitions without a concrete start date.
type Phase struct {
	ID    string             `json:"id,omitempty"`
	Name  string             `json:"name,omitempty"`
	Days  int                `json:"days,omitempty"`
	Tasks []habit.Definition `json:"tasks"`
}

// Instance is a blueprint bound to concrete dates after expansion. The
// phase metadata is carried so callers can group instances for display.
type Instance struct {
	habit.Definition
	PhaseID    string `json:"phaseId,omitempty"`
	PhaseName  string `json:"phaseName,omitempty"`
	PhaseOrder int    `json:"phaseOrder"`
	PhaseDays  int    `json:"phaseDays"`
	PhaseStart string `json:"phaseStartDate"`
	PhaseEnd   string `json:"phaseEndDate"`
}

type versionedPayload struct {
	Version string  `json:"version"`
	Phases  []Phase `json:"phases"`
}

// Normalize parses a raw template tasks payload into a canonical phase
// list. A legacy flat array becomes one implicit phase; missing phase
// durations default to DefaultPhaseDays. An empty or null payload yields an
// empty phase list, not an error.
func Normalize(raw json.RawMessage) ([]Phase, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var v versionedPayload
	if err := json.Unmarshal(raw, &v); err == nil && v.Version != "" {
		return applyDefaults(v.Phases), nil
	}

	var flat []habit.Definition
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("plan: template tasks payload is neither a task array nor a versioned phase list: %w", err)
	}
	if len(flat) == 0 {
		return nil, nil
	}
	return applyDefaults([]Phase{{Tasks: flat}}), nil
}

func applyDefaults(phases []Phase) []Phase {
	for i := range phases {
		if phases[i].Days < 1 {
			phases[i].Days = DefaultPhaseDays
		}
	}
	return phases
}

// Expand instantiates every blueprint in every phase against an enrollment
// start date. Phase i+1 starts exactly phases[i].Days days after phase i;
// each instance's start date is its phase's start date, and its recurrence
// is overridden to end at the phase boundary — the phase duration wins even
// over a blueprint rule that said "never end".
//
// Expansion is deterministic: identical inputs produce identical output.
func Expand(phases []Phase, enrollmentStart string) []Instance {
	var out []Instance
	cumulativeDays := 0
	for order, phase := range phases {
		days := phase.Days
		if days < 1 {
			days = DefaultPhaseDays
		}
		phaseStart := dates.AddDays(enrollmentStart, cumulativeDays)
		phaseEnd := dates.AddDays(phaseStart, days-1)

		for _, blueprint := range phase.Tasks {
			def := blueprint
			def.StartDate = phaseStart
			def.Recurrence = overrideEnd(blueprint.Recurrence, phaseEnd)
			def.History = nil

			out = append(out, Instance{
				Definition: def,
				PhaseID:    phase.ID,
				PhaseName:  phase.Name,
				PhaseOrder: order,
				PhaseDays:  days,
				PhaseStart: phaseStart,
				PhaseEnd:   phaseEnd,
			})
		}
		cumulativeDays += days
	}
	return out
}

// overrideEnd copies a blueprint rule with the end pinned to the phase
// boundary. A blueprint without a rule gets a daily rule so the instance
// still renders as due every day until the phase ends.
func overrideEnd(rule *habit.Rule, endDate string) *habit.Rule {
	cp := rule.Clone()
	if cp == nil {
		cp = &habit.Rule{Type: habit.TypeDaily}
	}
	cp.EndType = habit.EndDate
	cp.EndDate = endDate
	return cp
}
