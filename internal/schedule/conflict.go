package schedule

import "planner/internal/model"

// Conflicts splits overlapping events by how they may be resolved.
type Conflicts struct {
	// Hard holds sessions and appointments. They are never moved
	// automatically.
	Hard []model.CalendarEvent `json:"hard"`
	// Soft holds callbacks, which auto-reschedule may move.
	Soft []model.CalendarEvent `json:"soft"`
	// Unchecked lists sources that could not be listed; overlaps with their
	// records are unknown.
	Unchecked   []model.SourceType `json:"unchecked,omitempty"`
	FetchErrors error              `json:"-"`
}

// Empty reports whether no overlap was found. It says nothing about
// unchecked sources.
func (c Conflicts) Empty() bool {
	return len(c.Hard) == 0 && len(c.Soft) == 0
}

// Partial reports whether some source was not checked.
func (c Conflicts) Partial() bool {
	return len(c.Unchecked) > 0
}

// HardUnchecked reports whether sessions or appointments could not be
// checked, so hard conflicts may be missing from Hard.
func (c Conflicts) HardUnchecked() bool {
	for _, st := range c.Unchecked {
		if st == model.SourceSession || st == model.SourceAppointment {
			return true
		}
	}
	return false
}

// DetectConflicts returns the timed events of day that overlap candidate.
// Planning blocks and untimed events never conflict. It has no side effects.
func DetectConflicts(candidate model.TimeRange, day []model.CalendarEvent) Conflicts {
	c := Conflicts{Hard: []model.CalendarEvent{}, Soft: []model.CalendarEvent{}}
	for _, ev := range day {
		if ev.Range == nil || !Overlaps(candidate, *ev.Range) {
			continue
		}
		switch ev.SourceType {
		case model.SourceSession, model.SourceAppointment:
			c.Hard = append(c.Hard, ev)
		case model.SourceCallback:
			c.Soft = append(c.Soft, ev)
		case model.SourcePlanningBlock:
		}
	}
	return c
}
