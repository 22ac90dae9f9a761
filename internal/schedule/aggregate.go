package schedule

import (
	"sort"

	"planner/internal/model"
)

// Day is one column of the week view.
type Day struct {
	Date   model.Date            `json:"date"`
	Events []model.CalendarEvent `json:"events"`
}

// Week is the canonical per-day view shared by the UI, the conflict
// detector and the stats reducer.
type Week struct {
	Window model.WeekWindow `json:"window"`
	Days   []Day            `json:"days"`
	// FetchErrors is set when one or more sources could not be listed and
	// were treated as empty for this pass. FailedSources names them.
	FetchErrors   error              `json:"-"`
	FailedSources []model.SourceType `json:"failed_sources,omitempty"`
}

// Day returns the events of d, or nil when d is outside the window.
func (w Week) Day(d model.Date) []model.CalendarEvent {
	for _, day := range w.Days {
		if day.Date == d {
			return day.Events
		}
	}
	return nil
}

// ByDate returns the week as a date-keyed map.
func (w Week) ByDate() map[model.Date][]model.CalendarEvent {
	m := make(map[model.Date][]model.CalendarEvent, len(w.Days))
	for _, day := range w.Days {
		m[day.Date] = day.Events
	}
	return m
}

// Partial reports whether some source failed during the pass.
func (w Week) Partial() bool {
	return w.FetchErrors != nil || len(w.FailedSources) > 0
}

// SourceFailed reports whether st could not be listed for this week.
func (w Week) SourceFailed(st model.SourceType) bool {
	for _, f := range w.FailedSources {
		if f == st {
			return true
		}
	}
	return false
}

func priority(st model.SourceType) int {
	switch st {
	case model.SourceSession:
		return 0
	case model.SourceAppointment:
		return 1
	default:
		return 2
	}
}

// GroupWeek buckets already-deduplicated events into the six days of w and
// orders each day Session < Appointment < Callback/PlanningBlock, keeping
// input order among equals. Every day is present even when empty.
func GroupWeek(w model.WeekWindow, events []model.CalendarEvent) Week {
	dates := w.Days()
	index := make(map[model.Date]int, len(dates))
	days := make([]Day, len(dates))
	for i, d := range dates {
		index[d] = i
		days[i] = Day{Date: d, Events: []model.CalendarEvent{}}
	}

	for _, ev := range events {
		i, ok := index[ev.Date]
		if !ok {
			continue
		}
		days[i].Events = append(days[i].Events, ev)
	}

	for i := range days {
		evs := days[i].Events
		sort.SliceStable(evs, func(a, b int) bool {
			return priority(evs[a].SourceType) < priority(evs[b].SourceType)
		})
	}
	return Week{Window: w, Days: days}
}

// Snapshot holds the raw records of one week as fetched from the stores.
type Snapshot struct {
	Sessions     []model.Session
	Appointments []model.Appointment
	Callbacks    []model.Callback
	Blocks       []model.PlanningBlock
	// Failed lists the sources whose listing failed; their slices are nil.
	Failed []model.SourceType
}

// BuildWeek runs adapters, dedup and grouping over a snapshot. It is pure:
// the same snapshot always yields the same week.
func BuildWeek(w model.WeekWindow, snap Snapshot, d Durations) Week {
	events := make([]model.CalendarEvent, 0,
		len(snap.Sessions)+len(snap.Appointments)+len(snap.Callbacks)+len(snap.Blocks))
	events = append(events, AdaptSessions(snap.Sessions, w)...)
	events = append(events, AdaptAppointments(snap.Appointments, w, d)...)
	events = append(events, AdaptCallbacks(snap.Callbacks, w, d)...)
	events = append(events, AdaptPlanningBlocks(snap.Blocks, w)...)
	week := GroupWeek(w, Dedup(events))
	week.FailedSources = snap.Failed
	return week
}
