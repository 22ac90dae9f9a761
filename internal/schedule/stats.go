package schedule

import "planner/internal/model"

// StatsSummary is the weekly summary shown next to the planner.
type StatsSummary struct {
	Window model.WeekWindow `json:"window"`
	// Sessions counts distinct session records; SessionDays counts their
	// per-day entries.
	Sessions         int     `json:"sessions"`
	SessionDays      int     `json:"session_days"`
	Appointments     int     `json:"appointments"`
	Callbacks        int     `json:"callbacks"`
	PlanningBlocks   int     `json:"planning_blocks"`
	Unavailabilities int     `json:"unavailabilities"`
	BusyDays         int     `json:"busy_days"`
	FreeDays         int     `json:"free_days"`
	SessionValue     float64 `json:"session_value"`
}

// ComputeStats reduces an aggregated week into counts.
func ComputeStats(w Week) StatsSummary {
	s := StatsSummary{Window: w.Window}
	seen := make(map[string]struct{})

	for _, day := range w.Days {
		if len(day.Events) == 0 {
			s.FreeDays++
		} else {
			s.BusyDays++
		}
		for _, ev := range day.Events {
			switch ev.SourceType {
			case model.SourceSession:
				s.SessionDays++
				if _, ok := seen[ev.ID]; !ok {
					seen[ev.ID] = struct{}{}
					s.Sessions++
					s.SessionValue += ev.Value
				}
			case model.SourceAppointment:
				s.Appointments++
			case model.SourceCallback:
				s.Callbacks++
			case model.SourcePlanningBlock:
				s.PlanningBlocks++
				if ev.Kind == model.BlockUnavailability {
					s.Unavailabilities++
				}
			}
		}
	}
	return s
}
