package schedule

import (
	"strings"

	"planner/internal/model"
)

// NormalizeClientName strips a trailing parenthetical qualifier, trims and
// uppercases: "Acme (HQ) " -> "ACME".
func NormalizeClientName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.ToUpper(strings.TrimSpace(name))
}

// Dedup drops callbacks whose client already has an appointment among
// events. Client IDs are compared when both sides carry one, normalized
// names otherwise. Events of other source types pass through untouched and
// relative order is preserved.
func Dedup(events []model.CalendarEvent) []model.CalendarEvent {
	ids := make(map[string]struct{})
	names := make(map[string]struct{})
	namesWithoutID := make(map[string]struct{})

	for _, ev := range events {
		if ev.SourceType != model.SourceAppointment {
			continue
		}
		name := NormalizeClientName(ev.ClientName)
		if ev.LinkedClientID != "" {
			ids[ev.LinkedClientID] = struct{}{}
		} else if name != "" {
			namesWithoutID[name] = struct{}{}
		}
		if name != "" {
			names[name] = struct{}{}
		}
	}

	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.SourceType == model.SourceCallback && graduated(ev, ids, names, namesWithoutID) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func graduated(cb model.CalendarEvent, ids, names, namesWithoutID map[string]struct{}) bool {
	name := NormalizeClientName(cb.ClientName)
	if cb.LinkedClientID != "" {
		if _, ok := ids[cb.LinkedClientID]; ok {
			return true
		}
		// Appointments without an ID can only be matched by name.
		if name == "" {
			return false
		}
		_, ok := namesWithoutID[name]
		return ok
	}
	if name == "" {
		return false
	}
	_, ok := names[name]
	return ok
}
