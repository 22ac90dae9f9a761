package schedule

import (
	"errors"
	"strings"

	appLog "planner/internal/log"
	"planner/internal/model"
)

const (
	DefaultAppointmentMinutes = 60
	DefaultCallbackMinutes    = 30
)

// Durations gives appointments and callbacks, which only store a start
// time, a length for conflict detection.
type Durations struct {
	AppointmentMinutes int
	CallbackMinutes    int
}

func (d Durations) normalized() Durations {
	if d.AppointmentMinutes <= 0 {
		d.AppointmentMinutes = DefaultAppointmentMinutes
	}
	if d.CallbackMinutes <= 0 {
		d.CallbackMinutes = DefaultCallbackMinutes
	}
	return d
}

var errMissingID = errors.New("missing id")

// AdaptSessions materializes one event per session day inside w. Sessions
// are never draggable.
func AdaptSessions(sessions []model.Session, w model.WeekWindow) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(sessions))
	for _, s := range sessions {
		evs, err := adaptSession(s, w)
		if err != nil {
			dropRecord(model.SourceSession, s.ID, err)
			continue
		}
		out = append(out, evs...)
	}
	return out
}

func adaptSession(s model.Session, w model.WeekWindow) ([]model.CalendarEvent, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, errMissingID
	}
	start, err := model.ParseDate(s.StartDate)
	if err != nil {
		return nil, &parseError{field: "start_date", value: s.StartDate}
	}
	end := start
	if strings.TrimSpace(s.EndDate) != "" {
		if end, err = model.ParseDate(s.EndDate); err != nil {
			return nil, &parseError{field: "end_date", value: s.EndDate}
		}
	}
	if end.Before(start) {
		return nil, &parseError{field: "date_range", value: s.StartDate + ".." + s.EndDate}
	}
	rng, err := rangeFrom(s.StartTime, s.EndTime)
	if err != nil {
		return nil, err
	}

	var out []model.CalendarEvent
	for _, day := range w.Days() {
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, model.CalendarEvent{
			ID:             s.ID,
			SourceType:     model.SourceSession,
			Date:           day,
			Range:          copyRange(rng),
			Title:          s.Title,
			Subtitle:       s.ClientRef,
			Draggable:      false,
			LinkedClientID: s.ClientRef,
			Value:          s.Amount,
		})
	}
	return out, nil
}

// AdaptAppointments emits one draggable event per appointment dated in w.
func AdaptAppointments(appts []model.Appointment, w model.WeekWindow, d Durations) []model.CalendarEvent {
	d = d.normalized()
	out := make([]model.CalendarEvent, 0, len(appts))
	for _, a := range appts {
		ev, ok, err := adaptDated(model.SourceAppointment, a.ID, a.Date, a.Time, d.AppointmentMinutes, w)
		if err != nil {
			dropRecord(model.SourceAppointment, a.ID, err)
			continue
		}
		if !ok {
			continue
		}
		ev.Title = a.ClientName
		ev.Subtitle = a.ContactName
		ev.LinkedClientID = a.ClientID
		ev.ClientName = a.ClientName
		out = append(out, ev)
	}
	return out
}

// AdaptCallbacks emits one draggable event per callback dated in w. The
// result still has to go through Dedup.
func AdaptCallbacks(cbs []model.Callback, w model.WeekWindow, d Durations) []model.CalendarEvent {
	d = d.normalized()
	out := make([]model.CalendarEvent, 0, len(cbs))
	for _, c := range cbs {
		ev, ok, err := adaptDated(model.SourceCallback, c.ID, c.Date, c.Time, d.CallbackMinutes, w)
		if err != nil {
			dropRecord(model.SourceCallback, c.ID, err)
			continue
		}
		if !ok {
			continue
		}
		ev.Title = c.ClientName
		ev.Subtitle = c.ContactName
		ev.LinkedClientID = c.ClientID
		ev.ClientName = c.ClientName
		out = append(out, ev)
	}
	return out
}

func adaptDated(st model.SourceType, id, date, clock string, minutes int, w model.WeekWindow) (model.CalendarEvent, bool, error) {
	if strings.TrimSpace(id) == "" {
		return model.CalendarEvent{}, false, errMissingID
	}
	day, err := model.ParseDate(date)
	if err != nil {
		return model.CalendarEvent{}, false, &parseError{field: "date", value: date}
	}
	if !w.Contains(day) {
		return model.CalendarEvent{}, false, nil
	}
	rng, err := rangeFor(clock, minutes)
	if err != nil {
		return model.CalendarEvent{}, false, err
	}
	return model.CalendarEvent{
		ID:         id,
		SourceType: st,
		Date:       day,
		Range:      rng,
		Draggable:  true,
	}, true, nil
}

// AdaptPlanningBlocks emits one event per block day in w. Recurring blocks
// produce one event per occurrence and are never draggable.
func AdaptPlanningBlocks(blocks []model.PlanningBlock, w model.WeekWindow) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(blocks))
	for _, b := range blocks {
		evs, err := adaptBlock(b, w)
		if err != nil {
			dropRecord(model.SourcePlanningBlock, b.ID, err)
			continue
		}
		out = append(out, evs...)
	}
	return out
}

func adaptBlock(b model.PlanningBlock, w model.WeekWindow) ([]model.CalendarEvent, error) {
	if strings.TrimSpace(b.ID) == "" {
		return nil, errMissingID
	}
	if !b.Kind.Valid() {
		return nil, &parseError{field: "kind", value: string(b.Kind)}
	}
	anchor, err := model.ParseDate(b.Date)
	if err != nil {
		return nil, &parseError{field: "date", value: b.Date}
	}
	rng, err := rangeFrom(b.StartTime, b.EndTime)
	if err != nil {
		return nil, err
	}

	days := []model.Date{anchor}
	draggable := b.Kind.Draggable()
	if strings.TrimSpace(b.RRule) != "" {
		if days, err = expandRecurrence(b.RRule, anchor, w); err != nil {
			return nil, &parseError{field: "rrule", value: b.RRule}
		}
		draggable = false
	}

	var out []model.CalendarEvent
	for _, day := range days {
		if !w.Contains(day) {
			continue
		}
		out = append(out, model.CalendarEvent{
			ID:         b.ID,
			SourceType: model.SourcePlanningBlock,
			Date:       day,
			Range:      copyRange(rng),
			Title:      b.Title,
			Subtitle:   b.Description,
			Draggable:  draggable,
			Kind:       b.Kind,
		})
	}
	return out, nil
}

func copyRange(r *model.TimeRange) *model.TimeRange {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func dropRecord(st model.SourceType, id string, err error) {
	appLog.Error("adapter: dropping malformed record", err, "source", st.String(), "id", id)
}
