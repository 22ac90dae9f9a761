package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"planner/internal/model"
	"planner/internal/schedule"
)

const productID = "-//planner//weekly planner//EN"

// Options controls how weeks are rendered into a VCALENDAR.
type Options struct {
	// Name is the calendar display name (X-WR-CALNAME).
	Name string
	// Location places timed events; nil means time.Local.
	Location *time.Location
	// Now stamps DTSTAMP; zero means time.Now().
	Now time.Time
}

// BuildCalendar renders the events of the given weeks. Timed events get a
// DTSTART/DTEND in opts.Location, untimed ones become all-day entries.
func BuildCalendar(weeks []schedule.Week, opts Options) *ical.Calendar {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, w := range weeks {
		for _, day := range w.Days {
			for _, ev := range day.Events {
				addEvent(cal, ev, opts)
			}
		}
	}
	return cal
}

// Serialize is BuildCalendar followed by text encoding.
func Serialize(weeks []schedule.Week, opts Options) string {
	return BuildCalendar(weeks, opts).Serialize()
}

func addEvent(cal *ical.Calendar, ev model.CalendarEvent, opts Options) {
	vev := cal.AddEvent(EventUID(ev))
	vev.SetDtStampTime(opts.Now)
	vev.SetSummary(summary(ev))
	if ev.Subtitle != "" {
		vev.SetDescription(ev.Subtitle)
	}
	vev.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(ev.SourceType.String()))

	if ev.Range == nil {
		start := ev.Date.In(opts.Location)
		vev.SetAllDayStartAt(start)
		vev.SetAllDayEndAt(ev.Date.AddDays(1).In(opts.Location))
		return
	}
	vev.SetStartAt(clockOn(ev.Date, ev.Range.Start, opts.Location))
	vev.SetEndAt(clockOn(ev.Date, ev.Range.End, opts.Location))
}

// EventUID is stable across exports so calendar clients update entries in
// place. Multi-day sessions get one UID per day.
func EventUID(ev model.CalendarEvent) string {
	return fmt.Sprintf("%s-%s-%s@planner", ev.SourceType, ev.ID, ev.Date)
}

func summary(ev model.CalendarEvent) string {
	title := ev.Title
	if title == "" {
		title = "(untitled)"
	}
	switch ev.SourceType {
	case model.SourceCallback:
		return "Callback: " + title
	case model.SourceAppointment:
		return "Appointment: " + title
	case model.SourcePlanningBlock:
		if ev.Kind == model.BlockUnavailability {
			return "Unavailable: " + title
		}
	}
	return title
}

func clockOn(d model.Date, minutes int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, minutes/60, minutes%60, 0, 0, loc)
}
