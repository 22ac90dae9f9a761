package model

import (
	"fmt"
	"time"
)

// BusinessWeekDays is the number of days shown per week (Monday to Saturday).
const BusinessWeekDays = 6

// WeekWindow is the Monday-to-Saturday span every aggregation is scoped to.
type WeekWindow struct {
	Monday Date `json:"monday"`
}

// NewWeekWindow validates that monday really is a Monday.
func NewWeekWindow(monday Date) (WeekWindow, error) {
	if !monday.IsValid() {
		return WeekWindow{}, fmt.Errorf("week window: invalid date %v", monday)
	}
	if wd := Weekday(monday); wd != time.Monday {
		return WeekWindow{}, fmt.Errorf("week window: %s is a %s, not a Monday", monday, wd)
	}
	return WeekWindow{Monday: monday}, nil
}

// WeekOf returns the window whose Monday precedes (or is) d. A Sunday maps to
// the week that just ended.
func WeekOf(d Date) WeekWindow {
	offset := (int(Weekday(d)) + 6) % 7
	return WeekWindow{Monday: d.AddDays(-offset)}
}

// Days returns the six dates of the window in order.
func (w WeekWindow) Days() []Date {
	days := make([]Date, BusinessWeekDays)
	for i := range days {
		days[i] = w.Monday.AddDays(i)
	}
	return days
}

// End is the Saturday closing the window.
func (w WeekWindow) End() Date {
	return w.Monday.AddDays(BusinessWeekDays - 1)
}

// Contains reports whether d falls on one of the window's days.
func (w WeekWindow) Contains(d Date) bool {
	return !d.Before(w.Monday) && !d.After(w.End())
}

func (w WeekWindow) Next() WeekWindow {
	return WeekWindow{Monday: w.Monday.AddDays(7)}
}

func (w WeekWindow) Prev() WeekWindow {
	return WeekWindow{Monday: w.Monday.AddDays(-7)}
}

func (w WeekWindow) String() string {
	return w.Monday.String() + ".." + w.End().String()
}
