package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"planner/internal/model"
)

const minutesPerDay = 24 * 60

// ParseTime converts "HH:MM" into minutes since midnight. Malformed or empty
// input yields 0; use ParseClock when absence must be told apart from
// midnight.
func ParseTime(s string) int {
	m, _ := ParseClock(s)
	return m
}

// ParseClock parses "HH:MM" (seconds suffix tolerated, as stored by some
// databases) and reports whether the value was well formed.
func ParseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, false
		}
	}
	if h == 24 && m != 0 {
		return 0, false
	}
	return h*60 + m, true
}

// Overlaps reports whether two half-open ranges intersect.
func Overlaps(a, b model.TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// NextBusinessDay returns the first Monday-to-Friday date strictly after d.
func NextBusinessDay(d model.Date) model.Date {
	next := d.AddDays(1)
	for isWeekend(next) {
		next = next.AddDays(1)
	}
	return next
}

func isWeekend(d model.Date) bool {
	switch model.Weekday(d) {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// rangeFrom builds a range from start/end clock strings. Both empty means
// untimed; anything else must parse and be non-empty.
func rangeFrom(start, end string) (*model.TimeRange, error) {
	if strings.TrimSpace(start) == "" && strings.TrimSpace(end) == "" {
		return nil, nil
	}
	s, ok := ParseClock(start)
	if !ok {
		return nil, &parseError{field: "start_time", value: start}
	}
	e, ok := ParseClock(end)
	if !ok {
		return nil, &parseError{field: "end_time", value: end}
	}
	r := model.TimeRange{Start: s, End: e}
	if !r.Valid() {
		return nil, &parseError{field: "time_range", value: start + "-" + end}
	}
	return &r, nil
}

// rangeFor builds a range from an optional start time and a fixed duration.
func rangeFor(start string, minutes int) (*model.TimeRange, error) {
	if strings.TrimSpace(start) == "" {
		return nil, nil
	}
	s, ok := ParseClock(start)
	if !ok {
		return nil, &parseError{field: "time", value: start}
	}
	e := s + minutes
	if e > minutesPerDay {
		e = minutesPerDay
	}
	r := model.TimeRange{Start: s, End: e}
	if !r.Valid() {
		return nil, &parseError{field: "time", value: start}
	}
	return &r, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
