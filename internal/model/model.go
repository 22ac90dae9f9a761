package model

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a timezone-free calendar date.
type Date = civil.Date

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	return civil.ParseDate(strings.TrimSpace(s))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return civil.DateOf(t)
}

// Weekday returns the day of week for d.
func Weekday(d Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// TimeRange is a half-open [Start, End) interval in minutes since midnight.
// A nil *TimeRange stands for an untimed (all-day) event.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the range is non-empty.
func (r TimeRange) Valid() bool {
	return r.Start < r.End
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}

// SourceType identifies which kind of record a CalendarEvent came from.
type SourceType int

const (
	SourceSession SourceType = iota
	SourceAppointment
	SourceCallback
	SourcePlanningBlock
)

var sourceTypeNames = [...]string{
	SourceSession:       "session",
	SourceAppointment:   "appointment",
	SourceCallback:      "callback",
	SourcePlanningBlock: "planning_block",
}

func (s SourceType) String() string {
	if s < 0 || int(s) >= len(sourceTypeNames) {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceTypeNames[s]
}

// ParseSourceType is the inverse of SourceType.String.
func ParseSourceType(s string) (SourceType, error) {
	for i, name := range sourceTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return SourceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown source type %q", s)
}

func (s SourceType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SourceType) UnmarshalText(b []byte) error {
	v, err := ParseSourceType(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// BlockKind is the sub-kind of a PlanningBlock.
type BlockKind string

const (
	BlockTask           BlockKind = "task"
	BlockAdmin          BlockKind = "admin"
	BlockPhoning        BlockKind = "phoning"
	BlockUnavailability BlockKind = "unavailability"
)

// Valid reports whether k is one of the known kinds.
func (k BlockKind) Valid() bool {
	switch k {
	case BlockTask, BlockAdmin, BlockPhoning, BlockUnavailability:
		return true
	}
	return false
}

// Draggable reports whether blocks of this kind may be moved between days.
// Unavailability blocks stay where they are.
func (k BlockKind) Draggable() bool {
	switch k {
	case BlockTask, BlockAdmin, BlockPhoning:
		return true
	}
	return false
}

// CalendarEvent is the unified, per-day view of one source record. It is
// rebuilt on every aggregation pass and never persisted.
type CalendarEvent struct {
	ID             string     `json:"id"`
	SourceType     SourceType `json:"source_type"`
	Date           Date       `json:"date"`
	Range          *TimeRange `json:"range,omitempty"`
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	Draggable      bool       `json:"draggable"`
	LinkedClientID string     `json:"linked_client_id,omitempty"`

	// ClientName is the raw client label used for callback deduplication.
	ClientName string `json:"client_name,omitempty"`
	// Kind is only set for planning blocks.
	Kind BlockKind `json:"kind,omitempty"`
	// Value is the monetary amount attached to the source record (sessions).
	Value float64 `json:"value,omitempty"`
}

// Timed reports whether the event has a concrete time range.
func (e CalendarEvent) Timed() bool {
	return e.Range != nil
}

// RelocationCommand asks for one event to be moved to another day. It names
// the event only; whether it may move is read back from the stores.
type RelocationCommand struct {
	EventID    string     `json:"event_id"`
	SourceType SourceType `json:"source_type"`
	FromDate   Date       `json:"from"`
	ToDate     Date       `json:"to"`
}

// NewRelocationCommand builds a command moving ev to day to.
func NewRelocationCommand(ev CalendarEvent, to Date) RelocationCommand {
	return RelocationCommand{
		EventID:    ev.ID,
		SourceType: ev.SourceType,
		FromDate:   ev.Date,
		ToDate:     to,
	}
}
