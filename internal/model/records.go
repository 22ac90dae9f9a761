package model

// Raw source records as the record stores hand them out. Dates are
// "YYYY-MM-DD" and times "HH:MM"; they are parsed by the schedule adapters,
// which drop malformed records instead of failing the whole pass.

// Session is a (possibly multi-day) training session. Its placement is fixed.
type Session struct {
	ID        string  `json:"id" yaml:"id"`
	StartDate string  `json:"start_date" yaml:"start_date"`
	EndDate   string  `json:"end_date" yaml:"end_date"`
	StartTime string  `json:"start_time" yaml:"start_time"`
	EndTime   string  `json:"end_time" yaml:"end_time"`
	Title     string  `json:"title" yaml:"title"`
	ClientRef string  `json:"client_ref,omitempty" yaml:"client_ref,omitempty"`
	Amount    float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Appointment is a scheduled client meeting.
type Appointment struct {
	ID          string `json:"id" yaml:"id"`
	Date        string `json:"date" yaml:"date"`
	Time        string `json:"time,omitempty" yaml:"time,omitempty"`
	ClientID    string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientName  string `json:"client_name" yaml:"client_name"`
	ContactName string `json:"contact_name,omitempty" yaml:"contact_name,omitempty"`
}

// Callback is a scheduled outbound phone follow-up.
type Callback struct {
	ID          string `json:"id" yaml:"id"`
	Date        string `json:"date" yaml:"date"`
	Time        string `json:"time,omitempty" yaml:"time,omitempty"`
	ClientID    string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientName  string `json:"client_name" yaml:"client_name"`
	ContactName string `json:"contact_name,omitempty" yaml:"contact_name,omitempty"`
}

// PlanningBlock is an operator-owned block of time. RRule, when set, is an
// RFC 5545 recurrence rule anchored at Date.
type PlanningBlock struct {
	ID          string    `json:"id" yaml:"id"`
	OwnerID     string    `json:"owner_id" yaml:"owner_id"`
	Date        string    `json:"date" yaml:"date"`
	StartTime   string    `json:"start_time" yaml:"start_time"`
	EndTime     string    `json:"end_time" yaml:"end_time"`
	Kind        BlockKind `json:"kind" yaml:"kind"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	RRule       string    `json:"rrule,omitempty" yaml:"rrule,omitempty"`
}
