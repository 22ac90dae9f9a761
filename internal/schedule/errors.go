package schedule

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"planner/internal/model"
)

var (
	// ErrNotDraggable is returned when relocating a fixed event.
	ErrNotDraggable = errors.New("event is not draggable")
	// ErrNoOp is returned when the target date equals the current date.
	ErrNoOp = errors.New("relocation target equals current date")
	// ErrPersistence marks a failed write against a record store.
	ErrPersistence = errors.New("persistence failure")
)

// RelocationErrorKind classifies a failed relocation.
type RelocationErrorKind string

const (
	RelocationNotDraggable       RelocationErrorKind = "not_draggable"
	RelocationNoOp               RelocationErrorKind = "no_op"
	RelocationPersistenceFailure RelocationErrorKind = "persistence_failure"
)

// RelocationError is returned by Relocate. Precondition failures never
// carry a Cause because no I/O was attempted.
type RelocationError struct {
	Kind    RelocationErrorKind
	Command model.RelocationCommand
	Cause   error
}

func (e *RelocationError) Error() string {
	msg := fmt.Sprintf("relocate %s %s (%s -> %s): %s",
		e.Command.SourceType, e.Command.EventID, e.Command.FromDate, e.Command.ToDate, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RelocationError) Unwrap() error {
	return e.Cause
}

// Is lets callers match on the sentinel for the error's kind.
func (e *RelocationError) Is(target error) bool {
	switch e.Kind {
	case RelocationNotDraggable:
		return target == ErrNotDraggable
	case RelocationNoOp:
		return target == ErrNoOp
	case RelocationPersistenceFailure:
		return target == ErrPersistence
	}
	return false
}

// HardConflictError blocks creation of an unavailability block until the
// requester acknowledges the listed sessions and appointments, or the
// sources that could not be checked for them.
type HardConflictError struct {
	Date      model.Date
	Range     model.TimeRange
	Conflicts []model.CalendarEvent
	// Unchecked lists sources whose listing failed. Cause is that failure.
	Unchecked []model.SourceType
	Cause     error
}

func (e *HardConflictError) Error() string {
	titles := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		titles = append(titles, fmt.Sprintf("%s %q", c.SourceType, c.Title))
	}
	msg := fmt.Sprintf("unavailability %s %s overlaps %d fixed event(s)", e.Date, e.Range, len(e.Conflicts))
	if len(titles) > 0 {
		msg += ": " + strings.Join(titles, ", ")
	}
	if len(e.Unchecked) > 0 {
		names := make([]string, 0, len(e.Unchecked))
		for _, st := range e.Unchecked {
			names = append(names, st.String())
		}
		msg += "; not checked: " + strings.Join(names, ", ")
	}
	return msg
}

func (e *HardConflictError) Unwrap() error {
	return e.Cause
}

// PartialRescheduleError reports that only some callbacks were moved. The
// unavailability block itself has still been created.
type PartialRescheduleError struct {
	Moved  int
	Failed int
	Errs   []error
}

func (e *PartialRescheduleError) Error() string {
	return fmt.Sprintf("auto-reschedule: moved %d, failed %d: %v", e.Moved, e.Failed, multierr.Combine(e.Errs...))
}

func (e *PartialRescheduleError) Unwrap() []error {
	return e.Errs
}

// parseError describes a record dropped by an adapter.
type parseError struct {
	field string
	value string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.field, e.value)
}
