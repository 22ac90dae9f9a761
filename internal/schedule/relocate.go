package schedule

import (
	"context"
	"fmt"

	appLog "planner/internal/log"
	"planner/internal/model"
)

// checkRelocation enforces the preconditions of moving ev without I/O.
func checkRelocation(cmd model.RelocationCommand, ev model.CalendarEvent) error {
	if cmd.SourceType == model.SourceSession || !ev.Draggable {
		return &RelocationError{Kind: RelocationNotDraggable, Command: cmd}
	}
	if cmd.FromDate == cmd.ToDate {
		return &RelocationError{Kind: RelocationNoOp, Command: cmd}
	}
	return nil
}

// Relocate moves one event to another day by updating the date of its
// source record. The event is looked up on cmd.FromDate first: an event
// that is not there, or not draggable, is refused before any write. On
// failure nothing has been written and the caller should revert any
// optimistic position. Overlaps on the target day are not checked.
func (e *Engine) Relocate(ctx context.Context, cmd model.RelocationCommand) error {
	if cmd.SourceType == model.SourceSession {
		return &RelocationError{Kind: RelocationNotDraggable, Command: cmd}
	}
	if cmd.EventID == "" {
		return fmt.Errorf("relocate: %w", errMissingID)
	}
	if !cmd.FromDate.IsValid() || !cmd.ToDate.IsValid() {
		return fmt.Errorf("relocate %s: invalid dates %v -> %v", cmd.EventID, cmd.FromDate, cmd.ToDate)
	}

	ev, err := e.lookup(ctx, cmd)
	if err != nil {
		return err
	}
	return e.move(ctx, cmd, ev)
}

// lookup finds the event cmd refers to in a fresh aggregate of its week.
func (e *Engine) lookup(ctx context.Context, cmd model.RelocationCommand) (model.CalendarEvent, error) {
	week := e.Aggregate(ctx, model.WeekOf(cmd.FromDate))
	for _, ev := range week.Day(cmd.FromDate) {
		if ev.SourceType == cmd.SourceType && ev.ID == cmd.EventID {
			return ev, nil
		}
	}
	if week.SourceFailed(cmd.SourceType) {
		return model.CalendarEvent{}, &RelocationError{
			Kind:    RelocationPersistenceFailure,
			Command: cmd,
			Cause:   week.FetchErrors,
		}
	}
	return model.CalendarEvent{}, &RelocationError{Kind: RelocationNotDraggable, Command: cmd}
}

// move writes the new date of ev, which must come from a current aggregate.
func (e *Engine) move(ctx context.Context, cmd model.RelocationCommand, ev model.CalendarEvent) error {
	if err := checkRelocation(cmd, ev); err != nil {
		return err
	}

	var err error
	switch cmd.SourceType {
	case model.SourceAppointment:
		err = e.store.UpdateAppointmentDate(ctx, cmd.EventID, cmd.ToDate)
	case model.SourceCallback:
		err = e.store.UpdateCallbackDate(ctx, cmd.EventID, cmd.ToDate)
	case model.SourcePlanningBlock:
		err = e.store.UpdatePlanningBlockDate(ctx, cmd.EventID, cmd.ToDate)
	case model.SourceSession:
		return &RelocationError{Kind: RelocationNotDraggable, Command: cmd}
	default:
		return fmt.Errorf("relocate %s: unknown source type %s", cmd.EventID, cmd.SourceType)
	}
	if err != nil {
		appLog.Error("relocation failed", err,
			"source", cmd.SourceType.String(), "id", cmd.EventID, "to", cmd.ToDate.String())
		return &RelocationError{Kind: RelocationPersistenceFailure, Command: cmd, Cause: err}
	}

	appLog.Info("event relocated",
		"source", cmd.SourceType.String(), "id", cmd.EventID,
		"from", cmd.FromDate.String(), "to", cmd.ToDate.String())
	return nil
}
