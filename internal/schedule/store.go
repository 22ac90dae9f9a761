package schedule

import (
	"context"

	"planner/internal/model"
)

// Source lists the raw records of a date span. Implementations are the
// externally owned record stores.
type Source interface {
	// ListSessions returns sessions whose [start, end] overlaps [from, to].
	ListSessions(ctx context.Context, from, to model.Date) ([]model.Session, error)
	ListAppointments(ctx context.Context, from, to model.Date) ([]model.Appointment, error)
	ListCallbacks(ctx context.Context, from, to model.Date) ([]model.Callback, error)
	// ListPlanningBlocks returns the owner's blocks dated in [from, to] plus
	// recurring blocks anchored on or before to.
	ListPlanningBlocks(ctx context.Context, ownerID string, from, to model.Date) ([]model.PlanningBlock, error)
}

// Writer performs single-record mutations. Sessions have no date update:
// they are placed, never relocated.
type Writer interface {
	UpdateAppointmentDate(ctx context.Context, id string, date model.Date) error
	UpdateCallbackDate(ctx context.Context, id string, date model.Date) error
	UpdatePlanningBlockDate(ctx context.Context, id string, date model.Date) error
	CreatePlanningBlock(ctx context.Context, block model.PlanningBlock) error
	DeletePlanningBlock(ctx context.Context, id string) error
}

// Store is everything the engine needs from persistence.
type Store interface {
	Source
	Writer
}
