package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"planner/internal/model"
	"planner/internal/store"
)

// fakeStore wraps the in-memory store with call counting and failure
// injection.
type fakeStore struct {
	*store.Memory

	mu          sync.Mutex
	writes      int
	failList    map[string]error
	failUpdates map[string]error
	failCreate  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		Memory:      store.NewMemory(),
		failList:    map[string]error{},
		failUpdates: map[string]error{},
	}
}

func (f *fakeStore) listErr(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failList[name]
}

func (f *fakeStore) write(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return f.failUpdates[id]
}

func (f *fakeStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeStore) ListSessions(ctx context.Context, from, to model.Date) ([]model.Session, error) {
	if err := f.listErr("sessions"); err != nil {
		return nil, err
	}
	return f.Memory.ListSessions(ctx, from, to)
}

func (f *fakeStore) ListAppointments(ctx context.Context, from, to model.Date) ([]model.Appointment, error) {
	if err := f.listErr("appointments"); err != nil {
		return nil, err
	}
	return f.Memory.ListAppointments(ctx, from, to)
}

func (f *fakeStore) ListCallbacks(ctx context.Context, from, to model.Date) ([]model.Callback, error) {
	if err := f.listErr("callbacks"); err != nil {
		return nil, err
	}
	return f.Memory.ListCallbacks(ctx, from, to)
}

func (f *fakeStore) ListPlanningBlocks(ctx context.Context, owner string, from, to model.Date) ([]model.PlanningBlock, error) {
	if err := f.listErr("planning_blocks"); err != nil {
		return nil, err
	}
	return f.Memory.ListPlanningBlocks(ctx, owner, from, to)
}

func (f *fakeStore) UpdateAppointmentDate(ctx context.Context, id string, d model.Date) error {
	if err := f.write(id); err != nil {
		return err
	}
	return f.Memory.UpdateAppointmentDate(ctx, id, d)
}

func (f *fakeStore) UpdateCallbackDate(ctx context.Context, id string, d model.Date) error {
	if err := f.write(id); err != nil {
		return err
	}
	return f.Memory.UpdateCallbackDate(ctx, id, d)
}

func (f *fakeStore) UpdatePlanningBlockDate(ctx context.Context, id string, d model.Date) error {
	if err := f.write(id); err != nil {
		return err
	}
	return f.Memory.UpdatePlanningBlockDate(ctx, id, d)
}

func (f *fakeStore) CreatePlanningBlock(ctx context.Context, b model.PlanningBlock) error {
	f.mu.Lock()
	f.writes++
	err := f.failCreate
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Memory.CreatePlanningBlock(ctx, b)
}

func (f *fakeStore) DeletePlanningBlock(ctx context.Context, id string) error {
	if err := f.write(id); err != nil {
		return err
	}
	return f.Memory.DeletePlanningBlock(ctx, id)
}

var errStoreDown = errors.New("store unavailable")

func d(t *testing.T, s string) model.Date {
	t.Helper()
	v, err := model.ParseDate(s)
	require.NoError(t, err)
	return v
}

func week(t *testing.T, monday string) model.WeekWindow {
	t.Helper()
	w, err := model.NewWeekWindow(d(t, monday))
	require.NoError(t, err)
	return w
}

func seq(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
