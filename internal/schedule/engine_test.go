package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/model"
)

func newTestEngine(t *testing.T, fs *fakeStore) *Engine {
	t.Helper()
	return NewEngine(fs, WithOwner("op1"), WithIDGenerator(seq("blk-")))
}

func TestScenarioCallbackWithoutAppointment(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-05", Time: "10:00", ClientID: "c1", ClientName: "ACME"}))

	wk := newTestEngine(t, fs).Aggregate(ctx, week(t, "2024-01-01"))
	require.NoError(t, wk.FetchErrors)
	assert.Equal(t, []string{"cb1"}, ids(wk.Day(d(t, "2024-01-05"))))
}

func TestScenarioCallbackGraduated(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-05", Time: "10:00", ClientID: "c1", ClientName: "ACME"}))
	require.NoError(t, fs.InsertAppointment(ctx, model.Appointment{ID: "a1", Date: "2024-01-05", Time: "15:00", ClientID: "c1", ClientName: "ACME"}))

	wk := newTestEngine(t, fs).Aggregate(ctx, week(t, "2024-01-01"))
	assert.Equal(t, []string{"a1"}, ids(wk.Day(d(t, "2024-01-05"))))
}

func TestScenarioSoftConflictRescheduled(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-05", Time: "10:00", ClientName: "Globex"}))
	e := newTestEngine(t, fs)

	fri := d(t, "2024-01-05")
	rng := model.TimeRange{Start: 9 * 60, End: 12 * 60}
	c, err := e.DetectConflicts(ctx, fri, rng)
	require.NoError(t, err)
	assert.Empty(t, c.Hard)
	assert.Equal(t, []string{"cb1"}, ids(c.Soft))

	res, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: fri, Range: rng, Title: "Dentist"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, d(t, "2024-01-08"), res.Target)

	cb, ok := fs.Callback("cb1")
	require.True(t, ok)
	assert.Equal(t, "2024-01-08", cb.Date)

	blocks := fs.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, model.PlanningBlock{
		ID: "blk-1", OwnerID: "op1", Date: "2024-01-05", StartTime: "09:00", EndTime: "12:00",
		Kind: model.BlockUnavailability, Title: "Dentist",
	}, blocks[0])
	assert.Equal(t, blocks[0], res.Block)

	// The caller re-aggregates after the mutation.
	wk := e.Aggregate(ctx, week(t, "2024-01-01"))
	assert.Equal(t, []string{"blk-1"}, ids(wk.Day(fri)))
}

func TestScenarioHardConflictBlocks(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertSession(ctx, model.Session{ID: "s1", StartDate: "2024-01-05", EndDate: "2024-01-05", StartTime: "10:00", EndTime: "11:00", Title: "Excel"}))
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-05", Time: "09:00", ClientName: "Globex"}))
	e := newTestEngine(t, fs)

	fri := d(t, "2024-01-05")
	req := UnavailabilityRequest{Date: fri, Range: model.TimeRange{Start: 540, End: 720}}
	_, err := e.CreateUnavailability(ctx, req)

	var hard *HardConflictError
	require.ErrorAs(t, err, &hard)
	assert.Equal(t, []string{"s1"}, ids(hard.Conflicts))
	assert.Contains(t, err.Error(), "Excel")
	assert.Equal(t, 0, fs.Writes(), "nothing may be mutated")
	cb, _ := fs.Callback("cb1")
	assert.Equal(t, "2024-01-05", cb.Date)

	req.AcknowledgeHard = true
	res, err := e.CreateUnavailability(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, []string{"s1"}, ids(res.Hard))
	assert.Len(t, fs.Blocks(), 1)
}

func TestScenarioRelocateSession(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertSession(ctx, model.Session{ID: "s1", StartDate: "2024-01-02", Title: "Excel"}))
	e := newTestEngine(t, fs)

	ev := e.Aggregate(ctx, week(t, "2024-01-01")).Day(d(t, "2024-01-02"))[0]
	err := e.Relocate(ctx, model.NewRelocationCommand(ev, d(t, "2024-01-03")))
	assert.ErrorIs(t, err, ErrNotDraggable)

	// Even a forged command claiming draggability is refused.
	err = e.Relocate(ctx, model.RelocationCommand{EventID: "s1", SourceType: model.SourceSession,
		FromDate: d(t, "2024-01-02"), ToDate: d(t, "2024-01-03")})
	var relErr *RelocationError
	require.ErrorAs(t, err, &relErr)
	assert.Equal(t, RelocationNotDraggable, relErr.Kind)
	assert.Equal(t, 0, fs.Writes())
}

func TestScenarioPartialReschedule(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-05", Time: "09:30", ClientName: "Globex"}))
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb2", Date: "2024-01-05", Time: "10:30", ClientName: "Initech"}))
	fs.failUpdates["cb2"] = errStoreDown
	e := newTestEngine(t, fs)

	res, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: d(t, "2024-01-05"), Range: model.TimeRange{Start: 540, End: 720}})

	var partial *PartialRescheduleError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Moved)
	assert.Equal(t, 1, partial.Failed)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)

	cb1, _ := fs.Callback("cb1")
	cb2, _ := fs.Callback("cb2")
	assert.Equal(t, "2024-01-08", cb1.Date)
	assert.Equal(t, "2024-01-05", cb2.Date)
	assert.Len(t, fs.Blocks(), 1, "block is created despite the failed move")
}

func TestCreateUnavailabilityBlockFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.failCreate = errStoreDown
	e := newTestEngine(t, fs)

	_, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: d(t, "2024-01-03"), Range: model.TimeRange{Start: 60, End: 120}})
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, fs.Blocks())
}

func TestCreateUnavailabilityValidation(t *testing.T) {
	e := newTestEngine(t, newFakeStore())
	_, err := e.CreateUnavailability(context.Background(), UnavailabilityRequest{Date: d(t, "2024-01-03"), Range: model.TimeRange{Start: 120, End: 60}})
	assert.Error(t, err)
	_, err = e.DetectConflicts(context.Background(), model.Date{}, model.TimeRange{Start: 60, End: 120})
	assert.Error(t, err)
}

func TestCreateUnavailabilitySameTargetForAll(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-03", Time: "09:00", ClientName: "A"}))
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb2", Date: "2024-01-03", Time: "11:45", ClientName: "B"}))
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb3", Date: "2024-01-03", Time: "13:00", ClientName: "C"}))
	e := newTestEngine(t, fs)

	res, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: d(t, "2024-01-03"), Range: model.TimeRange{Start: 540, End: 720}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved)

	for id, want := range map[string]string{"cb1": "2024-01-04", "cb2": "2024-01-04", "cb3": "2024-01-03"} {
		cb, _ := fs.Callback(id)
		assert.Equal(t, want, cb.Date, id)
	}
}

func TestRelocate(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertAppointment(ctx, model.Appointment{ID: "a1", Date: "2024-01-02", Time: "10:00", ClientName: "ACME"}))
	require.NoError(t, fs.CreatePlanningBlock(ctx, model.PlanningBlock{ID: "b1", OwnerID: "op1", Date: "2024-01-02", Kind: model.BlockPhoning}))
	require.NoError(t, fs.CreatePlanningBlock(ctx, model.PlanningBlock{ID: "off", OwnerID: "op1", Date: "2024-01-02", Kind: model.BlockUnavailability}))
	e := newTestEngine(t, fs)
	base := fs.Writes()

	tue, wed := d(t, "2024-01-02"), d(t, "2024-01-03")
	evs := e.Aggregate(ctx, week(t, "2024-01-01")).Day(tue)
	require.Len(t, evs, 3)

	byID := map[string]model.CalendarEvent{}
	for _, ev := range evs {
		byID[ev.ID] = ev
	}

	t.Run("no-op", func(t *testing.T) {
		err := e.Relocate(ctx, model.NewRelocationCommand(byID["a1"], tue))
		assert.ErrorIs(t, err, ErrNoOp)
		assert.Equal(t, base, fs.Writes())
	})

	t.Run("unavailability is fixed", func(t *testing.T) {
		err := e.Relocate(ctx, model.NewRelocationCommand(byID["off"], wed))
		assert.ErrorIs(t, err, ErrNotDraggable)
		assert.Equal(t, base, fs.Writes())
	})

	t.Run("appointment moves", func(t *testing.T) {
		require.NoError(t, e.Relocate(ctx, model.NewRelocationCommand(byID["a1"], wed)))
		wk := e.Aggregate(ctx, week(t, "2024-01-01"))
		assert.Equal(t, []string{"a1"}, ids(wk.Day(wed)))
	})

	t.Run("block moves", func(t *testing.T) {
		require.NoError(t, e.Relocate(ctx, model.NewRelocationCommand(byID["b1"], wed)))
		wk := e.Aggregate(ctx, week(t, "2024-01-01"))
		assert.Equal(t, []string{"off"}, ids(wk.Day(tue)))
	})

	t.Run("persistence failure", func(t *testing.T) {
		fs.failUpdates["a1"] = errStoreDown
		defer delete(fs.failUpdates, "a1")
		err := e.Relocate(ctx, model.RelocationCommand{EventID: "a1", SourceType: model.SourceAppointment, FromDate: wed, ToDate: tue})
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, errStoreDown)
	})

	t.Run("missing record", func(t *testing.T) {
		before := fs.Writes()
		err := e.Relocate(ctx, model.RelocationCommand{EventID: "ghost", SourceType: model.SourceCallback, FromDate: wed, ToDate: tue})
		assert.ErrorIs(t, err, ErrNotDraggable)
		assert.Equal(t, before, fs.Writes())
	})
}

func TestRelocateReadsDraggabilityFromStore(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-04", Time: "09:00", ClientName: "Globex"}))
	require.NoError(t, fs.CreatePlanningBlock(ctx, model.PlanningBlock{ID: "daily", OwnerID: "op1", Date: "2024-01-01",
		StartTime: "08:00", EndTime: "08:30", Kind: model.BlockAdmin, RRule: "FREQ=DAILY;COUNT=5"}))
	e := newTestEngine(t, fs)

	fri, wed, thu := d(t, "2024-01-05"), d(t, "2024-01-03"), d(t, "2024-01-04")
	res, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: fri, Range: model.TimeRange{Start: 540, End: 600}})
	require.NoError(t, err)
	base := fs.Writes()

	t.Run("unavailability block stays put", func(t *testing.T) {
		err := e.Relocate(ctx, model.RelocationCommand{EventID: res.Block.ID, SourceType: model.SourcePlanningBlock, FromDate: fri, ToDate: wed})
		assert.ErrorIs(t, err, ErrNotDraggable)
		assert.Equal(t, fri.String(), fs.Blocks()[1].Date)
	})

	t.Run("recurring occurrence stays put", func(t *testing.T) {
		err := e.Relocate(ctx, model.RelocationCommand{EventID: "daily", SourceType: model.SourcePlanningBlock, FromDate: wed, ToDate: thu})
		assert.ErrorIs(t, err, ErrNotDraggable)
	})

	t.Run("wrong origin day", func(t *testing.T) {
		err := e.Relocate(ctx, model.RelocationCommand{EventID: "cb1", SourceType: model.SourceCallback, FromDate: wed, ToDate: thu})
		assert.ErrorIs(t, err, ErrNotDraggable)
		cb, _ := fs.Callback("cb1")
		assert.Equal(t, "2024-01-04", cb.Date)
	})

	t.Run("wrong source type", func(t *testing.T) {
		err := e.Relocate(ctx, model.RelocationCommand{EventID: "cb1", SourceType: model.SourceAppointment, FromDate: thu, ToDate: fri})
		assert.ErrorIs(t, err, ErrNotDraggable)
	})

	assert.Equal(t, base, fs.Writes())
}

func TestRelocateSourceUnavailable(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-04", ClientName: "Globex"}))
	fs.failList["callbacks"] = errStoreDown
	e := newTestEngine(t, fs)

	err := e.Relocate(ctx, model.RelocationCommand{EventID: "cb1", SourceType: model.SourceCallback,
		FromDate: d(t, "2024-01-04"), ToDate: d(t, "2024-01-05")})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, fs.Writes())
}

func TestCreateUnavailabilityWithUnreadableSessions(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertSession(ctx, model.Session{ID: "s1", StartDate: "2024-01-05", StartTime: "10:00", EndTime: "11:00", Title: "Excel"}))
	fs.failList["sessions"] = errStoreDown
	e := newTestEngine(t, fs)

	fri := d(t, "2024-01-05")
	rng := model.TimeRange{Start: 540, End: 720}

	c, err := e.DetectConflicts(ctx, fri, rng)
	require.NoError(t, err)
	assert.Empty(t, c.Hard)
	assert.True(t, c.Partial())
	assert.True(t, c.HardUnchecked())
	assert.Equal(t, []model.SourceType{model.SourceSession}, c.Unchecked)

	_, err = e.CreateUnavailability(ctx, UnavailabilityRequest{Date: fri, Range: rng})
	var hard *HardConflictError
	require.ErrorAs(t, err, &hard)
	assert.Empty(t, hard.Conflicts)
	assert.Equal(t, []model.SourceType{model.SourceSession}, hard.Unchecked)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Contains(t, err.Error(), "not checked: session")
	assert.Equal(t, 0, fs.Writes())
	assert.Empty(t, fs.Blocks())

	res, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: fri, Range: rng, AcknowledgeHard: true})
	require.NoError(t, err)
	assert.Equal(t, []model.SourceType{model.SourceSession}, res.Unchecked)
	assert.Len(t, fs.Blocks(), 1)
}

func TestCreateUnavailabilityWithUnreadableCallbacks(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-05", Time: "10:00", ClientName: "Globex"}))
	fs.failList["callbacks"] = errStoreDown
	e := newTestEngine(t, fs)

	res, err := e.CreateUnavailability(ctx, UnavailabilityRequest{Date: d(t, "2024-01-05"), Range: model.TimeRange{Start: 540, End: 720}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Moved)
	assert.Equal(t, []model.SourceType{model.SourceCallback}, res.Unchecked)
	assert.Len(t, fs.Blocks(), 1)
}

func TestAggregateSurvivesSourceFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertSession(ctx, model.Session{ID: "s1", StartDate: "2024-01-02", Title: "Excel"}))
	require.NoError(t, fs.InsertCallback(ctx, model.Callback{ID: "cb1", Date: "2024-01-02", ClientName: "ACME"}))
	fs.failList["sessions"] = errStoreDown
	fs.failList["planning_blocks"] = errors.New("timeout")

	wk := newTestEngine(t, fs).Aggregate(ctx, week(t, "2024-01-01"))
	assert.True(t, wk.Partial())
	assert.ErrorIs(t, wk.FetchErrors, errStoreDown)
	assert.Contains(t, wk.FetchErrors.Error(), "planning_block")
	assert.Equal(t, []model.SourceType{model.SourceSession, model.SourcePlanningBlock}, wk.FailedSources)
	assert.True(t, wk.SourceFailed(model.SourceSession))
	assert.False(t, wk.SourceFailed(model.SourceCallback))
	assert.Equal(t, []string{"cb1"}, ids(wk.Day(d(t, "2024-01-02"))))
}

func TestWeeklyStats(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.InsertSession(ctx, model.Session{ID: "s1", StartDate: "2024-01-02", EndDate: "2024-01-03", Amount: 800}))
	require.NoError(t, fs.InsertAppointment(ctx, model.Appointment{ID: "a1", Date: "2024-01-04"}))

	s := newTestEngine(t, fs).WeeklyStats(ctx, week(t, "2024-01-01"))
	assert.Equal(t, 1, s.Sessions)
	assert.Equal(t, 2, s.SessionDays)
	assert.Equal(t, 1, s.Appointments)
	assert.InDelta(t, 800, s.SessionValue, 0.001)
}

func TestDeleteBlock(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.CreatePlanningBlock(ctx, model.PlanningBlock{ID: "b1", Date: "2024-01-02", Kind: model.BlockTask}))
	e := newTestEngine(t, fs)

	require.NoError(t, e.DeleteBlock(ctx, "b1"))
	assert.Empty(t, fs.Blocks())
	assert.Error(t, e.DeleteBlock(ctx, "b1"))
	assert.Error(t, e.DeleteBlock(ctx, ""))
}

func TestPlanRescheduleOnlyMovesCallbacks(t *testing.T) {
	fri := d(t, "2024-01-05")
	soft := []model.CalendarEvent{
		{ID: "cb1", SourceType: model.SourceCallback, Date: fri, Draggable: true},
		{ID: "a1", SourceType: model.SourceAppointment, Date: fri, Draggable: true},
	}
	moves := PlanReschedule(fri, soft)
	require.Len(t, moves, 1)
	assert.Equal(t, "cb1", moves[0].Event.ID)
	assert.Equal(t, "cb1", moves[0].Command.EventID)
	assert.Equal(t, d(t, "2024-01-08"), moves[0].Command.ToDate)
	assert.Equal(t, fri, moves[0].Command.FromDate)
}
