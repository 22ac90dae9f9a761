package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	appLog "planner/internal/log"
	"planner/internal/model"
)

// Engine reconciles the four record stores into week views and routes
// mutations back to them. It keeps no state between calls: every operation
// re-reads the stores, so callers simply call Aggregate again after a
// successful mutation.
type Engine struct {
	store     Store
	ownerID   string
	durations Durations
	newID     func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithOwner scopes planning blocks to one operator.
func WithOwner(id string) Option {
	return func(e *Engine) { e.ownerID = id }
}

// WithDurations overrides the default appointment and callback lengths.
func WithDurations(d Durations) Option {
	return func(e *Engine) { e.durations = d.normalized() }
}

// WithIDGenerator replaces the UUID generator used for new blocks.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		durations: Durations{}.normalized(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fetch reads the raw records of w from all four stores concurrently. A
// failing source is logged and left empty; the combined failures are
// returned alongside the partial snapshot and named in Snapshot.Failed.
//
// The group is used for fan-out only: each listing records its error in its
// own slot and never fails the group, so one broken source cannot cancel or
// hide the others.
func (e *Engine) Fetch(ctx context.Context, w model.WeekWindow) (Snapshot, error) {
	var (
		snap Snapshot
		errs [4]error
		g    errgroup.Group
	)
	from, to := w.Monday, w.End()

	// Indexed by model.SourceType.
	listings := [...]func() error{
		model.SourceSession: func() (err error) {
			snap.Sessions, err = e.store.ListSessions(ctx, from, to)
			return err
		},
		model.SourceAppointment: func() (err error) {
			snap.Appointments, err = e.store.ListAppointments(ctx, from, to)
			return err
		},
		model.SourceCallback: func() (err error) {
			snap.Callbacks, err = e.store.ListCallbacks(ctx, from, to)
			return err
		},
		model.SourcePlanningBlock: func() (err error) {
			snap.Blocks, err = e.store.ListPlanningBlocks(ctx, e.ownerID, from, to)
			return err
		},
	}
	for i, list := range listings {
		g.Go(func() error {
			errs[i] = list()
			return nil
		})
	}
	_ = g.Wait()

	var combined error
	for i, err := range errs {
		if err == nil {
			continue
		}
		st := model.SourceType(i)
		appLog.Error("source fetch failed; rendering without it", err, "source", st.String(), "week", w.String())
		combined = multierr.Append(combined, fmt.Errorf("list %s: %w", st, err))
		snap.Failed = append(snap.Failed, st)
		switch st {
		case model.SourceSession:
			snap.Sessions = nil
		case model.SourceAppointment:
			snap.Appointments = nil
		case model.SourceCallback:
			snap.Callbacks = nil
		case model.SourcePlanningBlock:
			snap.Blocks = nil
		}
	}
	return snap, combined
}

// Aggregate returns the week view of w. Source failures never abort the
// pass; they are reported through Week.FetchErrors.
func (e *Engine) Aggregate(ctx context.Context, w model.WeekWindow) Week {
	snap, err := e.Fetch(ctx, w)
	week := BuildWeek(w, snap, e.durations)
	week.FetchErrors = err
	appLog.Debug("week aggregated", "week", w.String(), "partial", err != nil)
	return week
}

// DetectConflicts checks a candidate unavailability range against the
// current state of date's week. Sources that could not be listed are
// reported in Conflicts.Unchecked instead of being read as conflict-free.
func (e *Engine) DetectConflicts(ctx context.Context, date model.Date, rng model.TimeRange) (Conflicts, error) {
	if !date.IsValid() {
		return Conflicts{}, fmt.Errorf("detect conflicts: invalid date %v", date)
	}
	if !rng.Valid() {
		return Conflicts{}, fmt.Errorf("detect conflicts: empty range %s", rng)
	}
	week := e.Aggregate(ctx, model.WeekOf(date))
	c := DetectConflicts(rng, week.Day(date))
	c.Unchecked = week.FailedSources
	c.FetchErrors = week.FetchErrors
	return c, nil
}

// WeeklyStats aggregates w and reduces it to a summary.
func (e *Engine) WeeklyStats(ctx context.Context, w model.WeekWindow) StatsSummary {
	return ComputeStats(e.Aggregate(ctx, w))
}

// DeleteBlock removes a planning block.
func (e *Engine) DeleteBlock(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete block: %w", errMissingID)
	}
	if err := e.store.DeletePlanningBlock(ctx, id); err != nil {
		return fmt.Errorf("delete block %s: %w", id, err)
	}
	appLog.Info("planning block deleted", "id", id)
	return nil
}
