package ics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"planner/internal/config"
	appLog "planner/internal/log"
	"planner/internal/model"
	"planner/internal/schedule"
)

// WeekSource produces aggregated weeks; *schedule.Engine satisfies it.
type WeekSource interface {
	Aggregate(ctx context.Context, w model.WeekWindow) schedule.Week
}

// Exporter periodically writes the current week (and a few following
// ones) to an .ics file that calendar clients can subscribe to.
type Exporter struct {
	src        WeekSource
	path       string
	weeksAhead int
	loc        *time.Location
	now        func() time.Time
}

// NewExporter builds an exporter writing to path.
func NewExporter(src WeekSource, path string, weeksAhead int, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	if weeksAhead < 0 {
		weeksAhead = 0
	}
	return &Exporter{
		src:        src,
		path:       path,
		weeksAhead: weeksAhead,
		loc:        loc,
		now:        time.Now,
	}
}

// Windows returns the weeks covered by an export started at now.
func (x *Exporter) Windows(now time.Time) []model.WeekWindow {
	w := model.WeekOf(model.DateOf(now.In(x.loc)))
	out := make([]model.WeekWindow, 0, x.weeksAhead+1)
	for i := 0; i <= x.weeksAhead; i++ {
		out = append(out, w)
		w = w.Next()
	}
	return out
}

// RunOnce exports the weeks around the current time.
func (x *Exporter) RunOnce(ctx context.Context) error {
	return x.RunAt(ctx, x.now())
}

// RunAt aggregates the weeks covered at now and rewrites the export file.
// Weeks with failed sources are still written; the failure is logged.
func (x *Exporter) RunAt(ctx context.Context, now time.Time) error {
	if x.path == "" {
		return errors.New("ics export: path is empty")
	}

	windows := x.Windows(now)
	weeks := make([]schedule.Week, 0, len(windows))
	events := 0
	for _, w := range windows {
		wk := x.src.Aggregate(ctx, w)
		if wk.Partial() {
			appLog.Error("ics export: week is partial", wk.FetchErrors, "week", w.String())
		}
		for _, d := range wk.Days {
			events += len(d.Events)
		}
		weeks = append(weeks, wk)
	}

	body := Serialize(weeks, Options{Name: "Planner", Location: x.loc, Now: x.now()})

	if err := os.MkdirAll(filepath.Dir(x.path), 0o700); err != nil {
		return err
	}
	if err := config.WriteFileAtomic(x.path, []byte(body)); err != nil {
		return err
	}

	appLog.Info("ics export written", "path", x.path, "weeks", len(weeks), "events", events)
	return nil
}

// Start schedules RunOnce on a cron expression until ctx is cancelled. An
// empty expression disables the schedule.
func (x *Exporter) Start(ctx context.Context, expr string) error {
	if expr == "" {
		appLog.Info("ics export schedule disabled")
		return nil
	}

	c := cron.New(cron.WithLocation(x.loc))
	_, err := c.AddFunc(expr, func() {
		if err := x.RunOnce(ctx); err != nil {
			appLog.Error("ics export failed", err, "path", x.path)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	appLog.Info("ics export scheduled", "cron", expr, "path", x.path)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("ics export scheduler stopped")
	}()
	return nil
}
