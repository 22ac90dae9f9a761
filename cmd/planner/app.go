package main

import (
	"context"
	"time"

	"planner/internal/config"
	appLog "planner/internal/log"
	"planner/internal/model"
	"planner/internal/schedule"
	"planner/internal/store"
	"planner/internal/web"
)

// backend is what every store implementation offers the CLI.
type backend interface {
	schedule.Store
	store.Seeder
}

var (
	_ backend = (*store.SQLStore)(nil)
	_ backend = (*store.Memory)(nil)
)

type app struct {
	cfg     *config.Config
	backend backend
	engine  *schedule.Engine
	health  web.HealthFunc
	loc     *time.Location
	closeFn func() error
}

// loadApp reads the config, applies env overrides and opens the store.
func loadApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		loc:     web.ResolveLocation(cfg.Timezone),
		closeFn: func() error { return nil },
	}

	if cfg.Database.Driver == store.DriverMemory {
		appLog.Info("using in-memory store; data is lost on exit")
		a.backend = store.NewMemory()
	} else {
		s, err := store.OpenSQL(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.backend = s
		a.health = s.Health
		a.closeFn = s.Close
	}

	a.engine = schedule.NewEngine(a.backend,
		schedule.WithOwner(cfg.OwnerID),
		schedule.WithDurations(schedule.Durations{
			AppointmentMinutes: cfg.Durations.AppointmentMinutes,
			CallbackMinutes:    cfg.Durations.CallbackMinutes,
		}),
	)

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", a.loc.String(),
		"owner_id", cfg.OwnerID,
		"db_driver", cfg.Database.Driver,
		"export_cron", cfg.Export.Cron,
		"export_path", cfg.Export.Path,
	)
	return a, nil
}

func (a *app) Close() {
	if err := a.closeFn(); err != nil {
		appLog.Error("failed to close store", err)
	}
}

// weekAt resolves a --date flag value; empty means the current week.
func (a *app) weekAt(raw string) (model.WeekWindow, error) {
	if raw == "" {
		return model.WeekOf(model.DateOf(time.Now().In(a.loc))), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.WeekWindow{}, err
	}
	return model.WeekOf(d), nil
}
