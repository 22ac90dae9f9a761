package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"planner/internal/ics"
	appLog "planner/internal/log"
	"planner/internal/model"
	"planner/internal/schedule"
	"planner/internal/store"
	"planner/internal/web"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic ICS export",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				a.cfg.Listen = listen
			}

			exporter := ics.NewExporter(a.engine, a.cfg.Export.Path, a.cfg.Export.WeeksAhead, a.loc)
			if err := exporter.Start(ctx, a.cfg.Export.Cron); err != nil {
				return fmt.Errorf("invalid export schedule %q: %w", a.cfg.Export.Cron, err)
			}

			appLog.Info("planner starting", "version", version)
			err = web.NewServer(a.cfg, a.engine, a.health).Run(ctx)
			appLog.Info("planner exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func newWeekCmd(configPath *string) *cobra.Command {
	var date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the aggregated week and its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			win, err := a.weekAt(date)
			if err != nil {
				return err
			}
			week := a.engine.Aggregate(ctx, win)
			stats := schedule.ComputeStats(week)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Week  schedule.Week         `json:"week"`
					Stats schedule.StatsSummary `json:"stats"`
				}{week, stats})
			}
			return printWeek(out, week, stats)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Any date of the week to show (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printWeek(out io.Writer, week schedule.Week, stats schedule.StatsSummary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, day := range week.Days {
		fmt.Fprintf(tw, "%s %s\n", model.Weekday(day.Date).String()[:3], day.Date)
		if len(day.Events) == 0 {
			fmt.Fprintln(tw, "\t-\t\t")
		}
		for _, ev := range day.Events {
			slot := "all day"
			if ev.Range != nil {
				slot = ev.Range.String()
			}
			title := ev.Title
			if ev.Subtitle != "" {
				title += " (" + ev.Subtitle + ")"
			}
			fmt.Fprintf(tw, "\t%s\t%s\t%s\n", slot, ev.SourceType, title)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nsessions %d (%d days, %.2f)  appointments %d  callbacks %d  blocks %d (%d unavailable)  busy %d  free %d\n",
		stats.Sessions, stats.SessionDays, stats.SessionValue, stats.Appointments, stats.Callbacks,
		stats.PlanningBlocks, stats.Unavailabilities, stats.BusyDays, stats.FreeDays)
	if week.Partial() {
		fmt.Fprintf(out, "warning: some sources failed: %v\n", week.FetchErrors)
	}
	return nil
}

func newExportCmd(configPath *string) *cobra.Command {
	var date, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ICS export once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			win, err := a.weekAt(date)
			if err != nil {
				return err
			}

			if outPath == "-" {
				week := a.engine.Aggregate(ctx, win)
				body := ics.Serialize([]schedule.Week{week}, ics.Options{Name: "Planner", Location: a.loc})
				_, err := io.WriteString(cmd.OutOrStdout(), body)
				return err
			}
			if outPath == "" {
				outPath = a.cfg.Export.Path
			}
			exporter := ics.NewExporter(a.engine, outPath, a.cfg.Export.WeeksAhead, a.loc)
			return exporter.RunAt(ctx, win.Monday.In(a.loc))
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Any date of the first exported week (default today)")
	cmd.Flags().StringVar(&outPath, "out", "", `Output file ("-" for stdout, default export.path)`)
	return cmd
}

func newSeedCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load records from a YAML fixture into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(file) == "" {
				return fmt.Errorf("--file is required")
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Database.Driver == store.DriverMemory {
				fmt.Fprintln(os.Stderr, "warning: seeding the in-memory store has no lasting effect")
			}

			f, err := store.LoadFixture(file)
			if err != nil {
				return err
			}
			n, err := store.Seed(ctx, a.backend, f)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture path")
	return cmd
}
