package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appLog "planner/internal/log"
)

const version = "0.1.0"

func main() {
	defer appLog.Sync()
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Weekly planner for training sessions, appointments and callbacks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "./planner.yaml", "Path to config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newWeekCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newSeedCmd(&configPath))
	return root
}
