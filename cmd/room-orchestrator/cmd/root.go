package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/service/workflow"
	"github.com/oshokin/room-automation/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the orchestrator daemon.
	rootCmd = &cobra.Command{
		Use:   "room-orchestrator",
		Short: "Prepare rooms for lectures and secure them afterwards.",
		Long: `Consumes prepare-room events from the queue. For each event the room is
unlocked and powered on, then after the lecture ends the occupancy sensor is
polled until the room is empty, at which point devices are switched off and
the door is locked.

Activations live in memory only and are abandoned on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return workflow.Run(ctx, &workflow.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the room-orchestrator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
