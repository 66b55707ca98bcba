package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/service/scheduler"
	"github.com/oshokin/room-automation/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the scheduler daemon.
	rootCmd = &cobra.Command{
		Use:   "room-scheduler",
		Short: "Announce upcoming bookings to the room workflow queue.",
		Long: `Polls the booking store and publishes a prepare-room event for every booking
that starts within the lookahead window and has not been announced yet.

Each announcement is recorded in the ledger after the broker accepts it.
The daemon exits with a non-zero status when the broker connection is lost.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return scheduler.Run(ctx, &scheduler.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the room-scheduler CLI and exits with non-zero status on error.
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
