package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd groups the booking subcommands.
	rootCmd = &cobra.Command{
		Use:   "room-booking",
		Short: "Book lecture rooms and list room schedules.",
		Long: `Creates bookings in the shared booking store and prints room schedules.

A booking is rejected when it does not end after it starts or when it overlaps
another booking of the same room. Bookings that touch at a boundary are allowed.`,
		SilenceUsage: true,
	}
)

// Execute runs the room-booking CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
