package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-automation/internal/service/booking"
)

var (
	// scheduleDate selects the UTC day to list.
	scheduleDate string

	scheduleCmd = &cobra.Command{
		Use:   "schedule <room-id>",
		Short: "List a room's bookings for one day.",
		Long:  "Lists the bookings of the room that start on the given UTC day (YYYY-MM-DD, today by default).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			date := time.Now().UTC()

			if scheduleDate != "" {
				var err error
				if date, err = time.Parse(time.DateOnly, scheduleDate); err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
			}

			return booking.RunSchedule(ctx, &booking.ScheduleOptions{
				ConfigPath: configPath,
				RoomID:     args[0],
				Date:       date,
			}, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	scheduleCmd.Flags().StringVarP(&scheduleDate, "date", "d", "", "day to list, YYYY-MM-DD (UTC)")

	rootCmd.AddCommand(scheduleCmd)
}
