package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/service/booking"
	"github.com/oshokin/room-automation/internal/service/common"
)

var (
	// lecturerID overrides the detected OS user.
	lecturerID string
	// courseTitle is the lecture title.
	courseTitle string
	// startTime is the lecture start in RFC 3339.
	startTime string
	// endTime is the lecture end in RFC 3339.
	endTime string

	createCmd = &cobra.Command{
		Use:   "create <room-id>",
		Short: "Book a room for a lecture.",
		Long: `Books the room for the given time range.

Times use RFC 3339, for example 2026-03-02T09:00:00Z.
The lecturer defaults to the login name of the current OS user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			start, err := time.Parse(time.RFC3339, startTime)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}

			end, err := time.Parse(time.RFC3339, endTime)
			if err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}

			lecturer := lecturerID
			if lecturer == "" {
				if lecturer, err = common.DetectLecturer(); err != nil {
					return err
				}
			}

			return booking.RunCreate(ctx, &booking.CreateOptions{
				ConfigPath: configPath,
				Details: domain.Details{
					RoomID:      args[0],
					LecturerID:  lecturer,
					CourseTitle: courseTitle,
					StartTime:   start,
					EndTime:     end,
				},
			}, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	createCmd.Flags().StringVarP(&lecturerID, "lecturer", "l", "", "lecturer id (defaults to the current OS user)")
	createCmd.Flags().StringVarP(&courseTitle, "course", "t", "", "course title")
	createCmd.Flags().StringVarP(&startTime, "start", "s", "", "lecture start, RFC 3339")
	createCmd.Flags().StringVarP(&endTime, "end", "e", "", "lecture end, RFC 3339")

	for _, name := range []string{"course", "start", "end"} {
		if err := createCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(createCmd)
}
