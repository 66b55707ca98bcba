package booking

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/room-automation/internal/config"
	domain "github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/logger"
	repository "github.com/oshokin/room-automation/internal/repository/booking"
)

// CreateOptions controls the room-booking create command.
type CreateOptions struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// Details is the booking to create.
	Details domain.Details
}

// ScheduleOptions controls the room-booking schedule command.
type ScheduleOptions struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// RoomID is the room to list.
	RoomID string
	// Date selects the UTC calendar day.
	Date time.Time
}

// RunCreate books a room and prints the created booking to out.
func RunCreate(ctx context.Context, opts *CreateOptions, out io.Writer) error {
	ctx = logger.WithName(ctx, "room-booking")

	store, err := openStore(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer closeStore(ctx, store)

	created, err := NewService(store).Create(ctx, opts.Details)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Booked %s\n", formatBooking(created))

	return err
}

// RunSchedule prints the room's bookings for the day to out.
func RunSchedule(ctx context.Context, opts *ScheduleOptions, out io.Writer) error {
	ctx = logger.WithName(ctx, "room-booking")

	store, err := openStore(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer closeStore(ctx, store)

	bookings, err := NewService(store).Schedule(ctx, opts.RoomID, opts.Date)
	if err != nil {
		return err
	}

	if len(bookings) == 0 {
		_, err = fmt.Fprintf(out, "No bookings for %s on %s\n", opts.RoomID, opts.Date.UTC().Format(time.DateOnly))

		return err
	}

	for _, b := range bookings {
		if _, err = fmt.Fprintln(out, formatBooking(b)); err != nil {
			return err
		}
	}

	return nil
}

func openStore(ctx context.Context, configPath string) (repository.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open booking store: %w", err)
	}

	return store, nil
}

func closeStore(ctx context.Context, store repository.Store) {
	if err := store.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to close booking store", "error", err)
	}
}

// formatBooking renders one schedule line.
func formatBooking(b domain.Booking) string {
	return fmt.Sprintf("%s  %s-%s  room %s  %q by %s",
		b.ID,
		b.StartTime.UTC().Format(time.RFC3339),
		b.EndTime.UTC().Format(time.TimeOnly),
		b.RoomID,
		b.CourseTitle,
		b.LecturerID)
}
