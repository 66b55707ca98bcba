package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/room-automation/internal/config"
	domain "github.com/oshokin/room-automation/internal/domain/booking"
)

// Store is the booking store together with the announcement ledger.
type Store interface {
	// GetBookingsForRoomOnDate returns the room's bookings starting on the UTC calendar day of date.
	GetBookingsForRoomOnDate(ctx context.Context, roomID string, date time.Time) ([]domain.Booking, error)
	// CreateBooking stores a booking, or returns *domain.ConflictError when the slot is taken.
	CreateBooking(ctx context.Context, details domain.Details) (domain.Booking, error)
	// FindUpcomingBookings returns unannounced bookings starting in [from, to).
	FindUpcomingBookings(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	// RecordAnnounced marks a booking as announced. Repeated calls are no-ops.
	RecordAnnounced(ctx context.Context, bookingID string, at time.Time) error
	// Close releases the underlying database handles.
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return NewSQLiteStore(ctx, cfg.Path)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// dayBounds returns the UTC calendar day containing t as [start, end).
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return start, start.AddDate(0, 0, 1)
}
