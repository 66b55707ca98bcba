package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domain "github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/logger"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../../mocks/booking.go -package=mocks -mock_names=Store=MockBookingStore . Store

// Store is the part of the booking store used to create and list bookings.
type Store interface {
	GetBookingsForRoomOnDate(ctx context.Context, roomID string, date time.Time) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, details domain.Details) (domain.Booking, error)
}

//nolint:gochecknoglobals // Shared validator instance, as recommended by the library.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Service validates and stores bookings.
type Service struct {
	// store holds bookings.
	store Store
}

// NewService creates a booking service on top of store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates details against the room's bookings for the day and stores it.
// It returns a *domain.ValidationError for malformed or overlapping requests and
// a *domain.ConflictError when a concurrent writer took the slot first.
func (s *Service) Create(ctx context.Context, details domain.Details) (domain.Booking, error) {
	ctx = logger.WithKV(logger.WithName(ctx, "booking"), "room_id", details.RoomID)

	if err := checkFields(details); err != nil {
		return domain.Booking{}, err
	}

	existing, err := s.store.GetBookingsForRoomOnDate(ctx, details.RoomID, details.StartTime)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("read room schedule: %w", err)
	}

	if err = domain.Validate(domain.Intervals(existing), details.Interval()).Err(); err != nil {
		logger.InfoKV(ctx, "Booking rejected", "reason", err)

		return domain.Booking{}, err
	}

	created, err := s.store.CreateBooking(ctx, details)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	logger.InfoKV(ctx, "Booking created",
		"booking_id", created.ID,
		"lecturer_id", created.LecturerID,
		"start_time", created.StartTime,
		"end_time", created.EndTime)

	return created, nil
}

// Schedule lists the room's bookings starting on the UTC day of date.
func (s *Service) Schedule(ctx context.Context, roomID string, date time.Time) ([]domain.Booking, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, &domain.ValidationError{Reason: "room id is required"}
	}

	bookings, err := s.store.GetBookingsForRoomOnDate(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("read room schedule: %w", err)
	}

	return bookings, nil
}

// checkFields reports the first missing field as a *domain.ValidationError.
func checkFields(details domain.Details) error {
	err := validate.Struct(details)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 { //nolint:errorlint // Returned unwrapped by validator.
		return &domain.ValidationError{Reason: fieldErrs[0].Field() + " is required"}
	}

	return &domain.ValidationError{Reason: err.Error()}
}
