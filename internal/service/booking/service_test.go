package booking

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/room-automation/internal/config"
	domain "github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/mocks"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func details(startHour, endHour int) domain.Details {
	return domain.Details{
		RoomID:      "A-101",
		LecturerID:  "lecturer-1",
		CourseTitle: "Databases",
		StartTime:   day.Add(time.Duration(startHour) * time.Hour),
		EndTime:     day.Add(time.Duration(endHour) * time.Hour),
	}
}

func existing(startHour, endHour int) domain.Booking {
	d := details(startHour, endHour)

	return domain.Booking{
		ID:          "existing",
		RoomID:      d.RoomID,
		LecturerID:  "lecturer-2",
		CourseTitle: "Algebra",
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
	}
}

func TestService_CreateStoresValidBooking(t *testing.T) {
	t.Parallel()

	var (
		ctrl  = gomock.NewController(t)
		store = mocks.NewMockBookingStore(ctrl)
		req   = details(11, 12)
	)

	gomock.InOrder(
		store.EXPECT().
			GetBookingsForRoomOnDate(gomock.Any(), "A-101", req.StartTime).
			Return([]domain.Booking{existing(9, 11), existing(12, 13)}, nil),
		store.EXPECT().
			CreateBooking(gomock.Any(), req).
			Return(domain.Booking{ID: "new", RoomID: req.RoomID, StartTime: req.StartTime, EndTime: req.EndTime}, nil),
	)

	created, err := NewService(store).Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "new", created.ID)
}

func TestService_CreateRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    domain.Details
		reason string
	}{
		{
			name: "missing room",
			req: func() domain.Details {
				d := details(9, 10)
				d.RoomID = ""

				return d
			}(),
			reason: "RoomID is required",
		},
		{
			name: "missing start",
			req: func() domain.Details {
				d := details(9, 10)
				d.StartTime = time.Time{}

				return d
			}(),
			reason: "StartTime is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := mocks.NewMockBookingStore(gomock.NewController(t))

			_, err := NewService(store).Create(context.Background(), tt.req)
			require.ErrorIs(t, err, domain.ErrValidation)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tt.reason, validationErr.Reason)
		})
	}
}

func TestService_CreateRejectsOverlapWithoutWriting(t *testing.T) {
	t.Parallel()

	var (
		ctrl  = gomock.NewController(t)
		store = mocks.NewMockBookingStore(ctrl)
	)

	store.EXPECT().
		GetBookingsForRoomOnDate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]domain.Booking{existing(9, 11)}, nil)

	_, err := NewService(store).Create(context.Background(), details(10, 12))
	require.ErrorIs(t, err, domain.ErrValidation)
	require.NotErrorIs(t, err, domain.ErrConflict)
	require.Contains(t, err.Error(), "conflicts with an existing booking")
}

func TestService_CreateRejectsEndBeforeStart(t *testing.T) {
	t.Parallel()

	var (
		ctrl  = gomock.NewController(t)
		store = mocks.NewMockBookingStore(ctrl)
	)

	store.EXPECT().GetBookingsForRoomOnDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := NewService(store).Create(context.Background(), details(12, 10))
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Contains(t, err.Error(), domain.ReasonEndBeforeStart)
}

func TestService_CreateReportsLostRace(t *testing.T) {
	t.Parallel()

	var (
		ctrl  = gomock.NewController(t)
		store = mocks.NewMockBookingStore(ctrl)
		req   = details(9, 10)
	)

	store.EXPECT().GetBookingsForRoomOnDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	store.EXPECT().
		CreateBooking(gomock.Any(), req).
		Return(domain.Booking{}, &domain.ConflictError{RoomID: req.RoomID, StartTime: req.StartTime})

	_, err := NewService(store).Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.NotErrorIs(t, err, domain.ErrValidation)
}

func TestService_CreateStoreFailure(t *testing.T) {
	t.Parallel()

	var (
		ctrl  = gomock.NewController(t)
		store = mocks.NewMockBookingStore(ctrl)
		boom  = errors.New("disk I/O error")
	)

	store.EXPECT().GetBookingsForRoomOnDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := NewService(store).Create(context.Background(), details(9, 10))
	require.ErrorIs(t, err, boom)
}

func TestService_Schedule(t *testing.T) {
	t.Parallel()

	var (
		ctrl     = gomock.NewController(t)
		store    = mocks.NewMockBookingStore(ctrl)
		bookings = []domain.Booking{existing(9, 10), existing(14, 15)}
	)

	store.EXPECT().GetBookingsForRoomOnDate(gomock.Any(), "A-101", day).Return(bookings, nil)

	svc := NewService(store)

	got, err := svc.Schedule(context.Background(), "A-101", day)
	require.NoError(t, err)
	require.Equal(t, bookings, got)

	_, err = svc.Schedule(context.Background(), " ", day)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRunCreateAndSchedule(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		dir     = t.TempDir()
		cfgPath = filepath.Join(dir, "settings.yaml")
	)

	require.NoError(t, config.Save(cfgPath, &config.Config{
		Store: config.Store{Driver: config.DriverSQLite, Path: filepath.Join(dir, "rooms.db")},
	}))

	var out bytes.Buffer

	require.NoError(t, RunCreate(ctx, &CreateOptions{ConfigPath: cfgPath, Details: details(9, 10)}, &out))
	require.Contains(t, out.String(), "Booked ")

	err := RunCreate(ctx, &CreateOptions{ConfigPath: cfgPath, Details: details(9, 11)}, &out)
	require.ErrorIs(t, err, domain.ErrValidation)

	out.Reset()
	require.NoError(t, RunSchedule(ctx, &ScheduleOptions{ConfigPath: cfgPath, RoomID: "A-101", Date: day}, &out))
	require.Contains(t, out.String(), "2026-03-02T09:00:00Z-10:00:00")
	require.Contains(t, out.String(), `"Databases" by lecturer-1`)

	out.Reset()
	require.NoError(t, RunSchedule(ctx, &ScheduleOptions{ConfigPath: cfgPath, RoomID: "B-202", Date: day}, &out))
	require.Equal(t, "No bookings for B-202 on 2026-03-02\n", out.String())
}
