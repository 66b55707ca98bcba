package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/room-automation/internal/clock"
	"github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/domain/room"
	"github.com/oshokin/room-automation/internal/mocks"
	repository "github.com/oshokin/room-automation/internal/repository/booking"
)

var now = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func upcoming(id, roomID string, in time.Duration) booking.Booking {
	return booking.Booking{
		ID:          id,
		RoomID:      roomID,
		LecturerID:  "lecturer-1",
		CourseTitle: "Operating Systems",
		StartTime:   now.Add(in),
		EndTime:     now.Add(in + time.Hour),
	}
}

// eventFor matches a published body announcing b.
func eventFor(b booking.Booking) gomock.Matcher {
	return gomock.Cond(func(body []byte) bool {
		event, err := room.DecodePrepareRoomEvent(body)

		return err == nil &&
			event.BookingID == b.ID &&
			event.RoomID == b.RoomID &&
			event.StartTime.Equal(b.StartTime)
	})
}

func newPoller(store Store, publisher Publisher, clk clock.Clock) *Poller {
	return NewPoller(PollerOptions{
		Store:           store,
		Publisher:       publisher,
		Clock:           clk,
		PollInterval:    30 * time.Second,
		LookaheadWindow: 15 * time.Minute,
	})
}

func TestPoller_TickPublishesThenRecords(t *testing.T) {
	t.Parallel()

	var (
		ctrl      = gomock.NewController(t)
		store     = mocks.NewMockStore(ctrl)
		publisher = mocks.NewMockPublisher(ctrl)
		first     = upcoming("b-1", "A-101", 5*time.Minute)
		second    = upcoming("b-2", "B-202", 10*time.Minute)
	)

	store.EXPECT().
		FindUpcomingBookings(gomock.Any(), now, now.Add(15*time.Minute)).
		Return([]booking.Booking{first, second}, nil)

	gomock.InOrder(
		publisher.EXPECT().Publish(gomock.Any(), eventFor(first)).Return(nil),
		store.EXPECT().RecordAnnounced(gomock.Any(), "b-1", now).Return(nil),
		publisher.EXPECT().Publish(gomock.Any(), eventFor(second)).Return(nil),
		store.EXPECT().RecordAnnounced(gomock.Any(), "b-2", now).Return(nil),
	)

	report := newPoller(store, publisher, clock.Fake(now)).Tick(context.Background())
	require.Equal(t, TickReport{Found: 2, Published: 2, Recorded: 2}, report)
}

func TestPoller_TickPublishFailureSkipsLedger(t *testing.T) {
	t.Parallel()

	var (
		ctrl      = gomock.NewController(t)
		store     = mocks.NewMockStore(ctrl)
		publisher = mocks.NewMockPublisher(ctrl)
		first     = upcoming("b-1", "A-101", 5*time.Minute)
		second    = upcoming("b-2", "B-202", 10*time.Minute)
	)

	store.EXPECT().FindUpcomingBookings(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]booking.Booking{first, second}, nil)
	publisher.EXPECT().Publish(gomock.Any(), eventFor(first)).Return(errors.New("channel closed"))
	publisher.EXPECT().Publish(gomock.Any(), eventFor(second)).Return(nil)
	store.EXPECT().RecordAnnounced(gomock.Any(), "b-2", gomock.Any()).Return(nil)

	report := newPoller(store, publisher, clock.Fake(now)).Tick(context.Background())
	require.Equal(t, TickReport{Found: 2, Published: 1, Recorded: 1, Failed: 1}, report)
}

func TestPoller_TickLedgerFailureContinues(t *testing.T) {
	t.Parallel()

	var (
		ctrl      = gomock.NewController(t)
		store     = mocks.NewMockStore(ctrl)
		publisher = mocks.NewMockPublisher(ctrl)
		first     = upcoming("b-1", "A-101", 5*time.Minute)
		second    = upcoming("b-2", "B-202", 10*time.Minute)
	)

	store.EXPECT().FindUpcomingBookings(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]booking.Booking{first, second}, nil)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	store.EXPECT().RecordAnnounced(gomock.Any(), "b-1", gomock.Any()).Return(errors.New("database is locked"))
	store.EXPECT().RecordAnnounced(gomock.Any(), "b-2", gomock.Any()).Return(nil)

	report := newPoller(store, publisher, clock.Fake(now)).Tick(context.Background())
	require.Equal(t, TickReport{Found: 2, Published: 2, Recorded: 1, Failed: 1}, report)
}

func TestPoller_TickQueryFailure(t *testing.T) {
	t.Parallel()

	var (
		ctrl      = gomock.NewController(t)
		store     = mocks.NewMockStore(ctrl)
		publisher = mocks.NewMockPublisher(ctrl)
	)

	store.EXPECT().FindUpcomingBookings(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no such table: bookings"))

	report := newPoller(store, publisher, clock.Fake(now)).Tick(context.Background())
	require.Equal(t, TickReport{}, report)
}

func TestPoller_TickRecoversFromPanic(t *testing.T) {
	t.Parallel()

	var (
		ctrl      = gomock.NewController(t)
		store     = mocks.NewMockStore(ctrl)
		publisher = mocks.NewMockPublisher(ctrl)
	)

	store.EXPECT().FindUpcomingBookings(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]booking.Booking{upcoming("b-1", "A-101", time.Minute)}, nil)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []byte) error { panic("nil channel") })

	require.NotPanics(t, func() {
		newPoller(store, publisher, clock.Fake(now)).Tick(context.Background())
	})
}

// recordingPublisher keeps every published body.
type recordingPublisher struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bodies = append(p.bodies, body)

	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.bodies)
}

func TestPoller_AnnouncedBookingIsNotRepublished(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := repository.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "rooms.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	created, err := store.CreateBooking(ctx, booking.Details{
		RoomID:      "A-101",
		LecturerID:  "lecturer-1",
		CourseTitle: "Networks",
		StartTime:   now.Add(5 * time.Minute),
		EndTime:     now.Add(65 * time.Minute),
	})
	require.NoError(t, err)

	var (
		clk       = clock.Fake(now)
		publisher = &recordingPublisher{}
		poller    = newPoller(store, publisher, clk)
	)

	require.Equal(t, TickReport{Found: 1, Published: 1, Recorded: 1}, poller.Tick(ctx))

	clk.Advance(30 * time.Second)
	require.Equal(t, TickReport{}, poller.Tick(ctx))
	require.Equal(t, 1, publisher.count())

	event, err := room.DecodePrepareRoomEvent(publisher.bodies[0])
	require.NoError(t, err)
	require.Equal(t, created.ID, event.BookingID)
}

// blockingStore holds every query until released.
type blockingStore struct {
	mu      sync.Mutex
	queries int
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) FindUpcomingBookings(ctx context.Context, _, _ time.Time) ([]booking.Booking, error) {
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	s.started <- struct{}{}

	select {
	case <-s.release:
	case <-ctx.Done():
	}

	return nil, nil
}

func (s *blockingStore) RecordAnnounced(context.Context, string, time.Time) error {
	return nil
}

func (s *blockingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queries
}

func TestPoller_RunSkipsOverlappingTicks(t *testing.T) {
	t.Parallel()

	var (
		clk   = clock.Fake(now)
		store = &blockingStore{
			started: make(chan struct{}, 4),
			release: make(chan struct{}),
		}
		poller      = newPoller(store, &recordingPublisher{}, clk)
		ctx, cancel = context.WithCancel(context.Background())
		done        = make(chan error, 1)
	)

	go func() {
		done <- poller.Run(ctx)
	}()

	// The first tick runs immediately and blocks in the store.
	<-store.started
	clk.WaitForTimers(1)

	clk.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return poller.Skipped() == 1 }, 5*time.Second, time.Millisecond)

	clk.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return poller.Skipped() == 2 }, 5*time.Second, time.Millisecond)
	require.Equal(t, 1, store.count())

	// Once the slow tick finishes the next one runs normally.
	store.release <- struct{}{}
	require.Eventually(t, func() bool { return !poller.running.Load() }, 5*time.Second, time.Millisecond)

	clk.Advance(30 * time.Second)
	<-store.started
	require.Equal(t, 2, store.count())

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, int64(2), poller.Skipped())
}
