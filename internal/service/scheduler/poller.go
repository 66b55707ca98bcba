package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oshokin/room-automation/internal/clock"
	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/domain/room"
	"github.com/oshokin/room-automation/internal/logger"
	"github.com/oshokin/room-automation/internal/telemetry"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../../mocks/scheduler.go -package=mocks . Store,Publisher

// ErrLedgerWrite wraps failures to record an announcement. The booking stays
// unannounced and is published again on a later tick.
var ErrLedgerWrite = errors.New("ledger write failed")

// Store is the part of the booking store the poller reads and writes.
type Store interface {
	FindUpcomingBookings(ctx context.Context, from, to time.Time) ([]booking.Booking, error)
	RecordAnnounced(ctx context.Context, bookingID string, at time.Time) error
}

// Publisher sends announcements to the queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// TickReport summarizes one tick.
type TickReport struct {
	// Found is the number of unannounced bookings in the window.
	Found int
	// Published is the number of events accepted by the broker.
	Published int
	// Recorded is the number of ledger entries written.
	Recorded int
	// Failed is the number of bookings left for a later tick.
	Failed int
}

// PollerOptions configure a Poller.
type PollerOptions struct {
	Store           Store
	Publisher       Publisher
	Clock           clock.Clock
	PollInterval    time.Duration
	LookaheadWindow time.Duration
}

// Poller announces bookings that start within the lookahead window.
type Poller struct {
	// store finds bookings and records announcements.
	store Store
	// publisher sends PrepareRoomEvents.
	publisher Publisher
	// clock drives the tick schedule.
	clock clock.Clock
	// interval is the time between ticks.
	interval time.Duration
	// lookahead is the width of the search window.
	lookahead time.Duration

	// running is set while a tick is in progress.
	running atomic.Bool
	// skipped counts ticks dropped because the previous one was still running.
	skipped atomic.Int64
	// wg tracks tick goroutines.
	wg sync.WaitGroup
}

// NewPoller creates a poller. Zero durations fall back to the defaults.
func NewPoller(opts PollerOptions) *Poller {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultPollInterval
	}

	if opts.LookaheadWindow <= 0 {
		opts.LookaheadWindow = config.DefaultLookaheadWindow
	}

	return &Poller{
		store:     opts.Store,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		interval:  opts.PollInterval,
		lookahead: opts.LookaheadWindow,
	}
}

// Run ticks immediately and then every poll interval until ctx is canceled.
// A tick that is due while the previous one still runs is skipped.
func (p *Poller) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()

			return nil
		case <-ticker.C:
			p.trigger(ctx)
		}
	}
}

// Skipped returns how many ticks were dropped so far.
func (p *Poller) Skipped() int64 {
	return p.skipped.Load()
}

func (p *Poller) trigger(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		logger.Warn(ctx, "Previous tick is still running, skipping this one")

		return
	}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)

		p.Tick(ctx)
	}()
}

// Tick announces every unannounced booking starting in [now, now+lookahead).
// Each booking is published first and recorded second; failures are logged
// and never stop the remaining bookings. Tick does not panic.
func (p *Poller) Tick(ctx context.Context) (report TickReport) {
	ctx, span := telemetry.Tracer().Start(ctx, "scheduler tick")

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Tick panicked", "panic", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
		}

		span.SetAttributes(
			attribute.Int("bookings.found", report.Found),
			attribute.Int("bookings.published", report.Published),
			attribute.Int("bookings.failed", report.Failed))
		span.End()
	}()

	now := p.clock.Now()

	bookings, err := p.store.FindUpcomingBookings(ctx, now, now.Add(p.lookahead))
	if err != nil {
		logger.ErrorKV(ctx, "Failed to query upcoming bookings", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query upcoming bookings")

		return report
	}

	report.Found = len(bookings)

	for _, b := range bookings {
		if err = p.announce(ctx, b, &report); err != nil {
			report.Failed++

			logger.WarnKV(ctx, "Failed to announce booking",
				"booking_id", b.ID,
				"room_id", b.RoomID,
				"error", err)
		}
	}

	if report.Found > 0 {
		logger.InfoKV(ctx, "Tick finished",
			"found", report.Found,
			"published", report.Published,
			"recorded", report.Recorded,
			"failed", report.Failed)
	}

	return report
}

func (p *Poller) announce(ctx context.Context, b booking.Booking, report *TickReport) error {
	body, err := room.NewPrepareRoomEvent(b).Encode()
	if err != nil {
		return err
	}

	if err = p.publisher.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	report.Published++

	logger.InfoKV(ctx, "Published prepare room event",
		"booking_id", b.ID,
		"room_id", b.RoomID,
		"start_time", b.StartTime)

	if err = p.store.RecordAnnounced(ctx, b.ID, p.clock.Now()); err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}

	report.Recorded++

	return nil
}
