package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/oshokin/room-automation/internal/clock"
	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/domain/room"
	"github.com/oshokin/room-automation/internal/logger"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../../mocks/workflow.go -package=mocks . Actuator,OccupancySensor

// Actuator applies device commands.
type Actuator interface {
	Apply(ctx context.Context, cmd room.Command) error
}

// OccupancySensor counts people in a room.
type OccupancySensor interface {
	Occupancy(ctx context.Context, roomID string) (room.OccupancySample, error)
}

// Activation is a point-in-time view of one room lifecycle.
type Activation struct {
	// ID identifies the activation in logs.
	ID string
	// BookingID is the announced booking.
	BookingID string
	// RoomID is the managed room.
	RoomID string
	// Phase is the current lifecycle phase.
	Phase room.Phase
	// LectureEnd is when monitoring starts.
	LectureEnd time.Time
}

// activation is the mutable state owned by the orchestrator.
type activation struct {
	Activation

	// timer defers the Prepared to Monitoring transition.
	timer *clock.Timer
	// due is closed by timer.
	due chan struct{}
}

// Orchestrator runs one independent activation per PrepareRoomEvent.
type Orchestrator struct {
	// actuator receives prepare and secure commands.
	actuator Actuator
	// sensor is polled while monitoring.
	sensor OccupancySensor
	// clock drives the deferred transition and polling.
	clock clock.Clock
	// lectureDuration is added to the start time to find the lecture end.
	lectureDuration time.Duration
	// pollInterval is the occupancy polling period.
	pollInterval time.Duration

	// mu guards activations.
	mu sync.Mutex
	// activations holds live activations by id.
	activations map[string]*activation
	// wg tracks activation goroutines.
	wg sync.WaitGroup
}

// OrchestratorOptions configure an Orchestrator.
type OrchestratorOptions struct {
	Actuator        Actuator
	Sensor          OccupancySensor
	Clock           clock.Clock
	LectureDuration time.Duration
	PollInterval    time.Duration
}

// NewOrchestrator creates an orchestrator. Zero durations fall back to the defaults.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	if opts.LectureDuration <= 0 {
		opts.LectureDuration = config.DefaultLectureDuration
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultOccupancyPollInterval
	}

	return &Orchestrator{
		actuator:        opts.Actuator,
		sensor:          opts.Sensor,
		clock:           opts.Clock,
		lectureDuration: opts.LectureDuration,
		pollInterval:    opts.PollInterval,
		activations:     make(map[string]*activation),
	}
}

// Handle decodes a queue message and starts an activation for it.
// It returns once the room is prepared and monitoring is scheduled.
func (o *Orchestrator) Handle(ctx context.Context, body []byte) error {
	event, err := room.DecodePrepareRoomEvent(body)
	if err != nil {
		return err
	}

	o.Activate(ctx, event)

	return nil
}

// Activate prepares the room and schedules monitoring for lecture end.
// Monitoring runs in the background until the room is secured or ctx is done.
// The same event delivered twice yields two activations issuing the same commands.
func (o *Orchestrator) Activate(ctx context.Context, event room.PrepareRoomEvent) Activation {
	a := &activation{
		Activation: Activation{
			ID:         uuid.NewString(),
			BookingID:  event.BookingID,
			RoomID:     event.RoomID,
			Phase:      room.PhaseIdle,
			LectureEnd: event.StartTime.Add(o.lectureDuration),
		},
		due: make(chan struct{}),
	}

	ctx = logger.WithKV(logger.WithName(ctx, "workflow"),
		"activation_id", a.ID,
		"booking_id", a.BookingID,
		"room_id", a.RoomID)

	o.mu.Lock()
	o.activations[a.ID] = a
	o.mu.Unlock()

	o.apply(ctx, room.PrepareCommands(a.RoomID))
	o.advance(ctx, a, room.PhasePrepared)

	delay := max(a.LectureEnd.Sub(o.clock.Now()), 0)

	logger.InfoKV(ctx, "Room prepared, monitoring scheduled",
		"lecture_end", a.LectureEnd,
		"delay", delay)

	o.wg.Add(1)

	o.mu.Lock()
	a.timer = o.clock.AfterFunc(delay, func() { close(a.due) })
	snapshot := a.Activation
	o.mu.Unlock()

	go o.run(ctx, a)

	return snapshot
}

// run waits for lecture end, then monitors until the room is empty.
func (o *Orchestrator) run(ctx context.Context, a *activation) {
	defer o.wg.Done()
	defer o.finish(a)

	select {
	case <-a.due:
	case <-ctx.Done():
		a.timer.Stop()
		logger.DebugKV(ctx, "Activation cancelled before monitoring", "phase", o.phase(a))

		return
	}

	o.advance(ctx, a, room.PhaseMonitoring)
	logger.Info(ctx, "Monitoring room occupancy")

	ticker := o.clock.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.DebugKV(ctx, "Activation cancelled while monitoring")

			return
		case <-ticker.C:
		}

		sample, err := o.sensor.Occupancy(ctx, a.RoomID)
		if err != nil {
			logger.WarnKV(ctx, "Occupancy query failed, will retry", "error", err)

			continue
		}

		if !sample.Empty() {
			logger.DebugKV(ctx, "Room is still occupied", "human_count", sample.HumanCount)

			continue
		}

		o.apply(ctx, room.SecureCommands(a.RoomID))
		o.advance(ctx, a, room.PhaseSecured)
		logger.Info(ctx, "Room is empty and secured")

		return
	}
}

// apply issues commands in order. Failures are logged and do not stop the activation.
func (o *Orchestrator) apply(ctx context.Context, cmds []room.Command) {
	for _, cmd := range cmds {
		if err := o.actuator.Apply(ctx, cmd); err != nil {
			logger.ErrorKV(ctx, "Device command failed",
				"device", cmd.Device,
				"action", cmd.Action,
				"error", err)
		}
	}
}

func (o *Orchestrator) advance(ctx context.Context, a *activation, next room.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !a.Phase.CanAdvanceTo(next) {
		logger.ErrorKV(ctx, "Illegal phase transition", "from", a.Phase, "to", next)

		return
	}

	a.Phase = next
}

func (o *Orchestrator) phase(a *activation) room.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()

	return a.Phase
}

func (o *Orchestrator) finish(a *activation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.activations, a.ID)
}

// Snapshot lists live activations ordered by lecture end.
func (o *Orchestrator) Snapshot() []Activation {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := lo.MapToSlice(o.activations, func(_ string, a *activation) Activation {
		return a.Activation
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].LectureEnd.Equal(out[j].LectureEnd) {
			return out[i].ID < out[j].ID
		}

		return out[i].LectureEnd.Before(out[j].LectureEnd)
	})

	return out
}

// Wait blocks until every activation goroutine has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// String is used in debug logs.
func (a Activation) String() string {
	return fmt.Sprintf("%s room=%s booking=%s phase=%s", a.ID, a.RoomID, a.BookingID, a.Phase)
}
