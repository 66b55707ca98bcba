package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/room-automation/internal/actuator"
	"github.com/oshokin/room-automation/internal/logger"
	"github.com/oshokin/room-automation/internal/sensor"
	"github.com/oshokin/room-automation/internal/service/common"
)

// ServiceName identifies the orchestrator in logs and traces.
const ServiceName = "room-orchestrator"

// Options controls the room-orchestrator process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
}

// Run consumes PrepareRoomEvents and drives room activations until ctx is
// canceled or the broker connection is lost.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, ServiceName)

	rt, err := common.Start(ctx, opts.ConfigPath, ServiceName)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	client, err := rt.ConnectBroker(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close broker client", "error", closeErr)
		}
	}()

	cfg := rt.Config

	orchestrator := NewOrchestrator(OrchestratorOptions{
		Actuator:        actuator.New(cfg.Actuator.URL, cfg.Actuator.Timeout),
		Sensor:          sensor.New(cfg.Sensor.URL, cfg.Sensor.Timeout, nil),
		LectureDuration: cfg.Workflow.LectureDuration,
		PollInterval:    cfg.Workflow.OccupancyPollInterval,
	})

	logger.InfoKV(ctx, "Room orchestrator started",
		"queue", cfg.Broker.Queue,
		"lecture_duration", cfg.Workflow.LectureDuration,
		"poll_interval", cfg.Workflow.OccupancyPollInterval,
		"actuator_url", cfg.Actuator.URL,
		"sensor_url", cfg.Sensor.URL)

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	defer stopConsuming()

	consumed := make(chan error, 1)

	go func() {
		consumed <- client.Subscribe(consumeCtx, orchestrator.Handle)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down room orchestrator")
	case runErr = <-client.Lost():
	case runErr = <-consumed:
		consumed = nil
	}

	rt.Health.SetServing(false)
	stopConsuming()

	if consumed != nil {
		if err = <-consumed; err != nil && runErr == nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}

	for _, a := range orchestrator.Snapshot() {
		logger.WarnKV(ctx, "Abandoning activation", "activation", a.String())
	}

	orchestrator.Wait()

	if runErr != nil {
		logger.ErrorKV(ctx, "Room orchestrator stopped", "error", runErr)

		return fmt.Errorf("consume prepare room events: %w", runErr)
	}

	logger.Info(ctx, "Room orchestrator stopped")

	return nil
}
