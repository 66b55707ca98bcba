package scheduler

import (
	"context"
	"fmt"

	"github.com/oshokin/room-automation/internal/logger"
	repository "github.com/oshokin/room-automation/internal/repository/booking"
	"github.com/oshokin/room-automation/internal/service/common"
)

// ServiceName identifies the scheduler in logs and traces.
const ServiceName = "room-scheduler"

// Options controls the room-scheduler process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
}

// Run polls the booking store and publishes announcements until ctx is
// canceled or the broker connection is lost.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, ServiceName)

	rt, err := common.Start(ctx, opts.ConfigPath, ServiceName)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	cfg := rt.Config

	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open booking store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close booking store", "error", closeErr)
		}
	}()

	client, err := rt.ConnectBroker(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close broker client", "error", closeErr)
		}
	}()

	poller := NewPoller(PollerOptions{
		Store:           store,
		Publisher:       client,
		PollInterval:    cfg.Scheduler.PollInterval,
		LookaheadWindow: cfg.Scheduler.LookaheadWindow,
	})

	logger.InfoKV(ctx, "Room scheduler started",
		"store_driver", cfg.Store.Driver,
		"queue", cfg.Broker.Queue,
		"poll_interval", cfg.Scheduler.PollInterval,
		"lookahead_window", cfg.Scheduler.LookaheadWindow)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()

	polled := make(chan error, 1)

	go func() {
		polled <- poller.Run(pollCtx)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down room scheduler")
	case runErr = <-client.Lost():
	}

	rt.Health.SetServing(false)
	stopPolling()
	<-polled

	if runErr != nil {
		logger.ErrorKV(ctx, "Room scheduler stopped", "error", runErr, "skipped_ticks", poller.Skipped())

		return fmt.Errorf("publish announcements: %w", runErr)
	}

	logger.InfoKV(ctx, "Room scheduler stopped", "skipped_ticks", poller.Skipped())

	return nil
}
