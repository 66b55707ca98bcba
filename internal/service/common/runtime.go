//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/room-automation/internal/api/grpc/health"
	"github.com/oshokin/room-automation/internal/broker"
	"github.com/oshokin/room-automation/internal/config"
	"github.com/oshokin/room-automation/internal/logger"
	"github.com/oshokin/room-automation/internal/telemetry"
)

// ErrNoBrokerURL is returned by daemons started without broker.url.
var ErrNoBrokerURL = errors.New("broker url is not configured")

// Runtime is the shared state of a running daemon.
type Runtime struct {
	// Config is the validated configuration.
	Config *config.Config
	// Health reports readiness; it is served only when health_addr is set.
	Health *health.Server

	// shutdownTracer flushes pending spans.
	shutdownTracer telemetry.ShutdownFunc
	// stopHealth stops the health server.
	stopHealth context.CancelFunc
	// healthDone receives the health server result.
	healthDone chan error
}

// Start loads configuration from configPath and brings up logging, tracing
// and the health server for serviceName.
func Start(ctx context.Context, configPath, serviceName string) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	rt := &Runtime{
		Config:         cfg,
		Health:         health.New(),
		shutdownTracer: shutdownTracer,
	}

	if cfg.HealthAddress != "" {
		// The health server outlives ctx so that it can report NOT_SERVING during shutdown.
		healthCtx, stop := context.WithCancel(context.WithoutCancel(ctx))

		rt.stopHealth = stop
		rt.healthDone = make(chan error, 1)

		go func() {
			serveErr := rt.Health.Serve(healthCtx, cfg.HealthAddress)
			if serveErr != nil {
				logger.ErrorKV(ctx, "Health server failed", "error", serveErr)
			}

			rt.healthDone <- serveErr
		}()
	}

	return rt, nil
}

// ConnectBroker connects to the configured broker, retrying until ctx is done,
// and marks the daemon as serving.
func (r *Runtime) ConnectBroker(ctx context.Context) (*broker.Client, error) {
	if r.Config.Broker.URL == "" {
		return nil, ErrNoBrokerURL
	}

	client := broker.New(broker.Options{
		URL:            r.Config.Broker.URL,
		Queue:          r.Config.Broker.Queue,
		ReconnectDelay: r.Config.Broker.ReconnectDelay,
		Prefetch:       r.Config.Broker.Prefetch,
	})

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	r.Health.SetServing(true)

	return client, nil
}

// Close marks the daemon as not serving, stops the health server and flushes traces.
func (r *Runtime) Close(ctx context.Context) {
	r.Health.SetServing(false)

	if r.stopHealth != nil {
		r.stopHealth()
		<-r.healthDone
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultTimeout)
	defer cancel()

	if err := r.shutdownTracer(flushCtx); err != nil {
		logger.WarnKV(ctx, "Failed to flush traces", "error", err)
	}
}
