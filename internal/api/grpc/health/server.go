// Package health exposes the standard gRPC health service so that process
// supervisors can tell whether a daemon is connected to the broker.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/room-automation/internal/logger"
)

// Server is a gRPC server carrying only the health service.
// The overall ("") service starts as NOT_SERVING.
type Server struct {
	// grpcServer serves the health service.
	grpcServer *grpc.Server
	// health holds the reported statuses.
	health *grpchealth.Server
}

// New creates a health server.
func New() *Server {
	var (
		grpcServer   = grpc.NewServer()
		healthServer = grpchealth.NewServer()
	)

	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// SetServing updates the overall status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", status)
}

// Serve listens on address and blocks until ctx is canceled.
func (s *Server) Serve(ctx context.Context, address string) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis and blocks until ctx is canceled.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	ctx = logger.WithName(ctx, "health")

	// Closed after GracefulStop so that the server is fully stopped on return.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		close(done)
	}()

	logger.InfoKV(ctx, "Health server listening", "listen_address", lis.Addr().String())

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve health: %w", err)
	}

	<-done
	logger.Info(ctx, "Health server stopped")

	return nil
}
