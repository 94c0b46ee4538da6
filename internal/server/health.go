package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "contracts.Ingest"

// NewGRPCServer returns a server with the health and reflection services
// registered, plus the health server so callers can flip statuses.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

// WatchHealth probes check every interval and mirrors the result into hs
// until ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, check HealthFunc, interval time.Duration, logger *slog.Logger) {
	set := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := check(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Warn("health check failed", "error", err)
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}
	set()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			set()
		}
	}
}
