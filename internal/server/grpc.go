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

// ServiceName is the gRPC health service name reported next to "".
const ServiceName = "syllabussync.v1.SyllabusSync"

// NewGRPCServer returns a server carrying only health and reflection (for grpcurl).
func NewGRPCServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)
	return s, hs
}

// WatchHealth flips the health status with the database until ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, db HealthChecker, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
		err := db.HealthCheck(ctx, interval/2)
		if ok := err == nil; ok != serving {
			serving = ok
			status := healthpb.HealthCheckResponse_SERVING
			if !ok {
				status = healthpb.HealthCheckResponse_NOT_SERVING
				logger.Warn("health.database_down", "error", err)
			} else {
				logger.Info("health.database_up")
			}
			hs.SetServingStatus("", status)
			hs.SetServingStatus(ServiceName, status)
		}
	}
}
