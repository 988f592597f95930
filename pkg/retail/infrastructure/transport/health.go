package transport

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewGRPCServer(healthServer *grpchealth.Server) *grpc.Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, healthServer)
	return srv
}

// CheckHealth publishes the store's reachability as the overall serving status.
func CheckHealth(ctx context.Context, healthServer *grpchealth.Server, pinger Pinger, logger logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := pinger.Ping(ctx); err != nil {
		logger.WithError(err).Warn("record store unreachable")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

func MonitorHealth(ctx context.Context, healthServer *grpchealth.Server, pinger Pinger, interval time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		CheckHealth(ctx, healthServer, pinger, logger)
		select {
		case <-ctx.Done():
			healthServer.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
