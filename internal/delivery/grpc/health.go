package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// WatchBackend pings the backend every interval and mirrors the result into
// the health server, both for the overall status and for ServiceName. It
// returns when ctx is done.
func WatchBackend(ctx context.Context, hs *health.Server, backend Pinger, interval, timeout time.Duration, logger *logrus.Logger) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if err := backend.Ping(pingCtx); err != nil {
			logger.Warnf("gRPC Health: backend ping failed: %v", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(ServiceName, st)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
