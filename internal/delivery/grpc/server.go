package grpc

import (
	"context"
	"time"

	pkgGrpc "github.com/vogiaan1904/dealview-tracker/pkg/grpc"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// NewServer builds the gRPC server with the tracking service and the
// standard health service registered.
func NewServer(trackingSvc pkgGrpc.TrackingServiceServer, l logger.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(l)))

	pkgGrpc.RegisterTrackingServiceServer(srv, trackingSvc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(pkgGrpc.TrackingServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

func loggingInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		l.Debugf(ctx, "gRPC %s - code: %s, duration: %s", info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}
