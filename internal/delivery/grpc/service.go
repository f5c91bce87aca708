package grpc

import (
	"context"

	"github.com/vogiaan1904/dealview-tracker/internal/service"
	pkgGrpc "github.com/vogiaan1904/dealview-tracker/pkg/grpc"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
	resp "github.com/vogiaan1904/dealview-tracker/pkg/response"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type grpcService struct {
	svc service.StatsService
	l   logger.Logger
}

// NewGrpcService exposes the view counters to remote batchers running with
// the grpc tracker backend.
func NewGrpcService(svc service.StatsService, l logger.Logger) pkgGrpc.TrackingServiceServer {
	return &grpcService{
		svc: svc,
		l:   l,
	}
}

func (s *grpcService) TrackView(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	_, err := s.svc.RecordView(ctx, service.RecordViewInput{
		DealID: req.GetValue(),
		Source: service.ViewSourceGRPC,
	})
	if err != nil {
		s.l.Errorf(ctx, "delivery.grpc.grpcService.TrackView: %v", err)
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}

	return &emptypb.Empty{}, nil
}
