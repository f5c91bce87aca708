package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	TrackingServiceName   = "dealview.v1.TrackingService"
	TrackingTrackViewPath = "/dealview.v1.TrackingService/TrackView"
)

// TrackingServiceServer records single deal views sent by remote batchers.
type TrackingServiceServer interface {
	TrackView(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
}

func RegisterTrackingServiceServer(s grpc.ServiceRegistrar, srv TrackingServiceServer) {
	s.RegisterService(&TrackingServiceDesc, srv)
}

func trackViewHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).TrackView(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TrackingTrackViewPath,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrackingServiceServer).TrackView(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var TrackingServiceDesc = grpc.ServiceDesc{
	ServiceName: TrackingServiceName,
	HandlerType: (*TrackingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "TrackView",
			Handler:    trackViewHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dealview/v1/tracking.proto",
}

type TrackingClient interface {
	TrackView(ctx context.Context, dealID string) error
	Close() error
}

type trackingClient struct {
	conn *grpc.ClientConn
}

// NewTrackingClient connects to a remote TrackingService. Plaintext transport
// is used unless opts override it.
func NewTrackingClient(addr string, opts ...grpc.DialOption) (TrackingClient, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking client: %w", err)
	}

	return &trackingClient{conn: conn}, nil
}

func (c *trackingClient) TrackView(ctx context.Context, dealID string) error {
	out := new(emptypb.Empty)
	return c.conn.Invoke(ctx, TrackingTrackViewPath, wrapperspb.String(dealID), out)
}

func (c *trackingClient) Close() error {
	return c.conn.Close()
}
