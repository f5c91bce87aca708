package service

import (
	"context"
	"time"

	kafka "github.com/vogiaan1904/dealview-tracker/internal/delivery/kafka"
	"github.com/vogiaan1904/dealview-tracker/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/dealview-tracker/internal/viewbatch"
	pkgGrpc "github.com/vogiaan1904/dealview-tracker/pkg/grpc"
)

// NewKafkaTracker publishes every dispatched view as a deal.viewed event.
func NewKafkaTracker(prod producer.Producer) viewbatch.Tracker {
	return viewbatch.TrackerFunc(func(ctx context.Context, dealID string) error {
		return prod.PublishDealViewed(ctx, kafka.DealViewedEvent{
			DealID:   dealID,
			ViewedAt: time.Now(),
		})
	})
}

// NewStatsTracker writes every dispatched view straight into the counters.
func NewStatsTracker(stats StatsService) viewbatch.Tracker {
	return viewbatch.TrackerFunc(func(ctx context.Context, dealID string) error {
		_, err := stats.RecordView(ctx, RecordViewInput{
			DealID:   dealID,
			ViewedAt: time.Now(),
			Source:   ViewSourceBatcher,
		})
		return err
	})
}

// NewGRPCTracker forwards every dispatched view to a remote tracking service.
func NewGRPCTracker(cli pkgGrpc.TrackingClient) viewbatch.Tracker {
	return viewbatch.TrackerFunc(cli.TrackView)
}
