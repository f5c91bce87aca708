package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/dealview-tracker/internal/delivery/kafka"
	"github.com/vogiaan1904/dealview-tracker/internal/service"
)

// HandleDealViewed records one deal.viewed event. Malformed payloads are
// logged and skipped so they never block the partition.
func (c *Consumer) HandleDealViewed(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.DealViewedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Warnf(ctx, "delivery.kafka.consumer.handlers.HandleDealViewed: %v", err)
		return nil
	}

	if e.DealID == "" {
		c.l.Warnf(ctx, "delivery.kafka.consumer.handlers.HandleDealViewed: %v", service.ErrDealIDRequired)
		return nil
	}

	if _, err := c.statsSvc.RecordView(ctx, service.RecordViewInput{
		DealID:   e.DealID,
		ViewedAt: e.ViewedAt,
		Source:   service.ViewSourceKafka,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleDealViewed: %v", err)
		return err
	}

	return nil
}
