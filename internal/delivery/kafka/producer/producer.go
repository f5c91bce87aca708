package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/dealview-tracker/internal/delivery/kafka"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

type Producer interface {
	PublishDealViewed(ctx context.Context, event kafka.DealViewedEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishDealViewed(ctx context.Context, event kafka.DealViewedEvent) error {
	event.Timestamp = time.Now()
	if event.ViewedAt.IsZero() {
		event.ViewedAt = event.Timestamp
	}

	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.implProducer.PublishDealViewed: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: kafka.TopicDealViewed,
		Key:   sarama.StringEncoder(event.DealID), // Partition by deal_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(event.Timestamp.Format(time.RFC3339)),
			},
		},
	}

	if _, _, err = p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.implProducer.PublishDealViewed: %v", err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
