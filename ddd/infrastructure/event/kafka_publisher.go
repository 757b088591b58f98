package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vibe-transcode-service/ddd/domain/gateway"
	"vibe-transcode-service/pkg/kafka"
)

const publishTimeout = 5 * time.Second

// Producer is the part of the kafka client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

var _ Producer = (*kafka.Client)(nil)

// KafkaJobEventPublisher writes job events as JSON keyed by folder name.
type KafkaJobEventPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaJobEventPublisher(producer Producer, topic string) *KafkaJobEventPublisher {
	return &KafkaJobEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaJobEventPublisher) Publish(ctx context.Context, evt gateway.JobEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.producer.Produce(ctx, p.topic, []byte(evt.Folder), payload); err != nil {
		return fmt.Errorf("produce job event topic=%s: %w", p.topic, err)
	}
	return nil
}

// NoopJobEventPublisher is used when Kafka is disabled.
type NoopJobEventPublisher struct{}

func (NoopJobEventPublisher) Publish(context.Context, gateway.JobEvent) error { return nil }
