package events

import (
	"context"

	"cortex/internal/adapters/kafka"
	"cortex/pkg/logger"
)

// KafkaPublisher forwards emitted events to a Kafka topic.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewKafkaPublisher creates a Kafka event publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      logger.Get().With("component", "kafka_event_publisher", "topic", topic),
	}
}

// Run consumes the subscription channel until ctx is cancelled or the
// channel closes. Publish failures are logged; event delivery stays
// best-effort.
func (p *KafkaPublisher) Run(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := p.producer.Publish(ctx, p.topic, event.Type, event); err != nil {
				p.log.Warn("Event publish failed", "event_type", event.Type, "error", err)
			}
		}
	}
}
