package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"cortex/internal/adapters/config"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// Producer handles Kafka message publishing.
type Producer struct {
	writers map[string]*kafka.Writer
	brokers []string
	log     *logger.Logger
}

// NewProducer creates a Kafka producer.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		brokers: cfg.Brokers,
		log:     logger.Get().With("component", "kafka_producer"),
	}
}

// getWriter returns or creates a writer for a topic.
func (p *Producer) getWriter(topic string) *kafka.Writer {
	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(p.brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	p.writers[topic] = w
	return w
}

// Publish sends a JSON-serialized message to a topic.
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msg); err != nil {
		p.log.Errorf("Failed to publish to %s: %v", topic, err)
		return errors.Wrapf(err, "publish to %s", topic)
	}

	p.log.Debugf("Published to %s: %s", topic, key)
	return nil
}

// Close closes all writers.
func (p *Producer) Close() error {
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.log.Errorf("Failed to close writer for %s: %v", topic, err)
			return err
		}
	}
	return nil
}
