// Package kafka provides an eventstream publisher backed by Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/docstackco/lectern/pkg/eventstream"
)

// DefaultTopic is the Kafka topic document events are published to.
const DefaultTopic = "lectern.documents"

// Publisher publishes document events to a Kafka topic. Events are keyed by
// filename so all events for one document land on the same partition.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the topic to publish to. Defaults to DefaultTopic if empty.
	Topic string
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	logger.Info("kafka eventstream publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishDocument serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishDocument(ctx context.Context, event *eventstream.DocumentEvent) error {
	if event == nil {
		return eventstream.ErrNilDocumentEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling document event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Document.Filename),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing document event: %w", err)
	}

	p.logger.Debug("published document event",
		zap.String("event_type", event.EventType),
		zap.String("filename", event.Document.Filename),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
