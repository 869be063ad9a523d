package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/plateiq/pkg/models"
)

// Kafka topics, one per event family. External consumers (workflow runner,
// analytics warehouse) read these.
const (
	TopicCustomerEvents = "lifecycle.customers"
	TopicStrategyEvents = "lifecycle.strategy"
	TopicAlertEvents    = "lifecycle.alerts"
	TopicWorkflowEvents = "lifecycle.workflows"
)

// topicFor maps an event type to its outbound topic.
func topicFor(eventType models.EventType) string {
	switch eventType {
	case models.EventCustomerAnalyzed, models.EventCustomerSegmented:
		return TopicCustomerEvents
	case models.EventMetricsUpdated, models.EventStrategyComplete:
		return TopicStrategyEvents
	case models.EventHealthWarning, models.EventAlertRaised:
		return TopicAlertEvents
	case models.EventWorkflowRequested, models.EventWorkflowCompleted, models.EventWorkflowFailed:
		return TopicWorkflowEvents
	default:
		return TopicStrategyEvents
	}
}

// KafkaConfig represents the outbound Kafka mirror configuration.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"client_id"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// DefaultKafkaConfig returns default Kafka mirror configuration.
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "plateiq-lifecycle",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// KafkaMirror wraps a Bus and additionally publishes every event to Kafka.
// Mirror failures are logged, never surfaced: the in-process subscribers
// are the source of truth and must not stall on broker trouble.
type KafkaMirror struct {
	inner  Bus
	writer *kafka.Writer
}

// NewKafkaMirror creates a mirror around the inner bus.
func NewKafkaMirror(inner Bus, config KafkaConfig) *KafkaMirror {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		Async:        true,
	}
	return &KafkaMirror{inner: inner, writer: writer}
}

// Subscribe registers on the inner bus.
func (m *KafkaMirror) Subscribe(eventType models.EventType, handler Handler) {
	m.inner.Subscribe(eventType, handler)
}

// Publish delivers in-process first, then mirrors to Kafka.
func (m *KafkaMirror) Publish(ctx context.Context, event models.Event) {
	m.inner.Publish(ctx, event)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event %s for mirror: %v", event.ID, err)
		return
	}

	message := kafka.Message{
		Topic: topicFor(event.Type),
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(string(event.Type))},
			{Key: "severity", Value: []byte(string(event.Severity))},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
		Time: time.Now(),
	}

	if err := m.writer.WriteMessages(ctx, message); err != nil {
		log.Printf("Failed to mirror event %s to Kafka: %v", event.ID, err)
	}
}

// Close flushes and closes the Kafka writer.
func (m *KafkaMirror) Close() error {
	if err := m.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}
