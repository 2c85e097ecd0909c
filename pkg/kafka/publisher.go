// Package kafka publishes checkout domain events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	producerName = "storefront-checkout"
	eventVersion = 1
)

// Publisher is what the saga uses to announce outcomes.
type Publisher interface {
	Publish(ctx context.Context, eventType string, key string, payload any) error
	Enabled() bool
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
}

// NewPublisher returns a no-op publisher when no brokers are configured.
// Writes are asynchronous so a slow broker never holds up a checkout; delivery
// failures are logged by the completion callback.
func NewPublisher(brokers []string, topic string) Publisher {

	if len(brokers) == 0 {
		return noopPublisher{}
	}

	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			Async:                  true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Error("Failed to deliver checkout events",
						slog.Int("count", len(messages)),
						slog.String("topic", topic),
						slog.String("error", err.Error()))
				}
			},
		},
	}
}

func newPublisherWithWriter(w messageWriter) Publisher {
	return &kafkaPublisher{writer: w}
}

func (p *kafkaPublisher) Enabled() bool { return true }

// Publish wraps payload in an Envelope and writes it keyed by key, so events
// for one order land on one partition.
func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, key string, payload any) error {

	msg, err := NewMessage(eventType, key, payload, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewMessage builds the kafka message for one event.
func NewMessage(eventType string, key string, payload any, at time.Time) (kafka.Message, error) {

	raw, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	env := models.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    at,
		Producer:      producerName,
		CorrelationID: key,
		Payload:       raw,
	}

	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s envelope: %w", eventType, err)
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  at,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }

func (noopPublisher) Enabled() bool { return false }

func (noopPublisher) Close() error { return nil }
