// Package stream publishes case lifecycle events for downstream consumers.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// Config points the publisher at a Kafka cluster. An empty Brokers list
// disables publishing.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	// BatchTimeout caps how long a message waits for its batch to fill.
	BatchTimeout time.Duration
	// Logger receives delivery failures reported by the async writer.
	Logger zerolog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes case events as JSON, keyed by case id so every event
// of one case lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// New returns a KafkaPublisher, or a NopPublisher when no brokers are set.
// The writer is asynchronous: Publish only enqueues, and delivery errors are
// logged from the completion callback.
func New(cfg Config) ports.EventPublisher {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	log := cfg.Logger
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		Completion:             func(msgs []kafka.Message, err error) { logDelivery(log, msgs, err) },
		AllowAutoTopicCreation: true,
	}}
}

func logDelivery(log zerolog.Logger, msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		log.Warn().Err(err).Str("case_id", string(m.Key)).Msg("case event not delivered")
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *domain.CaseEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode case event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.CaseID),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *domain.CaseEvent) error { return nil }
