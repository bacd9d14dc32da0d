package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig tunes the kafka-go writer behind Producer.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
}

// DefaultProducerConfig favors publish latency over batching throughput and
// waits for acks from all replicas.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Producer publishes event envelopes. Messages are keyed by aggregate id so
// updates to one aggregate stay ordered within a partition.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	logger  *slog.Logger
}

// NewProducer builds a producer over the given brokers.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
			Async:        cfg.Async,
			RequiredAcks: kafka.RequireAll,
		},
		brokers: cfg.Brokers,
		logger:  logger,
	}
}

// Publish sends one event to topic. The event type, source, and correlation
// id ride along as message headers for consumers that filter before decoding.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	value, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(event.AggregateID),
		Value:   value,
		Headers: eventHeaders(event),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "publish event failed",
			slog.String("topic", topic),
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
	)
	return nil
}

func eventHeaders(event *Event) []kafka.Header {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "source", Value: []byte(event.Source)},
	}
	if event.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "correlation_id", Value: []byte(event.CorrelationID)})
	}
	return headers
}

// Ping reports whether at least one broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}
	var lastErr error
	for _, addr := range p.brokers {
		if lastErr = pingBroker(ctx, addr); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}

// pingBroker dials addr and lists brokers, the cheapest round trip that
// proves the connection is actually talking Kafka.
func pingBroker(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Brokers()
	return err
}

// Close flushes pending messages and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
