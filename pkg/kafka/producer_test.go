package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"kafka-1:9092", "kafka-2:9092"})

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async, "publishes should block until acked")
}

func TestNewProducer_WriterSettings(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"kafka-1:9092"})
	p := NewProducer(cfg, quietLogger())
	t.Cleanup(func() { _ = p.Close() })

	require.NotNil(t, p.writer)
	assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
	assert.Equal(t, cfg.BatchSize, p.writer.BatchSize)
	assert.Equal(t, cfg.BatchTimeout, p.writer.BatchTimeout)
	assert.IsType(t, &kafka.LeastBytes{}, p.writer.Balancer)
}

func TestEventHeaders(t *testing.T) {
	event, err := NewEvent("ordura.user.logged_in", "u-1", "user", "ordura-backend", nil)
	require.NoError(t, err)

	headers := eventHeaders(event)
	require.Len(t, headers, 2, "no correlation header until one is set")
	assert.Equal(t, "event_type", headers[0].Key)
	assert.Equal(t, "ordura.user.logged_in", string(headers[0].Value))
	assert.Equal(t, "source", headers[1].Key)

	event.WithCorrelationID("corr-9")
	headers = eventHeaders(event)
	require.Len(t, headers, 3)
	assert.Equal(t, "correlation_id", headers[2].Key)
	assert.Equal(t, "corr-9", string(headers[2].Value))
}

func TestPing_NoBrokersConfigured(t *testing.T) {
	p := NewProducer(ProducerConfig{}, quietLogger())
	t.Cleanup(func() { _ = p.Close() })

	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers")
}

func TestPing_UnreachableBroker(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"127.0.0.1:19092"}), quietLogger())
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Ping(ctx))
}

func TestTopic_Namespacing(t *testing.T) {
	assert.Equal(t, "ordura.user.registered", Topic("user", "registered"))
	assert.Equal(t, "ordura.product.deleted", Topic("product", "deleted"))
}
