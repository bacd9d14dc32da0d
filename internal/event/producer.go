package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leogadddd/ordura-v2/internal/domain"
	pkgkafka "github.com/leogadddd/ordura-v2/pkg/kafka"
	"github.com/leogadddd/ordura-v2/pkg/logger"
)

// Topic names for domain events.
var (
	TopicUserRegistered = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicUserLoggedIn   = pkgkafka.Topic(AggregateTypeUser, "logged_in")
	TopicProductCreated = pkgkafka.Topic(AggregateTypeProduct, "created")
	TopicProductUpdated = pkgkafka.Topic(AggregateTypeProduct, "updated")
	TopicProductDeleted = pkgkafka.Topic(AggregateTypeProduct, "deleted")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeProduct = "product"
)

// Source identifier for events originating from this backend.
const Source = "ordura-backend"

// UserEventData is the payload for user lifecycle events.
type UserEventData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ProductEventData is the payload for product lifecycle events.
type ProductEventData struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Status     string `json:"status"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func userData(user *domain.User) UserEventData {
	return UserEventData{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}
}

func productData(p *domain.Product) ProductEventData {
	return ProductEventData{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		Category:   p.Category,
		PriceCents: p.PriceCents,
		Status:     p.Status,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if corr := logger.CorrelationIDFromContext(ctx); corr != "" {
		event.WithCorrelationID(corr)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, userData(user))
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserLoggedIn, user.ID, AggregateTypeUser, userData(user))
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductDeleted, product.ID, AggregateTypeProduct, productData(product))
}
