package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/motor-catalog-collector/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeProductCollected is published once a product record has been written
	EventTypeProductCollected EventType = "PRODUCT_COLLECTED"

	DefaultStream = "stream:catalog_products"
	source        = "catalog-collector"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// ProductCollectedPayload is the data field of a PRODUCT_COLLECTED event.
type ProductCollectedPayload struct {
	EventID   string                    `json:"event_id"`
	EventType string                    `json:"event_type"`
	Timestamp time.Time                 `json:"timestamp"`
	RunID     string                    `json:"run_id"`
	ProductID string                    `json:"product_id"`
	BOMRows   int                       `json:"bom_rows"`
	Assets    int                       `json:"assets"`
	Product   *models.NormalizedProduct `json:"product"`
	Source    string                    `json:"source"`
}

type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
		now:    time.Now,
	}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// PublishProductCollected appends a PRODUCT_COLLECTED event to the stream and
// returns the stream entry id.
func (p *Publisher) PublishProductCollected(ctx context.Context, runID string, product *models.NormalizedProduct) (string, error) {
	payload := ProductCollectedPayload{
		EventID:   uuid.New().String(),
		EventType: string(EventTypeProductCollected),
		Timestamp: p.now().UTC(),
		RunID:     runID,
		ProductID: product.ProductID,
		BOMRows:   len(product.BOM),
		Assets:    product.Assets.Count(),
		Product:   product,
		Source:    source,
	}

	dataJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(dataJSON),
			"event_id":   payload.EventID,
			"event_type": payload.EventType,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
			"run_id":     runID,
			"product_id": product.ProductID,
			"bom_rows":   payload.BOMRows,
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("event published",
		"event_id", payload.EventID,
		"stream_id", id,
		"product_id", product.ProductID)

	return id, nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}
