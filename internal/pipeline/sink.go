package pipeline

import (
	"context"

	"github.com/maltedev/motor-catalog-collector/internal/database"
	"github.com/maltedev/motor-catalog-collector/internal/events"
	"github.com/maltedev/motor-catalog-collector/internal/models"
)

// Sink receives every product after its record has been written.
type Sink interface {
	Name() string
	Store(ctx context.Context, runID string, product *models.NormalizedProduct) error
}

type DatabaseSink struct {
	db *database.DB
}

func NewDatabaseSink(db *database.DB) *DatabaseSink {
	return &DatabaseSink{db: db}
}

func (s *DatabaseSink) Name() string { return "postgres" }

func (s *DatabaseSink) Store(ctx context.Context, runID string, product *models.NormalizedProduct) error {
	_, err := s.db.UpsertProduct(ctx, runID, product)
	return err
}

type EventSink struct {
	publisher *events.Publisher
}

func NewEventSink(publisher *events.Publisher) *EventSink {
	return &EventSink{publisher: publisher}
}

func (s *EventSink) Name() string { return "redis" }

func (s *EventSink) Store(ctx context.Context, runID string, product *models.NormalizedProduct) error {
	_, err := s.publisher.PublishProductCollected(ctx, runID, product)
	return err
}
