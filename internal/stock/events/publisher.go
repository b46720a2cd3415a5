package events

import (
	"context"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
	"github.com/farmatrack/farmatrack-backend/pkg/messaging"
)

// StockEventPublisher publishes stock domain events to the stock events
// exchange. A nil publisher is valid and publishes nothing, so callers never
// have to branch on whether messaging is configured.
type StockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher declares the stock events exchange and returns a
// publisher bound to it.
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishMovementApplied publishes a movement-applied event. Publishing is
// best effort: failures are logged and never propagated, the movement is
// already committed.
func (p *StockEventPublisher) PublishMovementApplied(ctx context.Context, movement *repository.Movement, lot *repository.Lot) {
	if p == nil {
		return
	}

	event := messaging.MovementAppliedEvent{
		MovementID: movement.ID,
		LotID:      lot.ID,
		ProductID:  lot.ProductID,
		Kind:       movement.Kind,
		Quantity:   movement.Quantity,
		NewStock:   lot.Stock,
		Reason:     movement.Reason,
		DocRef:     movement.DocRef,
	}

	if err := p.publisher.Publish(ctx, messaging.EventMovementApplied, event); err != nil {
		p.logger.Error().
			Err(err).
			Int64("movement_id", movement.ID).
			Msg("failed to publish movement applied event")
	}
}
