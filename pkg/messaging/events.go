package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventMovementApplied = "stock.movement.applied"
)

// Exchange names
const (
	ExchangeStockEvents = "stock.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// MovementAppliedEvent is published after a stock movement commits
type MovementAppliedEvent struct {
	MovementID int64  `json:"movement_id"`
	LotID      string `json:"lot_id"`
	ProductID  string `json:"product_id"`
	Kind       string `json:"kind"`
	Quantity   int    `json:"quantity"`
	NewStock   int    `json:"new_stock"`
	Reason     string `json:"reason,omitempty"`
	DocRef     string `json:"doc_ref,omitempty"`
}
