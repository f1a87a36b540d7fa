package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the interface implemented by all domain events.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	OccurredAt() time.Time
}

// BaseEvent provides the common fields of a domain event.
type BaseEvent struct {
	ID            uuid.UUID `json:"event_id"`
	Type          string    `json:"event_type"`
	AggID         uuid.UUID `json:"aggregate_id"`
	AggType       string    `json:"aggregate_type"`
	Timestamp     time.Time `json:"occurred_at"`
}

// NewBaseEvent creates a new BaseEvent.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		AggID:     aggregateID,
		AggType:   aggregateType,
		Timestamp: time.Now(),
	}
}

// EventID returns the unique event ID.
func (e BaseEvent) EventID() uuid.UUID { return e.ID }

// EventType returns the event type name.
func (e BaseEvent) EventType() string { return e.Type }

// AggregateID returns the ID of the aggregate the event belongs to.
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggID }

// AggregateType returns the aggregate type name.
func (e BaseEvent) AggregateType() string { return e.AggType }

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
