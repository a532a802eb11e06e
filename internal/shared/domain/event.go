// Package domain holds the event primitives shared by allocation aggregates.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate and relayed through the outbox.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateType() string
	AggregateID() int64
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata traces an event back to the request (correlation) and the
// unit of work (causation) that produced it.
type EventMetadata struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
}

// EventHeader implements DomainEvent. Concrete events embed it and add their
// payload fields; the header itself is not part of the JSON payload.
type EventHeader struct {
	id            uuid.UUID
	aggregateType string
	aggregateID   int64
	routingKey    string
	occurredAt    time.Time
	meta          EventMetadata
}

// NewEventHeader stamps a new event id and the current UTC time.
func NewEventHeader(aggregateType string, aggregateID int64, routingKey string) EventHeader {
	return EventHeader{
		id:            uuid.New(),
		aggregateType: aggregateType,
		aggregateID:   aggregateID,
		routingKey:    routingKey,
		occurredAt:    time.Now().UTC(),
	}
}

func (h EventHeader) EventID() uuid.UUID      { return h.id }
func (h EventHeader) AggregateType() string   { return h.aggregateType }
func (h EventHeader) AggregateID() int64      { return h.aggregateID }
func (h EventHeader) RoutingKey() string      { return h.routingKey }
func (h EventHeader) OccurredAt() time.Time   { return h.occurredAt }
func (h EventHeader) Metadata() EventMetadata { return h.meta }

// Stamp attaches tracing metadata before the event is written to the outbox.
func (h *EventHeader) Stamp(meta EventMetadata) {
	h.meta = meta
}
