package application

import (
	"github.com/google/uuid"

	"github.com/felixgeelhaar/allot/internal/shared/domain"
)

type stamper interface {
	Stamp(meta domain.EventMetadata)
}

// StampEvents gives every event of one unit of work the same metadata: the
// request's correlationID (a fresh one when Nil) and a new causation id.
func StampEvents(correlationID uuid.UUID, events []domain.DomainEvent) domain.EventMetadata {
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	meta := domain.EventMetadata{CorrelationID: correlationID, CausationID: uuid.New()}
	for _, event := range events {
		if s, ok := event.(stamper); ok {
			s.Stamp(meta)
		}
	}
	return meta
}
