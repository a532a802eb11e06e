package commands

import (
	"context"

	"github.com/google/uuid"

	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/allot/internal/shared/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

type eventSource interface {
	DomainEvents() []sharedDomain.DomainEvent
	ClearDomainEvents()
}

// saveEvents writes the recorded events of every source to the outbox,
// tagged with the request's correlation id.
func saveEvents(ctx context.Context, repo outbox.Repository, sources ...eventSource) error {
	var events []sharedDomain.DomainEvent
	for _, src := range sources {
		events = append(events, src.DomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}

	correlationID, _ := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	sharedApplication.StampEvents(correlationID, events)

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	for _, src := range sources {
		src.ClearDomainEvents()
	}
	return nil
}
