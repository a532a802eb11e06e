// Package outbox stores domain events in the same transaction as the
// assignment writes that produced them and relays them to the event bus.
package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages.
type Repository interface {
	Save(ctx context.Context, msg *Message) error

	// SaveBatch inserts msgs in order. Inside a unit of work it joins the
	// surrounding transaction, so events commit or roll back with the batch.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns up to limit pending messages that are not
	// dead-lettered and whose next retry time has passed, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed counts a failed attempt and schedules the next one.
	MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error

	// MarkDead counts the final attempt and parks the message.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes messages published more than olderThan ago.
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
}
