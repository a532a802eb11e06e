// Package eventbus delivers outbox messages to a broker.
package eventbus

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Publisher sends one serialised event under a routing key such as
// "assignment.created". Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// NoopPublisher accepts every event without a broker. Local mode uses it so
// the outbox still drains and the worker can run without RabbitMQ.
type NoopPublisher struct {
	logger *slog.Logger
	count  atomic.Uint64
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	n := p.count.Add(1)
	p.logger.DebugContext(ctx, "event discarded, no broker configured",
		"routing_key", routingKey,
		"message_id", EnvelopeFromContext(ctx).MessageID,
		"bytes", len(payload),
		"discarded", n,
	)
	return nil
}

// Discarded returns how many events were accepted so far.
func (p *NoopPublisher) Discarded() uint64 {
	return p.count.Load()
}

func (p *NoopPublisher) Close() error { return nil }
