package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange allocation events are published to.
// Consumers bind with patterns such as "assignment.*".
const ExchangeName = "allot.allocation.events"

var errPublisherClosed = errors.New("eventbus: publisher closed")

// RabbitMQPublisher publishes outbox messages to a durable topic exchange.
// A channel closed by the broker (for example after a precondition failure)
// is reopened on the next Publish while the connection is still up.
type RabbitMQPublisher struct {
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewRabbitMQPublisher dials url and declares ExchangeName.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	return NewRabbitMQPublisherWithExchange(url, ExchangeName, logger)
}

// NewRabbitMQPublisherWithExchange dials url and declares exchange.
func NewRabbitMQPublisherWithExchange(url, exchange string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	p := &RabbitMQPublisher{
		exchange: exchange,
		logger:   logger.With("exchange", exchange),
		conn:     conn,
	}
	if err := p.openChannel(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	p.logger.Info("rabbitmq publisher connected")
	return p, nil
}

// openChannel requires p.mu held or exclusive access.
func (p *RabbitMQPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	// durable topic exchange, not auto-deleted, not internal
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.channel = ch
	return nil
}

// Publish sends payload with routingKey. The envelope in ctx, if any,
// becomes the message id, correlation id and aggregate headers.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errPublisherClosed
	}
	if p.channel == nil || p.channel.IsClosed() {
		if p.conn.IsClosed() {
			return amqp.ErrClosed
		}
		if err := p.openChannel(); err != nil {
			return err
		}
		p.logger.Warn("rabbitmq channel reopened")
	}

	env := EnvelopeFromContext(ctx)
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		MessageId:     env.MessageID,
		CorrelationId: env.CorrelationID,
		Type:          routingKey,
		Body:          payload,
	}
	if env.AggregateType != "" {
		msg.Headers = amqp.Table{
			"aggregate_type": env.AggregateType,
			"aggregate_id":   strconv.FormatInt(env.AggregateID, 10),
		}
	}

	// not mandatory, not immediate: unrouted events are dropped by the broker
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		p.logger.Error("publish failed",
			"routing_key", routingKey,
			"message_id", env.MessageID,
			"error", err,
		)
		return err
	}

	p.logger.Debug("published",
		"routing_key", routingKey,
		"message_id", env.MessageID,
		"correlation_id", env.CorrelationID,
		"size", len(payload),
	)
	return nil
}

// Close closes the channel and the connection. Later publishes fail.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.channel != nil && !p.channel.IsClosed() {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("close channel", "error", err)
		}
	}
	if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	p.logger.Info("rabbitmq publisher closed")
	return nil
}
