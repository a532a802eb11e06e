package eventbus

import "context"

// Envelope is the outbox identity of a message. Brokers that support
// properties carry it next to the JSON body so consumers can deduplicate on
// MessageID and trace a batch by CorrelationID without decoding payloads.
type Envelope struct {
	MessageID     string
	CorrelationID string
	AggregateType string
	AggregateID   int64
}

type envelopeKey struct{}

// WithEnvelope attaches env to ctx for the next Publish.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey{}, env)
}

// EnvelopeFromContext returns the envelope set by WithEnvelope, or the zero
// Envelope.
func EnvelopeFromContext(ctx context.Context) Envelope {
	env, _ := ctx.Value(envelopeKey{}).(Envelope)
	return env
}
