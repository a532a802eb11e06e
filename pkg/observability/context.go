package observability

import (
	"context"

	"github.com/google/uuid"
)

// Log attribute keys. The context values below are logged under the same names.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	OperationKey     = "operation"
)

// ctxKey is unexported so no other package can collide with these values.
type ctxKey int

const (
	correlationIDValue ctxKey = iota
	requestIDValue
)

// WithCorrelationID tags ctx with the id that ties a plan or assign call to
// the log lines and outbox events it produces. An empty id gets a new UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withID(ctx, correlationIDValue, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, correlationIDValue)
}

// WithRequestID tags ctx with a per-request id. An empty id gets a new UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestIDValue, id)
}

func RequestIDFromContext(ctx context.Context) string {
	return idFrom(ctx, requestIDValue)
}

func withID(ctx context.Context, key ctxKey, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key).(string)
	return id
}
