package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProcessor_Backoff(t *testing.T) {
	p := NewProcessor(nil, nil, ProcessorConfig{
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  10 * time.Second,
	}, nil)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{60, 10 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.backoff(tt.attempt), "attempt %d", tt.attempt)
	}

	defaults := NewProcessor(nil, nil, ProcessorConfig{}, nil)
	assert.Equal(t, time.Second, defaults.backoff(1))
	assert.Equal(t, time.Minute, defaults.backoff(30))
}

func TestEnvelope_ToleratesMissingMetadata(t *testing.T) {
	msg := &Message{EventID: uuid.New(), AggregateType: "Assignment", AggregateID: 9}
	env := envelope(msg)
	assert.Equal(t, msg.EventID.String(), env.MessageID)
	assert.Empty(t, env.CorrelationID)

	msg.Metadata = []byte(`not json`)
	assert.Empty(t, envelope(msg).CorrelationID)
}
