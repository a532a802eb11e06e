package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/allot/internal/shared/domain"
	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig tunes the relay from the outbox table to the broker.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int

	// MaxRetries is the number of publish attempts before a message is
	// dead-lettered. Zero or less dead-letters on the first failure.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration

	// Retention keeps published rows this long. Zero disables Cleanup.
	Retention time.Duration
}

// DefaultProcessorConfig returns the worker defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
	}
}

// maxDrainRounds bounds how many full batches one tick publishes, so a large
// project assign does not starve the stop signal.
const maxDrainRounds = 10

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDead
)

// Processor relays assignment events written by the command handlers to the
// broker. Delivery is at least once: a crash between publish and
// MarkPublished republishes the event with the same message id.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	cfg       ProcessorConfig
	logger    *slog.Logger
	now       func() time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64

	mu    sync.Mutex
	state runState
}

type runState struct {
	byRoutingKey    map[string]uint64
	lastError       string
	lastErrorAt     *time.Time
	lastProcessedAt *time.Time
	oldestMessageAt *time.Time
	lag             time.Duration
}

// NewProcessor returns a stopped processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultProcessorConfig().BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultProcessorConfig().PollInterval
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "outbox"),
		now:       time.Now,
		state:     runState{byRoutingKey: map[string]uint64{}},
	}
}

// Start launches the polling loop. It returns immediately; calling it on a
// running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.done != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(runCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.cfg.PollInterval,
		"batch_size", p.cfg.BatchSize,
		"max_retries", p.cfg.MaxRetries,
	)
	return nil
}

// Stop cancels the loop and waits for the batch in flight to finish.
func (p *Processor) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.done == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the loop is active.
func (p *Processor) IsRunning() bool {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	return p.done != nil
}

func (p *Processor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

// drain publishes batches until one comes back short.
func (p *Processor) drain(ctx context.Context) {
	for range maxDrainRounds {
		n, err := p.processBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
			return
		}
		if n < p.cfg.BatchSize || ctx.Err() != nil {
			return
		}
	}
}

// ProcessOnce publishes one batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	_, err := p.processBatch(ctx)
	return err
}

func (p *Processor) processBatch(ctx context.Context) (int, error) {
	msgs, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		p.noteError(err)
		return 0, err
	}
	p.noteBatch(msgs)

	for _, msg := range msgs {
		switch p.relay(ctx, msg) {
		case outcomePublished:
			p.published.Add(1)
			p.mu.Lock()
			p.state.byRoutingKey[msg.RoutingKey]++
			p.mu.Unlock()
		case outcomeRetry:
			p.failed.Add(1)
		case outcomeDead:
			p.dead.Add(1)
		}
	}
	return len(msgs), nil
}

// relay publishes msg and records the result in the repository.
func (p *Processor) relay(ctx context.Context, msg *Message) outcome {
	env := envelope(msg)
	log := p.logger.With(
		"outbox_id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", env.MessageID,
		"correlation_id", env.CorrelationID,
	)

	pubErr := p.publisher.Publish(eventbus.WithEnvelope(ctx, env), msg.RoutingKey, msg.Payload)
	if pubErr == nil {
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			// The broker has the event; it goes out again on the next poll.
			log.Error("mark published", "error", err)
		}
		return outcomePublished
	}

	p.noteError(pubErr)
	attempt := msg.RetryCount + 1
	if !msg.CanRetry(p.cfg.MaxRetries) {
		log.Warn("dead-lettering event", "attempts", attempt, "error", pubErr)
		if err := p.repo.MarkDead(ctx, msg.ID, pubErr.Error()); err != nil {
			log.Error("mark dead", "error", err)
		}
		return outcomeDead
	}

	next := p.now().Add(p.backoff(attempt))
	log.Warn("publish failed, will retry", "attempt", attempt, "next_retry_at", next, "error", pubErr)
	if err := p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), next); err != nil {
		log.Error("mark failed", "error", err)
	}
	return outcomeRetry
}

// backoff doubles from RetryBackoffBase per attempt, capped at RetryBackoffMax.
func (p *Processor) backoff(attempt int) time.Duration {
	base, ceiling := p.cfg.RetryBackoffBase, p.cfg.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}

	d := base
	for i := 1; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	return min(d, ceiling)
}

func envelope(msg *Message) eventbus.Envelope {
	env := eventbus.Envelope{
		MessageID:     msg.EventID.String(),
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
	}
	if len(msg.Metadata) > 0 {
		var meta domain.EventMetadata
		if json.Unmarshal(msg.Metadata, &meta) == nil {
			env.CorrelationID = meta.CorrelationID.String()
		}
	}
	return env
}

// Cleanup deletes published messages older than Retention.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	if p.cfg.Retention <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteOld(ctx, p.cfg.Retention)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.Info("outbox cleanup", "deleted", deleted, "retention", p.cfg.Retention)
	}
	return deleted, nil
}

// Stats is a snapshot of the processor counters.
type Stats struct {
	IsRunning      bool
	PublishedCount uint64
	FailedCount    uint64
	DeadCount      uint64

	// PublishedByRoutingKey counts published events per routing key,
	// e.g. "assignment.created".
	PublishedByRoutingKey map[string]uint64

	// LagSeconds is the age of the oldest pending message at the last poll.
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// GetStats returns a copy of the current counters.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()

	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		IsRunning:             running,
		PublishedCount:        p.published.Load(),
		FailedCount:           p.failed.Load(),
		DeadCount:             p.dead.Load(),
		PublishedByRoutingKey: maps.Clone(p.state.byRoutingKey),
		LagSeconds:            p.state.lag.Seconds(),
		LastError:             p.state.lastError,
		LastErrorAt:           p.state.lastErrorAt,
		LastProcessedAt:       p.state.lastProcessedAt,
		OldestMessageAt:       p.state.oldestMessageAt,
	}
}

func (p *Processor) noteError(err error) {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.lastError = err.Error()
	p.state.lastErrorAt = &now
}

func (p *Processor) noteBatch(msgs []*Message) {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.lastProcessedAt = &now
	if len(msgs) == 0 {
		p.state.oldestMessageAt = nil
		p.state.lag = 0
		return
	}
	oldest := msgs[0].CreatedAt
	for _, m := range msgs[1:] {
		if m.CreatedAt.Before(oldest) {
			oldest = m.CreatedAt
		}
	}
	p.state.oldestMessageAt = &oldest
	p.state.lag = now.Sub(oldest)
}
