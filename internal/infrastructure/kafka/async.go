package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/pkg/events"
)

var _ port.EventPublisher = (*AsyncPublisher)(nil)

var (
	// ErrQueueFull is returned when the delivery queue has no room left.
	ErrQueueFull = errors.New("event queue full")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("event publisher closed")
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 10 * time.Second
)

// AsyncConfig sizes the delivery queue.
type AsyncConfig struct {
	QueueSize int
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
}

type pendingBatch struct {
	ctx    context.Context
	events []events.DomainEvent
}

// AsyncPublisher queues events and delivers them from a background worker,
// so Publish never waits on the broker. Delivery failures are logged.
type AsyncPublisher struct {
	next    port.EventPublisher
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan pendingBatch
	done   chan struct{}
}

// NewAsyncPublisher starts the delivery worker for next.
func NewAsyncPublisher(next port.EventPublisher, cfg AsyncConfig, logger *slog.Logger) *AsyncPublisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultPublishTimeout
	}
	p := &AsyncPublisher{
		next:    next,
		logger:  logger,
		timeout: cfg.Timeout,
		queue:   make(chan pendingBatch, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues domainEvents without blocking. The request context is
// detached so a finished request does not cancel delivery.
func (p *AsyncPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- pendingBatch{ctx: context.WithoutCancel(ctx), events: domainEvents}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for batch := range p.queue {
		p.deliver(batch)
	}
}

func (p *AsyncPublisher) deliver(batch pendingBatch) {
	ctx, cancel := context.WithTimeout(batch.ctx, p.timeout)
	defer cancel()

	if err := p.next.Publish(ctx, batch.events...); err != nil {
		p.logger.WarnContext(ctx, "event delivery failed",
			slog.String("aggregate_id", batch.events[0].AggregateID().String()),
			slog.Int("events", len(batch.events)),
			slog.String("error", err.Error()),
		)
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to end.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("event queue not drained before shutdown", slog.Int("pending", len(p.queue)))
		return ctx.Err()
	}
}
