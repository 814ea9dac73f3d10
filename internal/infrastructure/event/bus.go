package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing to an async bus after Stop
var ErrBusStopped = errors.New("event bus stopped")

// BusConfig controls dispatch mode of the in-memory bus
type BusConfig struct {
	// Async queues events for worker goroutines instead of dispatching inline
	Async bool
	// Workers is the number of dispatch goroutines in async mode
	Workers int
	// BufferSize is the capacity of the async queue
	BufferSize int
}

// DefaultBusConfig returns a synchronous configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{Workers: 4, BufferSize: 256}
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus implements EventBus with in-memory pub/sub.
// In sync mode Publish runs handlers inline. In async mode Publish enqueues
// and workers started by Start dispatch; Stop drains the queue.
type InMemoryEventBus struct {
	subs   *subscriptions
	logger *zap.Logger
	config BusConfig

	queue   chan envelope
	mu      sync.RWMutex
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewInMemoryEventBus creates a new synchronous in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return NewInMemoryEventBusWithConfig(logger, DefaultBusConfig())
}

// NewInMemoryEventBusWithConfig creates an in-memory event bus with the given mode
func NewInMemoryEventBusWithConfig(logger *zap.Logger, cfg BusConfig) *InMemoryEventBus {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	return &InMemoryEventBus{
		subs:   newSubscriptions(),
		logger: logger,
		config: cfg,
	}
}

// Publish dispatches events to all registered handlers. Handler failures
// are logged and never returned to the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.config.Async {
		for _, event := range events {
			b.dispatch(ctx, event)
		}
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running.Load() {
		// not started yet or already stopped: deliver inline so nothing is lost
		if b.queue == nil {
			for _, event := range events {
				b.dispatch(ctx, event)
			}
			return nil
		}
		return ErrBusStopped
	}

	// handlers outlive the request that published the event
	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the dispatch workers in async mode
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running.Load() {
		return nil
	}

	if b.config.Async {
		b.queue = make(chan envelope, b.config.BufferSize)
		for i := 0; i < b.config.Workers; i++ {
			b.wg.Add(1)
			go b.worker(b.queue)
		}
	}
	b.running.Store(true)
	b.logger.Info("event bus started",
		zap.Bool("async", b.config.Async),
		zap.Int("workers", b.config.Workers),
		zap.Int("handlers", b.subs.count()),
	)
	return nil
}

// Stop closes the queue and waits for queued events to be handled
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running.Load() {
		b.mu.Unlock()
		return nil
	}
	b.running.Store(false)
	if b.queue != nil {
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) worker(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.subs.forEvent(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
