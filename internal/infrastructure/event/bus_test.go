package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, aggregateID int64) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", aggregateID),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("ordering.order_created")
	bus.Subscribe(handler, "ordering.order_created")

	event := newTestEvent("ordering.order_created", 1)
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEvents(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("ordering.order_created")
	bus.Subscribe(handler, "ordering.order_created")

	event1 := newTestEvent("ordering.order_created", 2)
	event2 := newTestEvent("ordering.order_created", 3)
	err := bus.Publish(context.Background(), event1, event2)

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_MultipleHandlers(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler1 := newTestHandler("ordering.order_created")
	handler2 := newTestHandler("ordering.order_created")
	bus.Subscribe(handler1, "ordering.order_created")
	bus.Subscribe(handler2, "ordering.order_created")

	event := newTestEvent("ordering.order_created", 4)
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, handler1.getHandled(), 1)
	assert.Len(t, handler2.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	wildcardHandler := newTestHandler() // No event types = wildcard
	bus.Subscribe(wildcardHandler)

	event := newTestEvent("catalog.price_list_imported", 5)
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, wildcardHandler.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_HandlerError(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler1 := newTestHandler("ordering.order_created")
	handler1.setError(errors.New("handler error"))
	handler2 := newTestHandler("ordering.order_created")
	bus.Subscribe(handler1, "ordering.order_created")
	bus.Subscribe(handler2, "ordering.order_created")

	event := newTestEvent("ordering.order_created", 6)
	err := bus.Publish(context.Background(), event)

	// Should not return error, but continue with other handlers
	require.NoError(t, err)
	assert.Len(t, handler1.getHandled(), 1)
	assert.Len(t, handler2.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_NoMatchingHandlers(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("identity.user_registered")
	bus.Subscribe(handler, "identity.user_registered")

	event := newTestEvent("ordering.order_created", 7)
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 0)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("ordering.order_created")
	bus.Subscribe(handler, "ordering.order_created")

	event1 := newTestEvent("ordering.order_created", 8)
	_ = bus.Publish(context.Background(), event1)
	assert.Len(t, handler.getHandled(), 1)

	bus.Unsubscribe(handler)

	event2 := newTestEvent("ordering.order_created", 9)
	_ = bus.Publish(context.Background(), event2)
	assert.Len(t, handler.getHandled(), 1) // Still 1, not 2
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	ctx := context.Background()
	err := bus.Start(ctx)
	require.NoError(t, err)

	// Can still publish after start
	handler := newTestHandler("ordering.order_created")
	bus.Subscribe(handler, "ordering.order_created")
	event := newTestEvent("ordering.order_created", 10)
	err = bus.Publish(ctx, event)
	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = bus.Stop(ctx)
	require.NoError(t, err)
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBusWithConfig(zap.NewNop(), BusConfig{Async: true, Workers: 3, BufferSize: 4})
	handler := newTestHandler("ordering.order_created")
	bus.Subscribe(handler)

	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	for i := int64(1); i <= 20; i++ {
		require.NoError(t, bus.Publish(ctx, newTestEvent("ordering.order_created", i)))
	}
	// handlers must not see the publisher's cancellation
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))

	handled := handler.getHandled()
	assert.Len(t, handled, 20)
	ids := make(map[int64]bool, len(handled))
	for _, e := range handled {
		ids[e.AggregateID()] = true
	}
	assert.Len(t, ids, 20)

	err := bus.Publish(context.Background(), newTestEvent("ordering.order_created", 21))
	assert.ErrorIs(t, err, ErrBusStopped)
}

func TestInMemoryEventBus_AsyncBeforeStartDeliversInline(t *testing.T) {
	bus := NewInMemoryEventBusWithConfig(zap.NewNop(), BusConfig{Async: true})
	handler := newTestHandler("ordering.order_created")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ordering.order_created", 1)))
	assert.Len(t, handler.getHandled(), 1)
}

type panicHandler struct{}

func (panicHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panicHandler) EventTypes() []string                             { return nil }

func TestInMemoryEventBus_HandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	after := newTestHandler("ordering.order_created")
	bus.Subscribe(panicHandler{})
	bus.Subscribe(after)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("ordering.order_created", 1))
	})
	assert.Len(t, after.getHandled(), 1)
}
