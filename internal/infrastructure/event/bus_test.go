package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type testAggregate struct {
	shared.BaseAggregateRoot
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	event := newTestEvent("TestEvent")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	paid := newTestHandler("OrderPaid")
	created := newTestHandler("OrderCreated")
	all := newTestHandler()
	bus.Subscribe(paid)
	bus.Subscribe(created)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newTestEvent("OrderCreated"),
		newTestEvent("OrderPaid"),
		newTestEvent("OrderPaid"),
	)
	require.NoError(t, err)

	assert.Len(t, paid.getHandled(), 2)
	assert.Len(t, created.getHandled(), 1)
	assert.Len(t, all.getHandled(), 3)
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("Ignored")
	bus.Subscribe(handler, "Wanted")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Ignored"), newTestEvent("Wanted")))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, "Wanted", handled[0].EventType())
}

func TestInMemoryEventBus_HandlerFailureDoesNotFailPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("TestEvent")
	failing.err = errors.New("boom")
	panicking := newTestHandler("TestEvent")
	panicking.panicWith = "kaboom"
	healthy := newTestHandler("TestEvent")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("A", "B")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Empty(t, handler.getHandled())
	assert.Zero(t, bus.registry.Len())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("TestEvent")), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, newTestEvent("TestEvent")))
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), newTestEvent("TestEvent"))
		}()
	}
	wg.Wait()

	assert.Len(t, handler.getHandled(), 50)
}

func TestPublishAggregateEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler)

	first := &testAggregate{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	first.AddDomainEvent(newTestEvent("One"))
	first.AddDomainEvent(newTestEvent("Two"))
	second := &testAggregate{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	second.AddDomainEvent(newTestEvent("Three"))

	require.NoError(t, PublishAggregateEvents(context.Background(), bus, first, second))

	handled := handler.getHandled()
	require.Len(t, handled, 3)
	assert.Equal(t, "One", handled[0].EventType())
	assert.Equal(t, "Three", handled[2].EventType())
	assert.Empty(t, first.GetDomainEvents())
	assert.Empty(t, second.GetDomainEvents())

	// nothing pending is a no-op
	require.NoError(t, PublishAggregateEvents(context.Background(), bus, first))
	assert.Len(t, handler.getHandled(), 3)
}
