package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventHandler is a mock implementation of shared.EventHandler
type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Unmark(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func TestIdempotentHandler_Handle_NewEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	mockHandler := new(MockEventHandler)
	event := newTestEvent("OrderPaid")

	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(mockHandler, store, 0, zap.NewNop())
	require.NoError(t, handler.Handle(context.Background(), event))

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
	assert.Zero(t, handler.Metrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_Handle_DuplicateEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	mockHandler := new(MockEventHandler)
	event := newTestEvent("OrderPaid")

	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, time.Hour, zap.NewNop())
	for range 3 {
		require.NoError(t, handler.Handle(context.Background(), event))
	}

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
	assert.Equal(t, int64(2), handler.Metrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_Handle_FailureAllowsRedelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	mockHandler := new(MockEventHandler)
	event := newTestEvent("OrderPaid")
	expectedErr := errors.New("database unavailable")

	mockHandler.On("Handle", mock.Anything, event).Return(expectedErr).Once()
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, time.Hour, zap.NewNop())

	err := handler.Handle(context.Background(), event)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, int64(1), handler.Metrics().EventsFailed.Load())

	require.NoError(t, handler.Handle(context.Background(), event))
	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
}

func TestIdempotentHandler_Handle_StoreError(t *testing.T) {
	mockStore := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newTestEvent("OrderPaid")
	key := "OrderPaid:" + event.EventID().String()

	mockStore.On("MarkProcessed", mock.Anything, key, DefaultIdempotencyTTL).
		Return(false, errors.New("store error"))
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(mockHandler, mockStore, 0, zap.NewNop())
	require.NoError(t, handler.Handle(context.Background(), event))

	mockStore.AssertExpectations(t)
	mockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	mockHandler := new(MockEventHandler)
	expected := []string{"OrderPaid", "OrderRefunded"}
	mockHandler.On("EventTypes").Return(expected)

	handler := NewIdempotentHandler(mockHandler, cache.NewInMemoryIdempotencyStore(), 0, zap.NewNop())
	assert.Equal(t, expected, handler.EventTypes())
}

func TestWrapHandlersWithIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	h1, h2 := new(MockEventHandler), new(MockEventHandler)
	e1, e2 := newTestEvent("A"), newTestEvent("B")
	h1.On("Handle", mock.Anything, e1).Return(nil)
	h2.On("Handle", mock.Anything, e2).Return(nil)

	wrapped, metrics := WrapHandlersWithIdempotency([]shared.EventHandler{h1, h2}, store, time.Hour, zap.NewNop())
	require.Len(t, wrapped, 2)
	for _, h := range wrapped {
		assert.IsType(t, &IdempotentHandler{}, h)
	}

	require.NoError(t, wrapped[0].Handle(context.Background(), e1))
	require.NoError(t, wrapped[1].Handle(context.Background(), e2))
	assert.Equal(t, int64(2), metrics.EventsProcessed.Load())
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	mockHandler := new(MockEventHandler)
	event := newTestEvent("OrderPaid")
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, time.Hour, zap.NewNop())

	const workers = 50
	errs := make(chan error, workers)
	for range workers {
		go func() { errs <- handler.Handle(context.Background(), event) }()
	}
	for range workers {
		assert.NoError(t, <-errs)
	}

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.Metrics().EventsProcessed.Load())
	assert.Equal(t, int64(workers-1), handler.Metrics().EventsDuplicate.Load())
}
