package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/linkmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL bounds how long a handled event ID is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotentHandler wraps an EventHandler so each event ID is handled at most once.
// A failed delivery is unmarked so a later redelivery can succeed.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotencyMetrics counts handler outcomes; one instance may be shared by several handlers
type IdempotencyMetrics struct {
	EventsProcessed atomic.Int64
	EventsDuplicate atomic.Int64
	EventsFailed    atomic.Int64
}

// NewIdempotentHandler wraps handler; a non-positive ttl uses DefaultIdempotencyTTL
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, logger: log, metrics: &IdempotencyMetrics{}}
}

// WrapHandlersWithIdempotency wraps every handler with one shared metrics instance
func WrapHandlersWithIdempotency(handlers []shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) ([]shared.EventHandler, *IdempotencyMetrics) {
	metrics := &IdempotencyMetrics{}
	wrapped := make([]shared.EventHandler, len(handlers))
	for i, h := range handlers {
		ih := NewIdempotentHandler(h, store, ttl, log)
		ih.metrics = metrics
		wrapped[i] = ih
	}
	return wrapped, metrics
}

// Metrics returns the handler's counters
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its ID was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := event.EventType() + ":" + event.EventID().String()

	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		// a store outage must not drop notifications
		h.logger.Warn("Idempotency check failed, handling anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	} else if !isNew {
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		h.metrics.EventsDuplicate.Add(1)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		if unmarkErr := h.store.Unmark(ctx, key); unmarkErr != nil {
			h.logger.Warn("Failed to unmark event", zap.String("key", key), zap.Error(unmarkErr))
		}
		h.metrics.EventsFailed.Add(1)
		return err
	}
	h.metrics.EventsProcessed.Add(1)
	return nil
}

// Ensure IdempotentHandler implements EventHandler
var _ shared.EventHandler = (*IdempotentHandler)(nil)
