package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const webhookKeyPrefix = "stripe:event:"

// WebhookServiceConfig contains configuration for WebhookService
type WebhookServiceConfig struct {
	Gateway     payment.Gateway
	Orders      Orders
	Idempotency shared.IdempotencyStore
	DedupeTTL   time.Duration
	Logger      *zap.Logger
}

// WebhookService applies verified gateway notifications to orders
type WebhookService struct {
	gateway     payment.Gateway
	orders      Orders
	idempotency shared.IdempotencyStore
	dedupeTTL   time.Duration
	logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	ttl := cfg.DedupeTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &WebhookService{
		gateway:     cfg.Gateway,
		orders:      cfg.Orders,
		idempotency: cfg.Idempotency,
		dedupeTTL:   ttl,
		logger:      cfg.Logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and applies one notification. Only a bad signature
// is returned as an error; processing failures are reported in the result.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, payment.ErrInvalidSignature
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Processed: true,
	}

	if !s.claim(ctx, event.ID) {
		s.logger.Debug("Duplicate webhook event", zap.String("event_id", event.ID))
		result.Duplicate = true
		result.Message = payment.ErrAlreadyProcessed.Error()
		return result, nil
	}

	s.logger.Info("Processing payment webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("session_id", event.SessionID))

	switch event.Type {
	case payment.EventCheckoutSessionCompleted:
		if event.PaymentStatus != "paid" {
			// delayed payment methods settle through async_payment_succeeded
			result.Message = "Awaiting asynchronous payment"
			break
		}
		err = s.handlePaid(ctx, event)
	case payment.EventCheckoutSessionAsyncSucceeded:
		err = s.handlePaid(ctx, event)
	case payment.EventCheckoutSessionAsyncFailed:
		err = s.handleFailed(ctx, event, "Payment failed")
	case payment.EventCheckoutSessionExpired:
		err = s.handleFailed(ctx, event, "Payment session expired")
	case payment.EventChargeRefunded:
		err = s.handleRefunded(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", event.Type))
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		s.release(ctx, event.ID)
		result.Processed = false
		result.Message = err.Error()
	}
	return result, nil
}

func (s *WebhookService) handlePaid(ctx context.Context, event *payment.WebhookEvent) error {
	if err := requireOrderContext(event); err != nil {
		return err
	}
	_, err := s.orders.MarkPaid(ctx, event.OrderID, event.SessionID, event.PaymentIntentID)
	return err
}

func (s *WebhookService) handleFailed(ctx context.Context, event *payment.WebhookEvent, reason string) error {
	if err := requireOrderContext(event); err != nil {
		return err
	}
	_, err := s.orders.MarkPaymentFailed(ctx, event.OrderID, event.SessionID, reason)
	return err
}

func (s *WebhookService) handleRefunded(ctx context.Context, event *payment.WebhookEvent) error {
	if event.PaymentIntentID == "" && event.OrderID == uuid.Nil {
		return payment.ErrMissingOrderContext
	}
	_, err := s.orders.MarkRefunded(ctx, event.OrderID, event.PaymentIntentID, event.FullyRefunded)
	return err
}

// claim reports whether this delivery should be handled. A broken store
// lets the event through; every order transition tolerates repeats.
func (s *WebhookService) claim(ctx context.Context, eventID string) bool {
	if s.idempotency == nil || eventID == "" {
		return true
	}
	ok, err := s.idempotency.MarkProcessed(ctx, webhookKeyPrefix+eventID, s.dedupeTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, processing anyway",
			zap.String("event_id", eventID),
			zap.Error(err))
		return true
	}
	return ok
}

func (s *WebhookService) release(ctx context.Context, eventID string) {
	if s.idempotency == nil || eventID == "" {
		return
	}
	if err := s.idempotency.Unmark(ctx, webhookKeyPrefix+eventID); err != nil {
		s.logger.Warn("Failed to release webhook event", zap.String("event_id", eventID), zap.Error(err))
	}
}

func requireOrderContext(event *payment.WebhookEvent) error {
	if event.OrderID == uuid.Nil && event.SessionID == "" {
		return payment.ErrMissingOrderContext
	}
	return nil
}

// IsSignatureError reports whether err means the webhook could not be authenticated
func IsSignatureError(err error) bool {
	return errors.Is(err, payment.ErrInvalidSignature)
}
