package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/linkmarket/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var ErrRetryNotAllowed = shared.NewDomainError("PAYMENT_RETRY_NOT_ALLOWED", "Payment can only be retried for unpaid card orders")

// Orders is the slice of the order flow the payment side drives
type Orders interface {
	OwnedOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*order.Order, error)
	AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, sessionID, paymentIntentID string) (*order.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, sessionID, reason string) (*order.Order, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID, paymentIntentID string, full bool) (*order.Order, error)
}

// ErrorRecorder counts failed gateway calls by category
type ErrorRecorder interface {
	RecordPaymentError(ctx context.Context, operation string, category payment.ErrorCategory)
}

// Options tunes session creation
type Options struct {
	Currency             valueobject.Currency
	SuccessURL           string
	CancelURL            string
	SessionExpiry        time.Duration
	MaxRetries           int
	RetryInitialInterval time.Duration
}

// OptionsFromConfig maps the stripe settings onto Options
func OptionsFromConfig(cfg config.StripeConfig) Options {
	currency, err := valueobject.ParseCurrency(cfg.Currency)
	if err != nil {
		currency = valueobject.DefaultCurrency
	}
	return Options{
		Currency:             currency,
		SuccessURL:           cfg.SuccessURL,
		CancelURL:            cfg.CancelURL,
		SessionExpiry:        cfg.SessionExpiry,
		MaxRetries:           cfg.MaxRetries,
		RetryInitialInterval: cfg.RetryInitialInterval,
	}
}

// PaymentService opens hosted payment pages for card orders and issues refunds
type PaymentService struct {
	gateway  payment.Gateway
	orders   Orders
	opts     Options
	recorder ErrorRecorder
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(gateway payment.Gateway, orders Orders, opts Options, logger *zap.Logger) *PaymentService {
	if opts.Currency == "" {
		opts.Currency = valueobject.DefaultCurrency
	}
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &PaymentService{
		gateway: gateway,
		orders:  orders,
		opts:    opts,
		logger:  logger,
	}
}

// SetErrorRecorder sets where failed gateway calls are counted
func (s *PaymentService) SetErrorRecorder(r ErrorRecorder) {
	s.recorder = r
}

// StartPayment opens the first payment page for a freshly confirmed order
func (s *PaymentService) StartPayment(ctx context.Context, o *order.Order) (*checkoutapp.PaymentRedirect, error) {
	return s.CreateSessionForOrder(ctx, o, sessionKey(o, ""))
}

// CreateSessionForOrder creates a gateway session for the order and attaches it.
// Only transient failures are retried; the idempotency key is the same on every attempt.
func (s *PaymentService) CreateSessionForOrder(ctx context.Context, o *order.Order, idempotencyKey string) (*checkoutapp.PaymentRedirect, error) {
	if !o.CanRetryPayment() {
		return nil, ErrRetryNotAllowed
	}
	input := s.sessionInput(o, idempotencyKey)

	var session *payment.CheckoutSession
	attempts := 0
	op := func() error {
		attempts++
		var err error
		session, err = s.gateway.CreateCheckoutSession(ctx, input)
		if err == nil {
			return nil
		}
		if payment.CategoryOf(err).Retryable() {
			s.logger.Warn("Payment session creation failed, retrying",
				zap.String("order_id", o.ID.String()),
				zap.Int("attempt", attempts),
				zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, s.backOff(ctx)); err != nil {
		s.recordError(ctx, "create_session", err)
		s.logger.Error("Failed to create payment session",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempts", attempts),
			zap.String("category", payment.CategoryOf(err).String()),
			zap.Error(err))
		return nil, err
	}

	if err := s.orders.AttachPaymentSession(ctx, o.ID, session.ID); err != nil {
		// the session exists at the gateway but the order cannot be paid through it
		if expErr := s.gateway.ExpireCheckoutSession(ctx, session.ID); expErr != nil {
			s.logger.Warn("Failed to expire orphaned payment session",
				zap.String("session_id", session.ID),
				zap.Error(expErr))
		}
		return nil, err
	}
	o.StripeSessionID = session.ID

	s.logger.Info("Payment session created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("session_id", session.ID),
		zap.Int("attempts", attempts))

	return &checkoutapp.PaymentRedirect{
		SessionID: session.ID,
		URL:       session.URL,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// RetryPayment replaces the payment page of an unpaid card order
func (s *PaymentService) RetryPayment(ctx context.Context, buyerID, orderID uuid.UUID) (*checkoutapp.PaymentRedirect, error) {
	o, err := s.orders.OwnedOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanRetryPayment() || o.PaymentStatus == order.PaymentStatusPaid {
		return nil, ErrRetryNotAllowed
	}
	previous := o.StripeSessionID
	if previous != "" {
		s.ExpirePaymentSession(ctx, o)
	}
	return s.CreateSessionForOrder(ctx, o, sessionKey(o, previous))
}

// ExpirePaymentSession closes the order's open payment page, best effort
func (s *PaymentService) ExpirePaymentSession(ctx context.Context, o *order.Order) {
	if o.StripeSessionID == "" {
		return
	}
	err := s.gateway.ExpireCheckoutSession(ctx, o.StripeSessionID)
	if err != nil && !errors.Is(err, payment.ErrSessionNotFound) {
		s.logger.Warn("Failed to expire payment session",
			zap.String("order_id", o.ID.String()),
			zap.String("session_id", o.StripeSessionID),
			zap.Error(err))
	}
}

// RefundPayment returns the full captured amount of a card order
func (s *PaymentService) RefundPayment(ctx context.Context, o *order.Order, reason string) error {
	if o.StripePaymentIntentID == "" {
		return payment.ErrNothingToRefund
	}
	result, err := s.gateway.Refund(ctx, payment.RefundInput{
		PaymentIntentID: o.StripePaymentIntentID,
		Reason:          reason,
		IdempotencyKey:  fmt.Sprintf("order-%s-refund", o.ID),
		Metadata: map[string]string{
			"order_id":     o.ID.String(),
			"order_number": o.OrderNumber,
		},
	})
	if err != nil {
		s.recordError(ctx, "refund", err)
		s.logger.Error("Refund failed",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_intent_id", o.StripePaymentIntentID),
			zap.Error(err))
		return err
	}
	s.logger.Info("Refund issued",
		zap.String("order_id", o.ID.String()),
		zap.String("refund_id", result.ID),
		zap.String("status", result.Status),
		zap.Int64("amount", result.Amount))
	return nil
}

func (s *PaymentService) sessionInput(o *order.Order, idempotencyKey string) payment.CheckoutSessionInput {
	lines := make([]payment.LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, payment.LineItem{
			Name:        fmt.Sprintf("%s – %s", item.OutletDomain, item.Niche),
			Description: item.OutletName,
			Amount:      item.Price,
			Quantity:    1,
		})
	}
	currency := o.Currency
	if currency == "" {
		currency = s.opts.Currency
	}
	id := o.ID.String()
	return payment.CheckoutSessionInput{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		BuyerID:        o.BuyerID,
		CustomerEmail:  o.Billing.Email,
		Currency:       currency,
		LineItems:      lines,
		SuccessURL:     config.OrderURL(s.opts.SuccessURL, id),
		CancelURL:      config.OrderURL(s.opts.CancelURL, id),
		IdempotencyKey: idempotencyKey,
		ExpiresAfter:   s.opts.SessionExpiry,
	}
}

func (s *PaymentService) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryInitialInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.MaxRetries)), ctx)
}

func (s *PaymentService) recordError(ctx context.Context, operation string, err error) {
	if s.recorder != nil {
		s.recorder.RecordPaymentError(ctx, operation, payment.CategoryOf(err))
	}
}

// sessionKey keys the first attempt by order and each retry by the session it replaces
func sessionKey(o *order.Order, previousSessionID string) string {
	if previousSessionID == "" {
		return fmt.Sprintf("order-%s-session", o.ID)
	}
	return fmt.Sprintf("order-%s-session-%s", o.ID, previousSessionID)
}
