package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// LineItem is one row on the hosted payment page
type LineItem struct {
	Name        string
	Description string
	Amount      valueobject.Money
	Quantity    int64
}

// CheckoutSessionInput describes a hosted payment page for one order
type CheckoutSessionInput struct {
	OrderID        uuid.UUID
	OrderNumber    string
	BuyerID        uuid.UUID
	CustomerEmail  string
	Currency       valueobject.Currency
	LineItems      []LineItem
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	ExpiresAfter   time.Duration
	ExtraMetadata  map[string]string
}

// SessionStatus mirrors the gateway's checkout session state
type SessionStatus string

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

// CheckoutSession is the gateway's view of a hosted payment page
type CheckoutSession struct {
	ID              string
	URL             string
	Status          SessionStatus
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	ExpiresAt       time.Time
	Metadata        map[string]string
}

// RefundInput asks the gateway to return money for a payment
type RefundInput struct {
	PaymentIntentID string
	// Amount zero refunds the full payment
	Amount          valueobject.Money
	Reason          string
	IdempotencyKey  string
	Metadata        map[string]string
}

// RefundResult is the gateway's answer to a refund
type RefundResult struct {
	ID     string
	Status string
	Amount int64
}

// Webhook event types handled by the payment flow
const (
	EventCheckoutSessionCompleted      = "checkout.session.completed"
	EventCheckoutSessionAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionAsyncFailed    = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired        = "checkout.session.expired"
	EventChargeRefunded                = "charge.refunded"
)

// WebhookEvent is a verified gateway notification reduced to what the order flow needs
type WebhookEvent struct {
	ID              string
	Type            string
	Created         time.Time
	SessionID       string
	PaymentStatus   string
	PaymentIntentID string
	OrderID         uuid.UUID
	OrderNumber     string
	AmountRefunded  int64
	FullyRefunded   bool
}

// Gateway is the port to the card payment provider
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// ExpireCheckoutSession closes an open session so it can no longer be paid
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
	// ParseWebhook verifies the signature and decodes the payload; ErrInvalidSignature on failure
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
