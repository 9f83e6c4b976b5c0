package checkout

import (
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant for Session
const AggregateTypeCheckoutSession = "CheckoutSession"

// Checkout domain event types
const (
	EventTypeCheckoutStarted       = "CheckoutStarted"
	EventTypeCheckoutStepCompleted = "CheckoutStepCompleted"
	EventTypeCheckoutSubmitted     = "CheckoutSubmitted"
	EventTypeCheckoutAbandoned     = "CheckoutAbandoned"
)

// CheckoutStartedEvent is published when a buyer starts the wizard
type CheckoutStartedEvent struct {
	shared.BaseDomainEvent
	BuyerID   uuid.UUID         `json:"buyer_id"`
	LineCount int               `json:"line_count"`
	Total     valueobject.Money `json:"total"`
}

// NewCheckoutStartedEvent creates a new CheckoutStartedEvent
func NewCheckoutStartedEvent(s *Session) *CheckoutStartedEvent {
	return &CheckoutStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutStarted, AggregateTypeCheckoutSession, s.ID),
		BuyerID:         s.BuyerID,
		LineCount:       len(s.Lines),
		Total:           s.Total,
	}
}

// CheckoutStepCompletedEvent is published each time a step validates and the wizard moves on
type CheckoutStepCompletedEvent struct {
	shared.BaseDomainEvent
	BuyerID uuid.UUID `json:"buyer_id"`
	Step    Step      `json:"step"`
}

// NewCheckoutStepCompletedEvent creates a new CheckoutStepCompletedEvent
func NewCheckoutStepCompletedEvent(s *Session, step Step) *CheckoutStepCompletedEvent {
	return &CheckoutStepCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutStepCompleted, AggregateTypeCheckoutSession, s.ID),
		BuyerID:         s.BuyerID,
		Step:            step,
	}
}

// CheckoutSubmittedEvent is published when the order has been created
type CheckoutSubmittedEvent struct {
	shared.BaseDomainEvent
	BuyerID       uuid.UUID     `json:"buyer_id"`
	OrderID       uuid.UUID     `json:"order_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// NewCheckoutSubmittedEvent creates a new CheckoutSubmittedEvent
func NewCheckoutSubmittedEvent(s *Session) *CheckoutSubmittedEvent {
	e := &CheckoutSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutSubmitted, AggregateTypeCheckoutSession, s.ID),
		BuyerID:         s.BuyerID,
		PaymentMethod:   s.PaymentMethod,
	}
	if s.OrderID != nil {
		e.OrderID = *s.OrderID
	}
	return e
}

// CheckoutAbandonedEvent is published when a newer session replaces an active one
type CheckoutAbandonedEvent struct {
	shared.BaseDomainEvent
	BuyerID uuid.UUID `json:"buyer_id"`
	Step    Step      `json:"step"`
}

// NewCheckoutAbandonedEvent creates a new CheckoutAbandonedEvent
func NewCheckoutAbandonedEvent(s *Session) *CheckoutAbandonedEvent {
	return &CheckoutAbandonedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutAbandoned, AggregateTypeCheckoutSession, s.ID),
		BuyerID:         s.BuyerID,
		Step:            s.Step,
	}
}
