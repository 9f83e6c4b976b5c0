package order

import (
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant for Order
const AggregateTypeOrder = "Order"

// Order domain event types
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderPaid          = "OrderPaid"
	EventTypeOrderPaymentFailed = "OrderPaymentFailed"
	EventTypeOrderCancelled     = "OrderCancelled"
	EventTypeOrderRefunded      = "OrderRefunded"
	EventTypeOrderItemAccepted  = "OrderItemAccepted"
	EventTypeOrderItemRejected  = "OrderItemRejected"
	EventTypeOrderItemPublished = "OrderItemPublished"
	EventTypeOrderCompleted     = "OrderCompleted"
	EventTypeOrderNeedsReview   = "OrderNeedsReview"
)

// OrderRef identifies the order an event is about
type OrderRef struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
}

func refOf(o *Order) OrderRef {
	return OrderRef{OrderID: o.ID, OrderNumber: o.OrderNumber, BuyerID: o.BuyerID}
}

func baseEvent(eventType string, o *Order) shared.BaseDomainEvent {
	return shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID)
}

// OrderCreatedEvent is published when checkout confirms an order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	PaymentMethod string            `json:"payment_method"`
	Total         valueobject.Money `json:"total"`
	ItemCount     int               `json:"item_count"`
	PublisherIDs  []uuid.UUID       `json:"publisher_ids"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderCreated, o),
		OrderRef:        refOf(o),
		PaymentMethod:   string(o.PaymentMethod),
		Total:           o.Total,
		ItemCount:       len(o.Items),
		PublisherIDs:    o.PublisherIDs(),
	}
}

// OrderPaidEvent is published once payment is confirmed
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderRef
	Total        valueobject.Money `json:"total"`
	PublisherIDs []uuid.UUID       `json:"publisher_ids"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderPaid, o),
		OrderRef:        refOf(o),
		Total:           o.Total,
		PublisherIDs:    o.PublisherIDs(),
	}
}

// OrderPaymentFailedEvent is published when a payment attempt fails or expires
type OrderPaymentFailedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	Reason string `json:"reason"`
}

// NewOrderPaymentFailedEvent creates a new OrderPaymentFailedEvent
func NewOrderPaymentFailedEvent(o *Order, reason string) *OrderPaymentFailedEvent {
	return &OrderPaymentFailedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderPaymentFailed, o),
		OrderRef:        refOf(o),
		Reason:          reason,
	}
}

// OrderCancelledEvent is published when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderRef
	Reason       string      `json:"reason"`
	WasPaid      bool        `json:"was_paid"`
	PublisherIDs []uuid.UUID `json:"publisher_ids"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderCancelled, o),
		OrderRef:        refOf(o),
		Reason:          o.CancelReason,
		WasPaid:         o.PaidAt != nil,
		PublisherIDs:    o.PublisherIDs(),
	}
}

// OrderRefundedEvent is published when an order is refunded
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	Amount       valueobject.Money `json:"amount"`
	Reason       string            `json:"reason"`
	PublisherIDs []uuid.UUID       `json:"publisher_ids"`
}

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(o *Order) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderRefunded, o),
		OrderRef:        refOf(o),
		Amount:          o.Total,
		Reason:          o.RefundReason,
		PublisherIDs:    o.PublisherIDs(),
	}
}

// ItemRef identifies the placement an item event is about
type ItemRef struct {
	ItemID       uuid.UUID     `json:"item_id"`
	PublisherID  uuid.UUID     `json:"publisher_id"`
	OutletID     uuid.UUID     `json:"outlet_id"`
	OutletDomain string        `json:"outlet_domain"`
	Niche        catalog.Niche `json:"niche"`
}

func itemRefOf(i *Item) ItemRef {
	return ItemRef{
		ItemID:       i.ID,
		PublisherID:  i.PublisherID,
		OutletID:     i.OutletID,
		OutletDomain: i.OutletDomain,
		Niche:        i.Niche,
	}
}

// OrderItemAcceptedEvent is published when a publisher accepts a placement
type OrderItemAcceptedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	ItemRef
}

// NewOrderItemAcceptedEvent creates a new OrderItemAcceptedEvent
func NewOrderItemAcceptedEvent(o *Order, i *Item) *OrderItemAcceptedEvent {
	return &OrderItemAcceptedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderItemAccepted, o),
		OrderRef:        refOf(o),
		ItemRef:         itemRefOf(i),
	}
}

// OrderItemRejectedEvent is published when a publisher declines a placement
type OrderItemRejectedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	ItemRef
	Reason string `json:"reason"`
}

// NewOrderItemRejectedEvent creates a new OrderItemRejectedEvent
func NewOrderItemRejectedEvent(o *Order, i *Item) *OrderItemRejectedEvent {
	return &OrderItemRejectedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderItemRejected, o),
		OrderRef:        refOf(o),
		ItemRef:         itemRefOf(i),
		Reason:          i.RejectionReason,
	}
}

// OrderItemPublishedEvent is published when a placement goes live
type OrderItemPublishedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	ItemRef
	PublishedURL string `json:"published_url"`
}

// NewOrderItemPublishedEvent creates a new OrderItemPublishedEvent
func NewOrderItemPublishedEvent(o *Order, i *Item) *OrderItemPublishedEvent {
	return &OrderItemPublishedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderItemPublished, o),
		OrderRef:        refOf(o),
		ItemRef:         itemRefOf(i),
		PublishedURL:    i.PublishedURL,
	}
}

// OrderCompletedEvent is published when every placement is settled
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderRef
	PublishedCount int `json:"published_count"`
	RejectedCount  int `json:"rejected_count"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(o *Order) *OrderCompletedEvent {
	counts := o.CountItems()
	return &OrderCompletedEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderCompleted, o),
		OrderRef:        refOf(o),
		PublishedCount:  counts[ItemStatusPublished],
		RejectedCount:   counts[ItemStatusRejected],
	}
}

// OrderNeedsReviewEvent is published when every placement was rejected
type OrderNeedsReviewEvent struct {
	shared.BaseDomainEvent
	OrderRef
	Total valueobject.Money `json:"total"`
}

// NewOrderNeedsReviewEvent creates a new OrderNeedsReviewEvent
func NewOrderNeedsReviewEvent(o *Order) *OrderNeedsReviewEvent {
	return &OrderNeedsReviewEvent{
		BaseDomainEvent: baseEvent(EventTypeOrderNeedsReview, o),
		OrderRef:        refOf(o),
		Total:           o.Total,
	}
}
