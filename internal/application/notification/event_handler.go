package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/notification"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AdminDirectory resolves who receives admin notifications
type AdminDirectory interface {
	FindIDsByRole(ctx context.Context, role identity.Role) ([]uuid.UUID, error)
}

// EventHandler turns order and outlet events into notifications for
// the buyer, the affected publishers or the admins
type EventHandler struct {
	repo   notification.Repository
	admins AdminDirectory
	logger *zap.Logger
}

// NewEventHandler creates a new notification EventHandler
func NewEventHandler(repo notification.Repository, admins AdminDirectory, logger *zap.Logger) *EventHandler {
	return &EventHandler{repo: repo, admins: admins, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *EventHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderPaid,
		order.EventTypeOrderPaymentFailed,
		order.EventTypeOrderCancelled,
		order.EventTypeOrderRefunded,
		order.EventTypeOrderItemAccepted,
		order.EventTypeOrderItemRejected,
		order.EventTypeOrderItemPublished,
		order.EventTypeOrderCompleted,
		order.EventTypeOrderNeedsReview,
		catalog.EventTypeOutletStatusChanged,
	}
}

// outbox collects the notifications one event produces
type outbox struct {
	items []*notification.Notification
	err   error
}

func (b *outbox) add(userID uuid.UUID, typ notification.Type, title, message, link string) {
	if b.err != nil {
		return
	}
	n, err := notification.New(userID, typ, title, message, link)
	if err != nil {
		b.err = err
		return
	}
	b.items = append(b.items, n)
}

func (b *outbox) addAll(userIDs []uuid.UUID, typ notification.Type, title, message, link string) {
	for _, id := range userIDs {
		b.add(id, typ, title, message, link)
	}
}

// Handle writes the notifications for one event
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	box := &outbox{}

	switch e := event.(type) {
	case *order.OrderCreatedEvent:
		box.add(e.BuyerID, notification.TypeOrderCreated,
			fmt.Sprintf("Order %s placed", e.OrderNumber),
			fmt.Sprintf("Your order of %d placement(s) totalling %s was created.", e.ItemCount, e.Total),
			buyerOrderLink(e.OrderID))
		if e.PaymentMethod == string(checkout.PaymentMethodBankTransfer) {
			admins, err := h.adminIDs(ctx)
			if err != nil {
				return err
			}
			box.addAll(admins, notification.TypeOrderCreated,
				fmt.Sprintf("Bank transfer expected for %s", e.OrderNumber),
				fmt.Sprintf("Confirm the payment of %s once it arrives.", e.Total),
				adminOrderLink(e.OrderID))
		}

	case *order.OrderPaidEvent:
		box.add(e.BuyerID, notification.TypeOrderPaid,
			fmt.Sprintf("Payment received for %s", e.OrderNumber),
			"Publishers have been asked to review your placements.",
			buyerOrderLink(e.OrderID))
		box.addAll(e.PublisherIDs, notification.TypeOrderPaid,
			fmt.Sprintf("New placement request in %s", e.OrderNumber),
			"Review the content and accept or reject the placement.",
			publisherItemsLink(e.OrderID))

	case *order.OrderPaymentFailedEvent:
		box.add(e.BuyerID, notification.TypePaymentFailed,
			fmt.Sprintf("Payment for %s did not go through", e.OrderNumber),
			e.Reason+". You can retry the payment from the order page.",
			buyerOrderLink(e.OrderID))

	case *order.OrderCancelledEvent:
		box.add(e.BuyerID, notification.TypeOrderCancelled,
			fmt.Sprintf("Order %s cancelled", e.OrderNumber), e.Reason, buyerOrderLink(e.OrderID))
		if e.WasPaid {
			box.addAll(e.PublisherIDs, notification.TypeOrderCancelled,
				fmt.Sprintf("Order %s cancelled", e.OrderNumber),
				"No further work is needed on its placements.",
				publisherItemsLink(e.OrderID))
		}

	case *order.OrderRefundedEvent:
		box.add(e.BuyerID, notification.TypeOrderRefunded,
			fmt.Sprintf("Order %s refunded", e.OrderNumber),
			fmt.Sprintf("%s is on its way back to you.", e.Amount),
			buyerOrderLink(e.OrderID))
		box.addAll(e.PublisherIDs, notification.TypeOrderRefunded,
			fmt.Sprintf("Order %s refunded", e.OrderNumber),
			"The buyer was refunded; no further work is needed.",
			publisherItemsLink(e.OrderID))

	case *order.OrderItemAcceptedEvent:
		box.add(e.BuyerID, notification.TypeItemAccepted,
			fmt.Sprintf("%s accepted your placement", e.OutletDomain),
			fmt.Sprintf("Order %s: the publisher is preparing your %s placement.", e.OrderNumber, e.Niche),
			buyerOrderLink(e.OrderID))

	case *order.OrderItemRejectedEvent:
		box.add(e.BuyerID, notification.TypeItemRejected,
			fmt.Sprintf("%s rejected your placement", e.OutletDomain),
			fmt.Sprintf("Order %s: %s", e.OrderNumber, e.Reason),
			buyerOrderLink(e.OrderID))

	case *order.OrderItemPublishedEvent:
		box.add(e.BuyerID, notification.TypeItemPublished,
			fmt.Sprintf("Your article is live on %s", e.OutletDomain),
			e.PublishedURL,
			buyerOrderLink(e.OrderID))

	case *order.OrderCompletedEvent:
		box.add(e.BuyerID, notification.TypeOrderCompleted,
			fmt.Sprintf("Order %s completed", e.OrderNumber),
			fmt.Sprintf("%d placement(s) published, %d rejected.", e.PublishedCount, e.RejectedCount),
			buyerOrderLink(e.OrderID))

	case *order.OrderNeedsReviewEvent:
		admins, err := h.adminIDs(ctx)
		if err != nil {
			return err
		}
		box.addAll(admins, notification.TypeOrderNeedsReview,
			fmt.Sprintf("Order %s needs review", e.OrderNumber),
			fmt.Sprintf("Every placement was rejected; %s may need a refund.", e.Total),
			adminOrderLink(e.OrderID))

	case *catalog.OutletStatusChangedEvent:
		switch {
		case e.NewStatus == catalog.OutletStatusActive && e.OldStatus == catalog.OutletStatusPending:
			box.add(e.PublisherID, notification.TypeOutletApproved,
				fmt.Sprintf("%s was approved", e.Domain),
				"Your outlet is now listed in the marketplace.",
				publisherOutletLink(e.AggregateID()))
		case e.NewStatus == catalog.OutletStatusSuspended:
			box.add(e.PublisherID, notification.TypeOutletSuspended,
				fmt.Sprintf("%s was suspended", e.Domain),
				e.Reason,
				publisherOutletLink(e.AggregateID()))
		}

	default:
		h.logger.Warn("Unexpected event type for notifications", zap.String("event_type", event.EventType()))
		return nil
	}

	if box.err != nil {
		return fmt.Errorf("build notifications for %s: %w", event.EventType(), box.err)
	}
	if len(box.items) == 0 {
		return nil
	}
	if err := h.repo.SaveAll(ctx, box.items); err != nil {
		return fmt.Errorf("save notifications for %s: %w", event.EventType(), err)
	}
	h.logger.Debug("Notifications created",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Int("count", len(box.items)))
	return nil
}

func (h *EventHandler) adminIDs(ctx context.Context) ([]uuid.UUID, error) {
	if h.admins == nil {
		return nil, nil
	}
	ids, err := h.admins.FindIDsByRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("find admins: %w", err)
	}
	return ids, nil
}

func buyerOrderLink(orderID uuid.UUID) string {
	return "/orders/" + orderID.String()
}

func adminOrderLink(orderID uuid.UUID) string {
	return "/admin/orders/" + orderID.String()
}

func publisherItemsLink(orderID uuid.UUID) string {
	return "/publisher/items?order_id=" + orderID.String()
}

func publisherOutletLink(outletID uuid.UUID) string {
	return "/publisher/outlets/" + outletID.String()
}

var _ shared.EventHandler = (*EventHandler)(nil)
