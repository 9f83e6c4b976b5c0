package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound     = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	ErrRefundUnavailable = shared.NewDomainError("REFUND_UNAVAILABLE", "Card refunds are not available right now")
)

// conflictRetries bounds reload-and-retry on optimistic lock conflicts
const conflictRetries = 3

// Payments is what the order flow needs from the card payment side
type Payments interface {
	// RefundPayment returns the captured amount of a card order to the buyer
	RefundPayment(ctx context.Context, o *order.Order, reason string) error
	// ExpirePaymentSession closes the order's open payment page; failures are only logged
	ExpirePaymentSession(ctx context.Context, o *order.Order)
}

// OrderService handles orders for buyers, publishers and admins, and applies payment outcomes
type OrderService struct {
	orderRepo      order.Repository
	sessionRepo    checkout.SessionRepository
	payments       Payments
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.Repository, sessionRepo checkout.SessionRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// SetPayments enables card refunds and payment page cancellation
func (s *OrderService) SetPayments(payments Payments) {
	s.payments = payments
}

// SetEventPublisher sets the event publisher for order events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ListMyOrders lists the buyer's orders
func (s *OrderService) ListMyOrders(ctx context.Context, buyerID uuid.UUID, q ListOrdersQuery) (shared.Paginated[*OrderResponse], error) {
	q.BuyerID = &buyerID
	return s.list(ctx, q)
}

// GetMyOrder returns one of the buyer's orders
func (s *OrderService) GetMyOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.ownedOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// CancelOrder cancels an order that is still awaiting payment
func (s *OrderService) CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID, req CancelRequest) (*OrderResponse, error) {
	o, err := s.ownedOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPendingPayment {
		return nil, order.ErrNotCancellable
	}
	if err := o.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	s.expireSession(ctx, o)

	s.logger.Info("Order cancelled by buyer", zap.String("order_id", o.ID.String()), zap.String("order_number", o.OrderNumber))
	return ToOrderResponse(o), nil
}

// ListPublisherItems lists items on the publisher's outlets for paid orders
func (s *OrderService) ListPublisherItems(ctx context.Context, publisherID uuid.UUID, q ListItemsQuery) (shared.Paginated[*PublisherItemResponse], error) {
	filter := order.ItemFilter{Filter: shared.DefaultFilter(), PublisherID: publisherID, OutletID: q.OutletID}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.SortBy != "" {
		filter.OrderBy = q.SortBy
	}
	if q.SortOrder != "" {
		filter.OrderDir = q.SortOrder
	}
	if q.Status != "" {
		status := order.ItemStatus(q.Status)
		filter.Status = &status
	}
	filter.Normalize()

	items, total, err := s.orderRepo.FindItemsByPublisher(ctx, filter)
	if err != nil {
		return shared.Paginated[*PublisherItemResponse]{}, err
	}
	out := make([]*PublisherItemResponse, len(items))
	for i := range items {
		out[i] = ToPublisherItemResponse(items[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// AcceptItem is the publisher taking on a placement
func (s *OrderService) AcceptItem(ctx context.Context, publisherID, itemID uuid.UUID) (*PublisherItemResponse, error) {
	return s.itemAction(ctx, itemID, func(o *order.Order) error {
		return o.AcceptItem(itemID, publisherID)
	})
}

// RejectItem is the publisher declining a placement
func (s *OrderService) RejectItem(ctx context.Context, publisherID, itemID uuid.UUID, req RejectItemRequest) (*PublisherItemResponse, error) {
	return s.itemAction(ctx, itemID, func(o *order.Order) error {
		return o.RejectItem(itemID, publisherID, req.Reason)
	})
}

// PublishItem records the live URL of an accepted placement
func (s *OrderService) PublishItem(ctx context.Context, publisherID, itemID uuid.UUID, req PublishItemRequest) (*PublisherItemResponse, error) {
	return s.itemAction(ctx, itemID, func(o *order.Order) error {
		return o.PublishItem(itemID, publisherID, req.URL)
	})
}

// ListOrders is the admin listing over all buyers
func (s *OrderService) ListOrders(ctx context.Context, q ListOrdersQuery) (shared.Paginated[*OrderResponse], error) {
	return s.list(ctx, q)
}

// GetOrder returns any order (admin)
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// UpdateStatus is the admin override; it follows the order status machine
func (s *OrderService) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.Status(req.Status)
	if target == order.StatusRefunded {
		return s.RefundOrder(ctx, adminID, orderID, RefundRequest{Reason: req.Reason})
	}

	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := o.ChangeStatus(target, req.Reason); err != nil {
		return nil, err
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	if target == order.StatusCancelled {
		s.expireSession(ctx, o)
	}
	if target == order.StatusPaid {
		s.completeCheckout(ctx, o)
	}

	s.logger.Info("Order status changed by admin",
		zap.String("order_id", o.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)))
	return ToOrderResponse(o), nil
}

// MarkBankTransferPaid confirms that a bank transfer arrived
func (s *OrderService) MarkBankTransferPaid(ctx context.Context, adminID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.MarkBankTransferPaid(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	s.completeCheckout(ctx, o)

	s.logger.Info("Bank transfer confirmed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("admin_id", adminID.String()))
	return ToOrderResponse(o), nil
}

// RefundOrder refunds a paid order. Card payments are refunded through the
// gateway before the order changes; bank transfers are refunded offline.
func (s *OrderService) RefundOrder(ctx context.Context, adminID, orderID uuid.UUID, req RefundRequest) (*OrderResponse, error) {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusRefunded {
		return ToOrderResponse(o), nil
	}
	if !o.Status.CanTransitionTo(order.StatusRefunded) {
		return nil, order.ErrInvalidTransition
	}

	if o.IsCardPayment() {
		if s.payments == nil {
			return nil, ErrRefundUnavailable
		}
		if err := s.payments.RefundPayment(ctx, o, req.Reason); err != nil {
			s.logger.Error("Card refund failed", zap.String("order_id", o.ID.String()), zap.Error(err))
			return nil, err
		}
	}

	err = s.retryOnConflict(ctx, o, func(o *order.Order) error {
		return o.Refund(req.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order refunded",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("admin_id", adminID.String()))
	return ToOrderResponse(o), nil
}

// AttachPaymentSession records the hosted payment page opened for a card order
func (s *OrderService) AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return err
	}
	return s.retryOnConflict(ctx, o, func(o *order.Order) error {
		return o.AttachPaymentSession(sessionID)
	})
}

// MarkPaid applies a successful card payment. The order is looked up by
// payment session first and by ID second; repeated notices are no-ops.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, sessionID, paymentIntentID string) (*order.Order, error) {
	o, err := s.findForPayment(ctx, orderID, sessionID)
	if err != nil {
		return nil, err
	}
	err = s.retryOnConflict(ctx, o, func(o *order.Order) error {
		return o.MarkPaid(paymentIntentID)
	})
	if err != nil {
		return nil, err
	}
	s.completeCheckout(ctx, o)

	s.logger.Info("Order paid",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_intent_id", paymentIntentID))
	return o, nil
}

// MarkPaymentFailed records a failed or expired payment attempt
func (s *OrderService) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, sessionID, reason string) (*order.Order, error) {
	o, err := s.findForPayment(ctx, orderID, sessionID)
	if err != nil {
		return nil, err
	}
	if sessionID != "" && o.StripeSessionID != "" && o.StripeSessionID != sessionID {
		// a superseded payment page expiring says nothing about the current one
		s.logger.Debug("Ignoring failure of superseded payment session",
			zap.String("order_id", o.ID.String()),
			zap.String("session_id", sessionID))
		return o, nil
	}
	err = s.retryOnConflict(ctx, o, func(o *order.Order) error {
		return o.MarkPaymentFailed(reason)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkRefunded applies a refund made at the gateway. Partial refunds are only logged.
func (s *OrderService) MarkRefunded(ctx context.Context, orderID uuid.UUID, paymentIntentID string, full bool) (*order.Order, error) {
	o, err := s.orderRepo.FindByPaymentIntentID(ctx, paymentIntentID)
	if errors.Is(err, shared.ErrNotFound) && orderID != uuid.Nil {
		o, err = s.orderRepo.FindByID(ctx, orderID)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !full {
		s.logger.Info("Partial refund recorded at gateway",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_intent_id", paymentIntentID))
		return o, nil
	}
	if o.PaymentStatus == order.PaymentStatusRefunded {
		return o, nil
	}
	err = s.retryOnConflict(ctx, o, func(o *order.Order) error {
		return o.MarkPaymentRefunded("Refunded at payment provider")
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// OwnedOrder loads one of the buyer's orders for the payment flow
func (s *OrderService) OwnedOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*order.Order, error) {
	return s.ownedOrder(ctx, buyerID, orderID)
}

func (s *OrderService) list(ctx context.Context, q ListOrdersQuery) (shared.Paginated[*OrderResponse], error) {
	filter := order.Filter{Filter: shared.DefaultFilter(), BuyerID: q.BuyerID}
	filter.Search = q.Search
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.SortBy != "" {
		filter.OrderBy = q.SortBy
	}
	if q.SortOrder != "" {
		filter.OrderDir = q.SortOrder
	}
	if q.Status != "" {
		status := order.Status(q.Status)
		filter.Status = &status
	}
	if q.PaymentStatus != "" {
		ps := order.PaymentStatus(q.PaymentStatus)
		filter.PaymentStatus = &ps
	}
	filter.Normalize()

	orders, total, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*OrderResponse]{}, err
	}
	out := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

func (s *OrderService) itemAction(ctx context.Context, itemID uuid.UUID, fn func(*order.Order) error) (*PublisherItemResponse, error) {
	o, err := s.orderRepo.FindByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, order.ErrItemNotFound
		}
		return nil, err
	}
	if err := s.retryOnConflict(ctx, o, fn); err != nil {
		return nil, err
	}

	item, _ := o.Item(itemID)
	s.logger.Info("Order item updated",
		zap.String("order_id", o.ID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("item_status", string(item.Status)),
		zap.String("order_status", string(o.Status)))
	return ToPublisherItemResponse(order.PublisherItem{
		Item:        *item,
		OrderNumber: o.OrderNumber,
		OrderStatus: o.Status,
		OrderedAt:   o.CreatedAt,
	}), nil
}

func (s *OrderService) find(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *OrderService) ownedOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(buyerID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) findForPayment(ctx context.Context, orderID uuid.UUID, sessionID string) (*order.Order, error) {
	if sessionID != "" {
		o, err := s.orderRepo.FindByStripeSessionID(ctx, sessionID)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if orderID == uuid.Nil {
		return nil, ErrOrderNotFound
	}
	return s.find(ctx, orderID)
}

// retryOnConflict applies fn and saves; on a version conflict it reloads the order and tries again
func (s *OrderService) retryOnConflict(ctx context.Context, o *order.Order, fn func(*order.Order) error) error {
	current := o
	for attempt := 1; ; attempt++ {
		if err := fn(current); err != nil {
			return err
		}
		err := s.save(ctx, current)
		if err == nil {
			if current != o {
				*o = *current
			}
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= conflictRetries {
			return err
		}
		s.logger.Debug("Order changed concurrently, retrying",
			zap.String("order_id", o.ID.String()),
			zap.Int("attempt", attempt))
		current, err = s.orderRepo.FindByID(ctx, o.ID)
		if err != nil {
			return err
		}
	}
}

func (s *OrderService) save(ctx context.Context, o *order.Order) error {
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return err
	}
	if err := event.PublishAggregateEvents(ctx, s.eventPublisher, o); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *OrderService) expireSession(ctx context.Context, o *order.Order) {
	if s.payments == nil || !o.IsCardPayment() || o.StripeSessionID == "" {
		return
	}
	s.payments.ExpirePaymentSession(ctx, o)
}

// completeCheckout closes the checkout session that produced a paid order
func (s *OrderService) completeCheckout(ctx context.Context, o *order.Order) {
	if s.sessionRepo == nil {
		return
	}
	session, err := s.sessionRepo.FindByOrderID(ctx, o.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to load checkout session for paid order", zap.String("order_id", o.ID.String()), zap.Error(err))
		}
		return
	}
	if session.Status == checkout.SessionStatusCompleted {
		return
	}
	if err := session.MarkCompleted(); err != nil {
		s.logger.Warn("Cannot complete checkout session", zap.String("session_id", session.ID.String()), zap.Error(err))
		return
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		s.logger.Warn("Failed to save completed checkout session", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
}
