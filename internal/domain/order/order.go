package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// OrderNumberPrefix starts every order number
const OrderNumberPrefix = "LM"

// FormatOrderNumber renders an order number as LM-YYYY-NNNNN
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", OrderNumberPrefix, year, seq)
}

// Order is the aggregate root for a buyer's purchase of one or more placements
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber           string
	BuyerID               uuid.UUID
	CheckoutSessionID     uuid.UUID
	Status                Status
	PaymentMethod         checkout.PaymentMethod
	PaymentStatus         PaymentStatus
	Billing               checkout.BillingInfo
	Items                 []Item
	Subtotal              valueobject.Money
	Total                 valueobject.Money
	Currency              valueobject.Currency
	StripeSessionID       string
	StripePaymentIntentID string
	PaidAt                *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string
	RefundedAt            *time.Time
	RefundReason          string
}

// NewOrderFromCheckout builds an order from a checkout session that is ready to confirm
func NewOrderFromCheckout(orderNumber string, s *checkout.Session) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if s == nil || len(s.Lines) == 0 {
		return nil, checkout.ErrEmptyCart
	}
	if !s.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be chosen before ordering")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		BuyerID:           s.BuyerID,
		CheckoutSessionID: s.ID,
		Status:            StatusPendingPayment,
		PaymentMethod:     s.PaymentMethod,
		PaymentStatus:     PaymentStatusUnpaid,
		Billing:           s.Billing,
		Currency:          valueobject.DefaultCurrency,
	}

	prices := make([]valueobject.Money, 0, len(s.Lines))
	for _, l := range s.Lines {
		c := s.Contents[l.ID]
		o.Items = append(o.Items, Item{
			ID:           uuid.New(),
			OrderID:      o.ID,
			OutletID:     l.OutletID,
			PublisherID:  l.PublisherID,
			OutletName:   l.OutletName,
			OutletDomain: l.OutletDomain,
			Niche:        l.Niche,
			Price:        l.Price,
			Content: Content{
				Title:      c.Title,
				Body:       c.Body,
				FileKey:    c.FileKey,
				TargetURL:  c.TargetURL,
				AnchorText: c.AnchorText,
				Notes:      c.Notes,
			},
			Status:    ItemStatusPending,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.CreatedAt,
		})
		prices = append(prices, l.Price)
	}

	subtotal, err := valueobject.Sum(o.Currency, prices...)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	o.Subtotal = subtotal
	o.Total = subtotal

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// Item returns a pointer to an item by ID
func (o *Order) Item(itemID uuid.UUID) (*Item, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// PublisherIDs returns the distinct publishers involved in the order
func (o *Order) PublisherIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.PublisherID]; ok {
			continue
		}
		seen[item.PublisherID] = struct{}{}
		ids = append(ids, item.PublisherID)
	}
	return ids
}

// HasPublisher reports whether the publisher owns at least one item
func (o *Order) HasPublisher(publisherID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.PublisherID == publisherID {
			return true
		}
	}
	return false
}

// IsOwnedBy reports whether the order belongs to the buyer
func (o *Order) IsOwnedBy(buyerID uuid.UUID) bool {
	return o.BuyerID == buyerID
}

// IsCardPayment reports whether the order is paid through Stripe
func (o *Order) IsCardPayment() bool {
	return o.PaymentMethod == checkout.PaymentMethodCard
}

// CanRetryPayment reports whether a new Stripe session may be created
func (o *Order) CanRetryPayment() bool {
	return o.Status == StatusPendingPayment && o.IsCardPayment()
}

// AttachPaymentSession records the Stripe checkout session created for the order
func (o *Order) AttachPaymentSession(sessionID string) error {
	if !o.IsCardPayment() {
		return ErrNotCardPayment
	}
	if o.Status != StatusPendingPayment {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(sessionID) == "" {
		return shared.NewDomainError("INVALID_SESSION_ID", "Payment session ID cannot be empty")
	}
	o.StripeSessionID = sessionID
	o.PaymentStatus = PaymentStatusPending
	o.Touch()
	return nil
}

// MarkPaid records a successful payment; repeated calls on a paid order are no-ops
func (o *Order) MarkPaid(paymentIntentID string) error {
	if o.PaymentStatus == PaymentStatusPaid && o.Status != StatusPendingPayment {
		return nil
	}
	if !o.Status.CanTransitionTo(StatusPaid) {
		return ErrInvalidTransition
	}
	now := shared.Now()
	o.Status = StatusPaid
	o.PaymentStatus = PaymentStatusPaid
	if paymentIntentID != "" {
		o.StripePaymentIntentID = paymentIntentID
	}
	o.PaidAt = &now
	o.Touch()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// MarkBankTransferPaid is the admin confirmation that a bank transfer arrived
func (o *Order) MarkBankTransferPaid() error {
	if o.PaymentMethod != checkout.PaymentMethodBankTransfer {
		return ErrNotBankTransfer
	}
	return o.MarkPaid("")
}

// MarkPaymentFailed records a failed or expired payment attempt; the order stays payable
func (o *Order) MarkPaymentFailed(reason string) error {
	if o.Status != StatusPendingPayment {
		// late failure notices for settled orders are ignored
		return nil
	}
	if o.PaymentStatus == PaymentStatusFailed {
		return nil
	}
	o.PaymentStatus = PaymentStatusFailed
	o.Touch()
	o.AddDomainEvent(NewOrderPaymentFailedEvent(o, reason))
	return nil
}

// Cancel cancels an order that has not started fulfilment
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return ErrNotCancellable
	}
	now := shared.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancelReason = strings.TrimSpace(reason)
	o.Touch()
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// Refund moves a paid order to refunded
func (o *Order) Refund(reason string) error {
	if o.Status == StatusRefunded {
		return nil
	}
	if !o.Status.CanTransitionTo(StatusRefunded) {
		return ErrInvalidTransition
	}
	now := shared.Now()
	o.Status = StatusRefunded
	o.PaymentStatus = PaymentStatusRefunded
	o.RefundedAt = &now
	o.RefundReason = strings.TrimSpace(reason)
	o.Touch()
	o.AddDomainEvent(NewOrderRefundedEvent(o))
	return nil
}

// MarkPaymentRefunded records a full refund made at the payment provider. The
// order moves to refunded when its status allows it; otherwise, as for an order
// cancelled after payment, only the payment status changes.
func (o *Order) MarkPaymentRefunded(reason string) error {
	if o.PaymentStatus == PaymentStatusRefunded {
		return nil
	}
	if o.Status.CanTransitionTo(StatusRefunded) {
		return o.Refund(reason)
	}
	now := shared.Now()
	o.PaymentStatus = PaymentStatusRefunded
	o.RefundedAt = &now
	o.RefundReason = strings.TrimSpace(reason)
	o.Touch()
	o.AddDomainEvent(NewOrderRefundedEvent(o))
	return nil
}

// ChangeStatus is the admin override; it still follows the status machine
func (o *Order) ChangeStatus(target Status, reason string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	if !o.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	switch target {
	case StatusPaid:
		return o.MarkPaid("")
	case StatusCancelled:
		return o.Cancel(reason)
	case StatusRefunded:
		return o.Refund(reason)
	case StatusInProgress:
		o.Status = StatusInProgress
		o.Touch()
		return nil
	case StatusCompleted:
		o.complete()
		return nil
	}
	return ErrInvalidTransition
}

// AcceptItem is the publisher accepting a placement
func (o *Order) AcceptItem(itemID, publisherID uuid.UUID) error {
	item, err := o.actionableItem(itemID, publisherID)
	if err != nil {
		return err
	}
	if err := item.accept(); err != nil {
		return err
	}
	if o.Status == StatusPaid {
		o.Status = StatusInProgress
	}
	o.Touch()
	o.AddDomainEvent(NewOrderItemAcceptedEvent(o, item))
	return nil
}

// RejectItem is the publisher declining a placement
func (o *Order) RejectItem(itemID, publisherID uuid.UUID, reason string) error {
	item, err := o.actionableItem(itemID, publisherID)
	if err != nil {
		return err
	}
	if err := item.reject(reason); err != nil {
		return err
	}
	o.Touch()
	o.AddDomainEvent(NewOrderItemRejectedEvent(o, item))
	o.evaluateFulfilment()
	return nil
}

// PublishItem records the live URL of an accepted placement
func (o *Order) PublishItem(itemID, publisherID uuid.UUID, publishedURL string) error {
	item, err := o.actionableItem(itemID, publisherID)
	if err != nil {
		return err
	}
	if err := item.publish(publishedURL); err != nil {
		return err
	}
	o.Touch()
	o.AddDomainEvent(NewOrderItemPublishedEvent(o, item))
	o.evaluateFulfilment()
	return nil
}

func (o *Order) actionableItem(itemID, publisherID uuid.UUID) (*Item, error) {
	item, ok := o.Item(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	if item.PublisherID != publisherID {
		return nil, ErrNotItemPublisher
	}
	if !o.Status.acceptsItemWork() {
		return nil, ErrItemNotActionable
	}
	return item, nil
}

// evaluateFulfilment completes the order once every item is final and at least one went live.
// An order whose items were all rejected stays open and is flagged for admin review.
func (o *Order) evaluateFulfilment() {
	published := 0
	for _, item := range o.Items {
		if !item.Status.IsFinal() {
			return
		}
		if item.Status == ItemStatusPublished {
			published++
		}
	}
	if published == 0 {
		if o.Status == StatusPaid {
			o.Status = StatusInProgress
		}
		o.AddDomainEvent(NewOrderNeedsReviewEvent(o))
		return
	}
	if o.Status == StatusPaid {
		o.Status = StatusInProgress
	}
	o.complete()
}

func (o *Order) complete() {
	now := shared.Now()
	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.Touch()
	o.AddDomainEvent(NewOrderCompletedEvent(o))
}

// CountItems returns the number of items in each status
func (o *Order) CountItems() map[ItemStatus]int {
	counts := make(map[ItemStatus]int, 4)
	for _, item := range o.Items {
		counts[item.Status]++
	}
	return counts
}
