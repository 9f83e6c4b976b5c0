package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Filter narrows order listings
type Filter struct {
	shared.Filter
	BuyerID       *uuid.UUID
	Status        *Status
	PaymentStatus *PaymentStatus
}

// ItemFilter narrows a publisher's item listing
type ItemFilter struct {
	shared.Filter
	PublisherID uuid.UUID
	Status      *ItemStatus
	OutletID    *uuid.UUID
}

// PublisherItem is an order item together with the order facts a publisher may see
type PublisherItem struct {
	Item
	OrderNumber string
	OrderStatus Status
	OrderedAt   time.Time
}

// Repository persists orders and their items
type Repository interface {
	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByItemID loads the order that owns an item
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*Order, error)

	FindByStripeSessionID(ctx context.Context, sessionID string) (*Order, error)

	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error)

	// FindAll lists orders (without content bodies) and the total count
	FindAll(ctx context.Context, filter Filter) ([]*Order, int64, error)

	// FindItemsByPublisher lists items on a publisher's outlets for paid orders
	FindItemsByPublisher(ctx context.Context, filter ItemFilter) ([]PublisherItem, int64, error)

	// Save inserts a new order or updates one with an optimistic version check
	Save(ctx context.Context, order *Order) error
}

// NumberGenerator hands out order numbers; numbers are unique and increase per year
type NumberGenerator interface {
	NextOrderNumber(ctx context.Context, at time.Time) (string, error)
}
