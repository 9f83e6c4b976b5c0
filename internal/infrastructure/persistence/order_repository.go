package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByNumber loads an order by its order number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("order_number = ?", orderNumber))
}

// FindByItemID loads the order that owns an item
func (r *GormOrderRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*order.Order, error) {
	sub := r.db.Model(&models.OrderItemModel{}).Select("order_id").Where("id = ?", itemID)
	return r.findOne(r.db.WithContext(ctx).Where("id = (?)", sub))
}

// FindByStripeSessionID loads the order paid through a Stripe checkout session
func (r *GormOrderRepository) FindByStripeSessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID))
}

// FindByPaymentIntentID loads the order paid with a Stripe payment intent
func (r *GormOrderRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("stripe_payment_intent_id = ?", paymentIntentID))
}

func (r *GormOrderRepository) findOne(query *gorm.DB) (*order.Order, error) {
	var model models.OrderModel
	if err := query.Preload("Items", preloadItems).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders (without content bodies) and the total count
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		itemMatch := r.db.Model(&models.OrderItemModel{}).
			Select("order_id").
			Where("LOWER(outlet_domain) LIKE ? OR LOWER(outlet_name) LIKE ?", pattern, pattern)
		query = query.Where("LOWER(order_number) LIKE ? OR id IN (?)", pattern, itemMatch)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	query = orderBy(query, filter.Filter, OrderSortFields, "created_at")
	if err := paginate(query, filter.Filter).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return preloadItems(db).Omit("content_body")
		}).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*order.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, total, nil
}

// publisherItemRow is an order item joined with its order
type publisherItemRow struct {
	models.OrderItemModel
	OrderNumber string
	OrderStatus order.Status
	OrderedAt   *time.Time
	Currency    string
}

// FindItemsByPublisher lists items on a publisher's outlets for orders that have been paid
func (r *GormOrderRepository) FindItemsByPublisher(ctx context.Context, filter order.ItemFilter) ([]order.PublisherItem, int64, error) {
	query := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.publisher_id = ?", filter.PublisherID).
		Where("orders.paid_at IS NOT NULL")
	if filter.Status != nil {
		query = query.Where("order_items.status = ?", *filter.Status)
	}
	if filter.OutletID != nil {
		query = query.Where("order_items.outlet_id = ?", *filter.OutletID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(orders.order_number) LIKE ? OR LOWER(order_items.content_title) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []publisherItemRow
	query = orderBy(query, filter.Filter, PublisherItemSortFields, "order_items.created_at")
	if err := paginate(query, filter.Filter).
		Select("order_items.*, orders.order_number AS order_number, orders.status AS order_status, " +
			"orders.paid_at AS ordered_at, orders.currency AS currency").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]order.PublisherItem, len(rows))
	for i := range rows {
		items[i] = order.PublisherItem{
			Item:        rows[i].OrderItemModel.ToDomain(rows[i].Currency),
			OrderNumber: rows[i].OrderNumber,
			OrderStatus: rows[i].OrderStatus,
		}
		if rows[i].OrderedAt != nil {
			items[i].OrderedAt = *rows[i].OrderedAt
		}
	}
	return items, total, nil
}

// Save inserts a new order or updates one with an optimistic version check.
// Items are upserted with the order in one transaction.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.OrderModelFromDomain(o)
		version, err := saveVersioned(tx, model, o.ID, o.Version)
		if err != nil {
			return err
		}
		for i := range model.Items {
			model.Items[i].OrderID = o.ID
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return translateError(err)
			}
		}
		o.Version = version
		return nil
	})
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
