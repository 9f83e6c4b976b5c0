package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	OrderNumber           string                           `gorm:"type:varchar(20);not null;uniqueIndex"`
	BuyerID               uuid.UUID                        `gorm:"type:uuid;not null;index"`
	CheckoutSessionID     uuid.UUID                        `gorm:"type:uuid;not null"`
	Status                order.Status                     `gorm:"type:varchar(20);not null;index"`
	PaymentMethod         checkout.PaymentMethod           `gorm:"type:varchar(20);not null"`
	PaymentStatus         order.PaymentStatus              `gorm:"type:varchar(20);not null;index"`
	Billing               JSONColumn[checkout.BillingInfo] `gorm:"type:jsonb;not null"`
	Items                 []OrderItemModel                 `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal              decimal.Decimal                  `gorm:"type:decimal(12,2);not null"`
	Total                 decimal.Decimal                  `gorm:"type:decimal(12,2);not null"`
	Currency              string                           `gorm:"type:varchar(3);not null;default:'USD'"`
	StripeSessionID       string                           `gorm:"type:varchar(255);index"`
	StripePaymentIntentID string                           `gorm:"type:varchar(255);index"`
	PaidAt                *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string `gorm:"type:varchar(1000)"`
	RefundedAt            *time.Time
	RefundReason          string `gorm:"type:varchar(1000)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot:     m.ToAggregateRoot(),
		OrderNumber:           m.OrderNumber,
		BuyerID:               m.BuyerID,
		CheckoutSessionID:     m.CheckoutSessionID,
		Status:                m.Status,
		PaymentMethod:         m.PaymentMethod,
		PaymentStatus:         m.PaymentStatus,
		Billing:               m.Billing.Data,
		Subtotal:              money(m.Subtotal, m.Currency),
		Total:                 money(m.Total, m.Currency),
		Currency:              currencyOf(m.Currency),
		StripeSessionID:       m.StripeSessionID,
		StripePaymentIntentID: m.StripePaymentIntentID,
		PaidAt:                m.PaidAt,
		CompletedAt:           m.CompletedAt,
		CancelledAt:           m.CancelledAt,
		CancelReason:          m.CancelReason,
		RefundedAt:            m.RefundedAt,
		RefundReason:          m.RefundReason,
		Items:                 make([]order.Item, len(m.Items)),
	}
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain(m.Currency)
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.BuyerID = o.BuyerID
	m.CheckoutSessionID = o.CheckoutSessionID
	m.Status = o.Status
	m.PaymentMethod = o.PaymentMethod
	m.PaymentStatus = o.PaymentStatus
	m.Billing = NewJSONColumn(o.Billing)
	m.Subtotal = o.Subtotal.Amount()
	m.Total = o.Total.Amount()
	m.Currency = string(o.Currency)
	m.StripeSessionID = o.StripeSessionID
	m.StripePaymentIntentID = o.StripePaymentIntentID
	m.PaidAt = o.PaidAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.RefundedAt = o.RefundedAt
	m.RefundReason = o.RefundReason
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order item
type OrderItemModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	OutletID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	PublisherID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	OutletName      string           `gorm:"type:varchar(200);not null"`
	OutletDomain    string           `gorm:"type:varchar(253);not null"`
	Niche           catalog.Niche    `gorm:"type:varchar(20);not null"`
	Price           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ContentTitle    string           `gorm:"type:varchar(300)"`
	ContentBody     string           `gorm:"type:text"`
	ContentFileKey  string           `gorm:"type:varchar(500)"`
	TargetURL       string           `gorm:"type:varchar(2048)"`
	AnchorText      string           `gorm:"type:varchar(200)"`
	Notes           string           `gorm:"type:text"`
	Status          order.ItemStatus `gorm:"type:varchar(20);not null;index"`
	RejectionReason string           `gorm:"type:varchar(1000)"`
	PublishedURL    string           `gorm:"type:varchar(2048)"`
	PublishedAt     *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain order item priced in the order currency
func (m *OrderItemModel) ToDomain(currency string) order.Item {
	return order.Item{
		ID:           m.ID,
		OrderID:      m.OrderID,
		OutletID:     m.OutletID,
		PublisherID:  m.PublisherID,
		OutletName:   m.OutletName,
		OutletDomain: m.OutletDomain,
		Niche:        m.Niche,
		Price:        money(m.Price, currency),
		Content: order.Content{
			Title:      m.ContentTitle,
			Body:       m.ContentBody,
			FileKey:    m.ContentFileKey,
			TargetURL:  m.TargetURL,
			AnchorText: m.AnchorText,
			Notes:      m.Notes,
		},
		Status:          m.Status,
		RejectionReason: m.RejectionReason,
		PublishedURL:    m.PublishedURL,
		PublishedAt:     m.PublishedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain order item
func OrderItemModelFromDomain(i *order.Item) *OrderItemModel {
	return &OrderItemModel{
		ID:              i.ID,
		OrderID:         i.OrderID,
		OutletID:        i.OutletID,
		PublisherID:     i.PublisherID,
		OutletName:      i.OutletName,
		OutletDomain:    i.OutletDomain,
		Niche:           i.Niche,
		Price:           i.Price.Amount(),
		ContentTitle:    i.Content.Title,
		ContentBody:     i.Content.Body,
		ContentFileKey:  i.Content.FileKey,
		TargetURL:       i.Content.TargetURL,
		AnchorText:      i.Content.AnchorText,
		Notes:           i.Content.Notes,
		Status:          i.Status,
		RejectionReason: i.RejectionReason,
		PublishedURL:    i.PublishedURL,
		PublishedAt:     i.PublishedAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// OrderNumberSequenceModel holds the last issued order number of a year
type OrderNumberSequenceModel struct {
	Year      int   `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderNumberSequenceModel) TableName() string {
	return "order_number_sequences"
}
