package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CartItemModel is the persistence model for a cart line
type CartItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	BuyerID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_items_buyer_outlet_niche,priority:1"`
	OutletID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_buyer_outlet_niche,priority:2"`
	OutletName   string          `gorm:"type:varchar(200);not null"`
	OutletDomain string          `gorm:"type:varchar(253);not null"`
	PublisherID  uuid.UUID       `gorm:"type:uuid;not null"`
	Niche        catalog.Niche   `gorm:"type:varchar(20);not null;uniqueIndex:idx_cart_items_buyer_outlet_niche,priority:3"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency     string          `gorm:"type:varchar(3);not null;default:'USD'"`
	TargetURL    string          `gorm:"type:varchar(2048)"`
	AnchorText   string          `gorm:"type:varchar(200)"`
	Notes        string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain cart item
func (m *CartItemModel) ToDomain() cart.Item {
	return cart.Item{
		ID:           m.ID,
		BuyerID:      m.BuyerID,
		OutletID:     m.OutletID,
		OutletName:   m.OutletName,
		OutletDomain: m.OutletDomain,
		PublisherID:  m.PublisherID,
		Niche:        m.Niche,
		UnitPrice:    money(m.UnitPrice, m.Currency),
		TargetURL:    m.TargetURL,
		AnchorText:   m.AnchorText,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// CartItemModelFromDomain creates a new persistence model from a domain cart item
func CartItemModelFromDomain(i *cart.Item) *CartItemModel {
	return &CartItemModel{
		ID:           i.ID,
		BuyerID:      i.BuyerID,
		OutletID:     i.OutletID,
		OutletName:   i.OutletName,
		OutletDomain: i.OutletDomain,
		PublisherID:  i.PublisherID,
		Niche:        i.Niche,
		UnitPrice:    i.UnitPrice.Amount(),
		Currency:     string(i.UnitPrice.Currency()),
		TargetURL:    i.TargetURL,
		AnchorText:   i.AnchorText,
		Notes:        i.Notes,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}
