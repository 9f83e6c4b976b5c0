package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.Repository using GORM.
// The cart_items table is the single source of truth for cart contents.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByBuyer returns the buyer's lines, oldest first
func (r *GormCartRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]cart.Item, error) {
	var rows []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]cart.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// Create inserts new lines atomically
func (r *GormCartRepository) Create(ctx context.Context, items ...*cart.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.CartItemModel, len(items))
	for i, item := range items {
		rows[i] = models.CartItemModelFromDomain(item)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			if errors.Is(translateError(err), shared.ErrAlreadyExists) {
				return cart.ErrDuplicateItem
			}
			return err
		}
		return nil
	})
}

// Update writes the editable fields of a line
func (r *GormCartRepository) Update(ctx context.Context, item *cart.Item) error {
	row := models.CartItemModelFromDomain(item)
	result := r.db.WithContext(ctx).
		Model(&models.CartItemModel{}).
		Where("id = ? AND buyer_id = ?", item.ID, item.BuyerID).
		Updates(map[string]any{
			"niche":         row.Niche,
			"unit_price":    row.UnitPrice,
			"currency":      row.Currency,
			"outlet_name":   row.OutletName,
			"outlet_domain": row.OutletDomain,
			"target_url":    row.TargetURL,
			"anchor_text":   row.AnchorText,
			"notes":         row.Notes,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(translateError(result.Error), shared.ErrAlreadyExists) {
			return cart.ErrDuplicateItem
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Delete removes one of the buyer's lines
func (r *GormCartRepository) Delete(ctx context.Context, buyerID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", itemID, buyerID).
		Delete(&models.CartItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// DeleteAll empties the buyer's cart
func (r *GormCartRepository) DeleteAll(ctx context.Context, buyerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&models.CartItemModel{}).Error
}

// Ensure GormCartRepository implements cart.Repository
var _ cart.Repository = (*GormCartRepository)(nil)
