package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCheckoutSessionRepository implements checkout.SessionRepository using GORM
type GormCheckoutSessionRepository struct {
	db *gorm.DB
}

// NewGormCheckoutSessionRepository creates a new GormCheckoutSessionRepository
func NewGormCheckoutSessionRepository(db *gorm.DB) *GormCheckoutSessionRepository {
	return &GormCheckoutSessionRepository{db: db}
}

// FindByID finds a session by its ID
func (r *GormCheckoutSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*checkout.Session, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindActiveByBuyer returns the newest active session of a buyer
func (r *GormCheckoutSessionRepository) FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*checkout.Session, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, checkout.SessionStatusActive).
		Order("created_at DESC"))
}

// FindByOrderID finds the session that produced an order
func (r *GormCheckoutSessionRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*checkout.Session, error) {
	return r.findOne(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

func (r *GormCheckoutSessionRepository) findOne(query *gorm.DB) (*checkout.Session, error) {
	var model models.CheckoutSessionModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save inserts a new session or updates one with an optimistic version check
func (r *GormCheckoutSessionRepository) Save(ctx context.Context, session *checkout.Session) error {
	model := models.CheckoutSessionModelFromDomain(session)
	version, err := saveVersioned(r.db.WithContext(ctx), model, session.ID, session.Version)
	if err != nil {
		return err
	}
	session.Version = version
	return nil
}

// ExpireStale marks active sessions past their expiry as expired
func (r *GormCheckoutSessionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CheckoutSessionModel{}).
		Where("status = ? AND expires_at < ?", checkout.SessionStatusActive, now).
		Updates(map[string]any{
			"status":     checkout.SessionStatusExpired,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// Ensure GormCheckoutSessionRepository implements SessionRepository
var _ checkout.SessionRepository = (*GormCheckoutSessionRepository)(nil)
