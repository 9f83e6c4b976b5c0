package persistence

import (
	"context"

	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements checkout.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction; an error from fn rolls it back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos checkoutapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to the current transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Sessions() checkout.SessionRepository {
	return NewGormCheckoutSessionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderNumbers() order.NumberGenerator {
	return NewGormOrderNumberGenerator(r.tx)
}

func (r *gormTransactionalRepositories) CartItems() cart.Repository {
	return NewGormCartRepository(r.tx)
}

var (
	_ checkoutapp.TransactionScope          = (*GormTransactionScope)(nil)
	_ checkoutapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
