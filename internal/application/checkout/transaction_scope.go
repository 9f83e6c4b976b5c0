package checkout

import (
	"context"

	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
)

// TransactionScope runs order confirmation atomically.
// All repositories handed to fn share one database transaction, which is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories a confirmation touches
type TransactionalRepositories interface {
	Sessions() checkout.SessionRepository
	Orders() order.Repository
	// OrderNumbers allocates from the yearly sequence inside the transaction
	OrderNumbers() order.NumberGenerator
	CartItems() cart.Repository
}

// NoOpTransactionScope hands out plain repositories without a transaction; used in tests
type NoOpTransactionScope struct {
	sessions checkout.SessionRepository
	orders   order.Repository
	numbers  order.NumberGenerator
	items    cart.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	sessions checkout.SessionRepository,
	orders order.Repository,
	numbers order.NumberGenerator,
	items cart.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		sessions: sessions,
		orders:   orders,
		numbers:  numbers,
		items:    items,
	}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Sessions() checkout.SessionRepository { return s.sessions }
func (s *NoOpTransactionScope) Orders() order.Repository             { return s.orders }
func (s *NoOpTransactionScope) OrderNumbers() order.NumberGenerator  { return s.numbers }
func (s *NoOpTransactionScope) CartItems() cart.Repository           { return s.items }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
