package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository persists checkout sessions
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindActiveByBuyer returns the newest active session of a buyer
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*Session, error)

	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Session, error)

	// Save inserts a new session or updates one with an optimistic version check
	Save(ctx context.Context, session *Session) error

	// ExpireStale marks active sessions past their expiry as expired and returns how many changed
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
