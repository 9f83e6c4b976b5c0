package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Filter narrows a user's notification list
type Filter struct {
	shared.Filter
	UnreadOnly bool
}

// Repository persists notifications
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter Filter) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	// SaveAll inserts notifications in one batch
	SaveAll(ctx context.Context, notifications []*Notification) error
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	// MarkAllRead returns how many notifications changed
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
