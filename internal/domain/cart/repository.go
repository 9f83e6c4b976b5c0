package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists cart lines. It is the single source of truth for cart contents.
type Repository interface {
	// FindByBuyer returns the buyer's lines, oldest first
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Item, error)

	// Create inserts new lines atomically
	Create(ctx context.Context, items ...*Item) error

	Update(ctx context.Context, item *Item) error

	// Delete removes one of the buyer's lines; ErrItemNotFound when it does not exist
	Delete(ctx context.Context, buyerID, itemID uuid.UUID) error

	DeleteAll(ctx context.Context, buyerID uuid.UUID) error
}

// BackupStore keeps the latest snapshot of each cart outside the primary database
type BackupStore interface {
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load returns nil without error when there is no snapshot
	Load(ctx context.Context, buyerID uuid.UUID) (*Snapshot, error)

	Delete(ctx context.Context, buyerID uuid.UUID) error
}
