package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Snapshot is the cart backup: a copy of the remote rows taken after each successful mutation
type Snapshot struct {
	BuyerID uuid.UUID `json:"buyer_id"`
	Items   []Item    `json:"items"`
	TakenAt time.Time `json:"taken_at"`
}

// NewSnapshot copies the items of a cart
func NewSnapshot(buyerID uuid.UUID, items []Item) *Snapshot {
	return NewSnapshotAt(buyerID, items, shared.Now())
}

// NewSnapshotAt copies the items of a cart with an explicit timestamp
func NewSnapshotAt(buyerID uuid.UUID, items []Item, takenAt time.Time) *Snapshot {
	copied := make([]Item, len(items))
	copy(copied, items)
	return &Snapshot{
		BuyerID: buyerID,
		Items:   copied,
		TakenAt: takenAt,
	}
}

// IsEmpty reports whether the snapshot has no items
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}

// Resolve decides which copy of the cart the caller gets.
// The remote rows always win. The backup is only served, read-only, when the
// remote read failed; when the remote cart is empty a non-empty backup is
// merely advertised so the buyer can choose to restore it.
func Resolve(buyerID uuid.UUID, remote []Item, remoteErr error, backup *Snapshot) (*Cart, error) {
	if remoteErr != nil {
		if backup.IsEmpty() {
			return nil, remoteErr
		}
		items := make([]Item, len(backup.Items))
		copy(items, backup.Items)
		return &Cart{
			BuyerID:  buyerID,
			Items:    items,
			Source:   SourceBackup,
			ReadOnly: true,
		}, nil
	}

	if len(remote) == 0 {
		return &Cart{
			BuyerID:         buyerID,
			Items:           []Item{},
			Source:          SourceEmpty,
			BackupAvailable: !backup.IsEmpty(),
		}, nil
	}

	return &Cart{
		BuyerID: buyerID,
		Items:   remote,
		Source:  SourceRemote,
	}, nil
}
