package cart

import (
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// Source tells the caller where the cart contents came from
type Source string

const (
	// SourceRemote is the authoritative cart_items table
	SourceRemote Source = "remote"
	// SourceBackup is the last snapshot, served only while the remote store is unreachable
	SourceBackup Source = "backup"
	// SourceEmpty means the remote cart has no items
	SourceEmpty Source = "empty"
)

// DefaultMaxItems bounds the number of lines in a cart
const DefaultMaxItems = 50

// Cart is a buyer's cart as resolved from the remote store or its backup
type Cart struct {
	BuyerID uuid.UUID
	Items   []Item
	Source  Source
	// ReadOnly is set when the contents come from the backup; mutations must wait for the remote store
	ReadOnly bool
	// BackupAvailable is set when the remote cart is empty but a snapshot could be restored
	BackupAvailable bool
}

// Count returns the number of lines
func (c *Cart) Count() int {
	return len(c.Items)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total sums the line prices
func (c *Cart) Total() valueobject.Money {
	prices := make([]valueobject.Money, 0, len(c.Items))
	for _, it := range c.Items {
		prices = append(prices, it.UnitPrice)
	}
	total, err := valueobject.Sum(valueobject.DefaultCurrency, prices...)
	if err != nil {
		// every line is quoted in the default currency
		return valueobject.Zero(valueobject.DefaultCurrency)
	}
	return total
}

// Find returns the line with the given ID
func (c *Cart) Find(itemID uuid.UUID) (*Item, bool) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// Contains reports whether the cart already has a line for the outlet and niche
func (c *Cart) Contains(outletID uuid.UUID, niche catalog.Niche) bool {
	for _, it := range c.Items {
		if it.OutletID == outletID && it.Niche == niche {
			return true
		}
	}
	return false
}

// CheckCanAdd enforces the duplicate and size rules before a new line is stored
func (c *Cart) CheckCanAdd(outletID uuid.UUID, niche catalog.Niche, maxItems int) error {
	if c.ReadOnly {
		return ErrCartReadOnly
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if len(c.Items) >= maxItems {
		return ErrCartLimitReached
	}
	if c.Contains(outletID, niche) {
		return ErrDuplicateItem
	}
	return nil
}
