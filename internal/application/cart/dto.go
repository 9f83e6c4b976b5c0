package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a placement; the price is always quoted from the catalog
type AddItemRequest struct {
	OutletID   uuid.UUID `json:"outlet_id" binding:"required"`
	Niche      string    `json:"niche"`
	TargetURL  string    `json:"target_url" binding:"omitempty,url,max=2048"`
	AnchorText string    `json:"anchor_text" binding:"max=200"`
	Notes      string    `json:"notes" binding:"max=2000"`
}

// UpdateItemRequest changes a line; nil fields are left unchanged and a niche change re-quotes
type UpdateItemRequest struct {
	Niche      *string `json:"niche"`
	TargetURL  *string `json:"target_url" binding:"omitempty,max=2048"`
	AnchorText *string `json:"anchor_text" binding:"omitempty,max=200"`
	Notes      *string `json:"notes" binding:"omitempty,max=2000"`
}

// ItemResponse is one cart line
type ItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	OutletID     uuid.UUID       `json:"outlet_id"`
	OutletName   string          `json:"outlet_name"`
	OutletDomain string          `json:"outlet_domain"`
	Niche        string          `json:"niche"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TargetURL    string          `json:"target_url,omitempty"`
	AnchorText   string          `json:"anchor_text,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CartResponse is the resolved cart with its provenance
type CartResponse struct {
	BuyerID         uuid.UUID       `json:"buyer_id"`
	Items           []ItemResponse  `json:"items"`
	Count           int             `json:"count"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	Source          string          `json:"source"`
	ReadOnly        bool            `json:"read_only"`
	BackupAvailable bool            `json:"backup_available"`
	MaxItems        int             `json:"max_items"`
}

// SkippedItem is a backup line that could not be restored
type SkippedItem struct {
	OutletID   uuid.UUID `json:"outlet_id"`
	OutletName string    `json:"outlet_name"`
	Niche      string    `json:"niche"`
	Reason     string    `json:"reason"`
}

// RestoreResult reports what a restore brought back
type RestoreResult struct {
	Cart     *CartResponse `json:"cart"`
	Restored int           `json:"restored"`
	Skipped  []SkippedItem `json:"skipped"`
}

// ToCartResponse maps a resolved cart to its response
func ToCartResponse(c *cart.Cart, maxItems int) *CartResponse {
	items := make([]ItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = ItemResponse{
			ID:           it.ID,
			OutletID:     it.OutletID,
			OutletName:   it.OutletName,
			OutletDomain: it.OutletDomain,
			Niche:        string(it.Niche),
			UnitPrice:    it.UnitPrice.Amount(),
			TargetURL:    it.TargetURL,
			AnchorText:   it.AnchorText,
			Notes:        it.Notes,
			CreatedAt:    it.CreatedAt,
		}
	}
	total := c.Total()
	return &CartResponse{
		BuyerID:         c.BuyerID,
		Items:           items,
		Count:           c.Count(),
		Total:           total.Amount(),
		Currency:        string(total.Currency()),
		Source:          string(c.Source),
		ReadOnly:        c.ReadOnly,
		BackupAvailable: c.BackupAvailable,
		MaxItems:        maxItems,
	}
}
