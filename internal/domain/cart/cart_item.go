package cart

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

const (
	maxAnchorTextLength = 200
	maxNotesLength      = 2000
)

// Placement is the buyer-supplied part of a cart line
type Placement struct {
	TargetURL  string
	AnchorText string
	Notes      string
}

// Item is one placement in a buyer's cart (a cart_items row)
type Item struct {
	ID           uuid.UUID         `json:"id"`
	BuyerID      uuid.UUID         `json:"buyer_id"`
	OutletID     uuid.UUID         `json:"outlet_id"`
	OutletName   string            `json:"outlet_name"`
	OutletDomain string            `json:"outlet_domain"`
	PublisherID  uuid.UUID         `json:"publisher_id"`
	Niche        catalog.Niche     `json:"niche"`
	UnitPrice    valueobject.Money `json:"unit_price"`
	TargetURL    string            `json:"target_url,omitempty"`
	AnchorText   string            `json:"anchor_text,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewItem builds a cart line priced by the outlet's current quote
func NewItem(buyerID uuid.UUID, outlet *catalog.MediaOutlet, niche catalog.Niche, p Placement) (*Item, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if outlet.IsOwnedBy(buyerID) {
		return nil, ErrOwnOutlet
	}
	price, err := outlet.Quote(niche)
	if err != nil {
		return nil, err
	}
	p, err = normalizePlacement(p)
	if err != nil {
		return nil, err
	}

	now := shared.Now()
	return &Item{
		ID:           uuid.New(),
		BuyerID:      buyerID,
		OutletID:     outlet.ID,
		OutletName:   outlet.Name,
		OutletDomain: outlet.Domain,
		PublisherID:  outlet.PublisherID,
		Niche:        niche,
		UnitPrice:    price,
		TargetURL:    p.TargetURL,
		AnchorText:   p.AnchorText,
		Notes:        p.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UpdatePlacement replaces the buyer-supplied fields
func (i *Item) UpdatePlacement(p Placement) error {
	p, err := normalizePlacement(p)
	if err != nil {
		return err
	}
	i.TargetURL = p.TargetURL
	i.AnchorText = p.AnchorText
	i.Notes = p.Notes
	i.UpdatedAt = shared.Now()
	return nil
}

// Requote changes the niche and re-prices the line against the outlet
func (i *Item) Requote(outlet *catalog.MediaOutlet, niche catalog.Niche) error {
	if outlet.ID != i.OutletID {
		return shared.NewDomainError("OUTLET_MISMATCH", "Outlet does not match the cart item")
	}
	price, err := outlet.Quote(niche)
	if err != nil {
		return err
	}
	i.Niche = niche
	i.UnitPrice = price
	i.OutletName = outlet.Name
	i.OutletDomain = outlet.Domain
	i.UpdatedAt = shared.Now()
	return nil
}

func normalizePlacement(p Placement) (Placement, error) {
	p.TargetURL = strings.TrimSpace(p.TargetURL)
	p.AnchorText = strings.TrimSpace(p.AnchorText)
	p.Notes = strings.TrimSpace(p.Notes)
	if p.TargetURL != "" {
		if _, err := shared.ParseHTTPURL(p.TargetURL); err != nil {
			return p, shared.NewDomainError("INVALID_TARGET_URL", "Target URL must be an absolute http or https URL")
		}
	}
	if utf8.RuneCountInString(p.AnchorText) > maxAnchorTextLength {
		return p, shared.NewDomainError("INVALID_ANCHOR_TEXT", "Anchor text cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(p.Notes) > maxNotesLength {
		return p, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 2000 characters")
	}
	return p, nil
}
