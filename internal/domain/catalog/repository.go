package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MediaOutletRepository defines the interface for outlet persistence.
// Niche rules are loaded and saved together with their outlet.
type MediaOutletRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MediaOutlet, error)

	// FindByIDs loads several outlets at once; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*MediaOutlet, error)

	FindByDomain(ctx context.Context, domain string) (*MediaOutlet, error)

	// FindAll returns outlets matching the filter plus the total count
	FindAll(ctx context.Context, filter OutletFilter) ([]*MediaOutlet, int64, error)

	// Save creates or updates an outlet and replaces its niche rules
	Save(ctx context.Context, outlet *MediaOutlet) error

	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, outlet *MediaOutlet) error
}

// OutletFilter contains the marketplace browse filters
type OutletFilter struct {
	shared.Filter
	PublisherID        *uuid.UUID
	Status             *OutletStatus
	Category           string
	Language           string
	Country            string
	Niche              *Niche // only outlets accepting the niche
	LinkType           *LinkType
	MinPrice           *decimal.Decimal
	MaxPrice           *decimal.Decimal
	MinDomainAuthority *int
}
