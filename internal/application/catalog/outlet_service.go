package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/linkmarket/backend/internal/infrastructure/event"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNotOutletOwner is returned when a publisher acts on another publisher's outlet
var ErrNotOutletOwner = shared.NewDomainError("FORBIDDEN", "You do not own this outlet")

// OutletService handles media outlet listings and niche pricing
type OutletService struct {
	outletRepo     catalog.MediaOutletRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOutletService creates a new OutletService
func NewOutletService(outletRepo catalog.MediaOutletRepository, logger *zap.Logger) *OutletService {
	return &OutletService{outletRepo: outletRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for outlet events
func (s *OutletService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateOutlet lists a new outlet for review
func (s *OutletService) CreateOutlet(ctx context.Context, publisherID uuid.UUID, req OutletRequest) (*OutletResponse, error) {
	if err := s.ensureDomainFree(ctx, req.Domain, uuid.Nil); err != nil {
		return nil, err
	}

	outlet, err := catalog.NewMediaOutlet(publisherID, req.details(), valueobject.NewMoneyUSD(req.BasePrice))
	if err != nil {
		return nil, err
	}

	if err := s.outletRepo.Save(ctx, outlet); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, catalog.ErrDomainTaken
		}
		return nil, err
	}
	s.publish(ctx, outlet)

	s.logger.Info("Outlet created",
		zap.String("outlet_id", outlet.ID.String()),
		zap.String("publisher_id", publisherID.String()),
		zap.String("domain", outlet.Domain))
	return ToOutletResponse(outlet), nil
}

// UpdateOutlet replaces the listing attributes of an owned outlet
func (s *OutletService) UpdateOutlet(ctx context.Context, publisherID, outletID uuid.UUID, req OutletRequest) (*OutletResponse, error) {
	outlet, err := s.ownedOutlet(ctx, publisherID, outletID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDomainFree(ctx, req.Domain, outlet.ID); err != nil {
		return nil, err
	}

	if err := outlet.UpdateDetails(req.details()); err != nil {
		return nil, err
	}
	if err := outlet.ChangeBasePrice(valueobject.NewMoneyUSD(req.BasePrice)); err != nil {
		return nil, err
	}

	if err := s.outletRepo.SaveWithLock(ctx, outlet); err != nil {
		return nil, err
	}
	s.publish(ctx, outlet)
	return ToOutletResponse(outlet), nil
}

// SetNicheRule adds or replaces a niche rule; a zero multiplier means 1.00
func (s *OutletService) SetNicheRule(ctx context.Context, publisherID, outletID uuid.UUID, niche string, req NicheRuleRequest) (*OutletResponse, error) {
	outlet, err := s.ownedOutlet(ctx, publisherID, outletID)
	if err != nil {
		return nil, err
	}

	multiplier := req.Multiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	accepted := req.Accepted != nil && *req.Accepted
	rule, err := catalog.NewNicheRule(outlet.ID, catalog.Niche(strings.ToLower(niche)), accepted, multiplier)
	if err != nil {
		return nil, err
	}
	outlet.SetNicheRule(rule)

	if err := s.outletRepo.SaveWithLock(ctx, outlet); err != nil {
		return nil, err
	}
	return ToOutletResponse(outlet), nil
}

// RemoveNicheRule drops an explicit niche rule, restoring the default for that niche
func (s *OutletService) RemoveNicheRule(ctx context.Context, publisherID, outletID uuid.UUID, niche string) (*OutletResponse, error) {
	outlet, err := s.ownedOutlet(ctx, publisherID, outletID)
	if err != nil {
		return nil, err
	}
	if err := outlet.RemoveNicheRule(catalog.Niche(strings.ToLower(niche))); err != nil {
		return nil, err
	}
	if err := s.outletRepo.SaveWithLock(ctx, outlet); err != nil {
		return nil, err
	}
	return ToOutletResponse(outlet), nil
}

// ListMyOutlets lists every outlet of a publisher regardless of status
func (s *OutletService) ListMyOutlets(ctx context.Context, publisherID uuid.UUID, q ListOutletsQuery) (shared.Paginated[*OutletResponse], error) {
	filter, err := buildFilter(q)
	if err != nil {
		return shared.Paginated[*OutletResponse]{}, err
	}
	filter.PublisherID = &publisherID
	return s.list(ctx, filter)
}

// ListOutlets browses the marketplace. Only admins may see non-active outlets.
func (s *OutletService) ListOutlets(ctx context.Context, q ListOutletsQuery, isAdmin bool) (shared.Paginated[*OutletResponse], error) {
	filter, err := buildFilter(q)
	if err != nil {
		return shared.Paginated[*OutletResponse]{}, err
	}
	if !isAdmin {
		active := catalog.OutletStatusActive
		filter.Status = &active
	}
	return s.list(ctx, filter)
}

// GetOutlet returns an outlet. Non-active outlets are visible to their publisher and admins only.
func (s *OutletService) GetOutlet(ctx context.Context, outletID, viewerID uuid.UUID, isAdmin bool) (*OutletResponse, error) {
	outlet, err := s.outletRepo.FindByID(ctx, outletID)
	if err != nil {
		return nil, err
	}
	if !outlet.IsAvailable() && !isAdmin && !outlet.IsOwnedBy(viewerID) {
		return nil, shared.ErrNotFound
	}
	return ToOutletResponse(outlet), nil
}

// QuotePrice prices a placement of the niche on the outlet
func (s *OutletService) QuotePrice(ctx context.Context, outletID uuid.UUID, niche string) (*QuoteResponse, error) {
	outlet, err := s.outletRepo.FindByID(ctx, outletID)
	if err != nil {
		return nil, err
	}
	n := catalog.Niche(strings.ToLower(strings.TrimSpace(niche)))
	if n == "" {
		n = catalog.NicheGeneral
	}
	price, err := outlet.Quote(n)
	if err != nil {
		return nil, err
	}
	rule, _ := outlet.EffectiveRule(n)
	return &QuoteResponse{
		OutletID:   outlet.ID,
		Niche:      string(n),
		BasePrice:  outlet.BasePrice.Amount(),
		Multiplier: rule.Multiplier,
		Price:      price.Amount(),
		Currency:   string(price.Currency()),
	}, nil
}

// ApproveOutlet lists a pending outlet
func (s *OutletService) ApproveOutlet(ctx context.Context, outletID uuid.UUID) (*OutletResponse, error) {
	return s.changeStatus(ctx, outletID, catalog.OutletStatusPending, func(o *catalog.MediaOutlet) error {
		return o.Approve()
	})
}

// SuspendOutlet hides an active outlet
func (s *OutletService) SuspendOutlet(ctx context.Context, outletID uuid.UUID, reason string) (*OutletResponse, error) {
	return s.changeStatus(ctx, outletID, catalog.OutletStatusActive, func(o *catalog.MediaOutlet) error {
		return o.Suspend(reason)
	})
}

// ReactivateOutlet lists a suspended outlet again
func (s *OutletService) ReactivateOutlet(ctx context.Context, outletID uuid.UUID) (*OutletResponse, error) {
	return s.changeStatus(ctx, outletID, catalog.OutletStatusSuspended, func(o *catalog.MediaOutlet) error {
		return o.Approve()
	})
}

func (s *OutletService) changeStatus(ctx context.Context, outletID uuid.UUID, from catalog.OutletStatus, apply func(*catalog.MediaOutlet) error) (*OutletResponse, error) {
	outlet, err := s.outletRepo.FindByID(ctx, outletID)
	if err != nil {
		return nil, err
	}
	if outlet.Status != from {
		return nil, shared.NewDomainError("INVALID_STATE", "Outlet is "+string(outlet.Status)+", expected "+string(from))
	}
	if err := apply(outlet); err != nil {
		return nil, err
	}
	if err := s.outletRepo.SaveWithLock(ctx, outlet); err != nil {
		return nil, err
	}
	s.publish(ctx, outlet)

	s.logger.Info("Outlet status changed",
		zap.String("outlet_id", outlet.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(outlet.Status)))
	return ToOutletResponse(outlet), nil
}

func (s *OutletService) list(ctx context.Context, filter catalog.OutletFilter) (shared.Paginated[*OutletResponse], error) {
	outlets, total, err := s.outletRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*OutletResponse]{}, err
	}
	items := make([]*OutletResponse, len(outlets))
	for i, o := range outlets {
		items[i] = ToOutletResponse(o)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *OutletService) ownedOutlet(ctx context.Context, publisherID, outletID uuid.UUID) (*catalog.MediaOutlet, error) {
	outlet, err := s.outletRepo.FindByID(ctx, outletID)
	if err != nil {
		return nil, err
	}
	if !outlet.IsOwnedBy(publisherID) {
		return nil, ErrNotOutletOwner
	}
	return outlet, nil
}

func (s *OutletService) ensureDomainFree(ctx context.Context, rawDomain string, self uuid.UUID) error {
	domain, err := catalog.NormalizeDomain(rawDomain)
	if err != nil {
		return err
	}
	existing, err := s.outletRepo.FindByDomain(ctx, domain)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return catalog.ErrDomainTaken
	}
	return nil
}

func (s *OutletService) publish(ctx context.Context, outlet *catalog.MediaOutlet) {
	if err := event.PublishAggregateEvents(ctx, s.eventPublisher, outlet); err != nil {
		s.logger.Warn("Failed to publish outlet events", zap.String("outlet_id", outlet.ID.String()), zap.Error(err))
	}
}

func buildFilter(q ListOutletsQuery) (catalog.OutletFilter, error) {
	filter := catalog.OutletFilter{Filter: shared.DefaultFilter()}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.SortBy != "" {
		filter.OrderBy = q.SortBy
	}
	if q.SortOrder != "" {
		filter.OrderDir = q.SortOrder
	}
	filter.Search = strings.TrimSpace(q.Search)
	filter.Normalize()

	filter.Category = strings.ToLower(strings.TrimSpace(q.Category))
	filter.Country = strings.ToUpper(strings.TrimSpace(q.Country))
	filter.Language = strings.TrimSpace(q.Language)
	filter.MinPrice = q.MinPrice
	filter.MaxPrice = q.MaxPrice
	filter.MinDomainAuthority = q.MinDA

	if q.Niche != "" {
		n := catalog.Niche(strings.ToLower(q.Niche))
		if !n.IsValid() {
			return filter, shared.NewDomainError("INVALID_NICHE", "Unknown niche: "+q.Niche)
		}
		filter.Niche = &n
	}
	if q.LinkType != "" {
		lt := catalog.LinkType(q.LinkType)
		filter.LinkType = &lt
	}
	if q.Status != "" {
		st := catalog.OutletStatus(q.Status)
		filter.Status = &st
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return filter, shared.NewDomainError("INVALID_PRICE_RANGE", "min_price cannot exceed max_price")
	}
	return filter, nil
}
