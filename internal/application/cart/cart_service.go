package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartService manages buyer carts. The cart_items table is authoritative;
// the backup store only ever receives copies of what was written there.
type CartService struct {
	repo       cart.Repository
	backup     cart.BackupStore
	outletRepo catalog.MediaOutletRepository
	maxItems   int
	logger     *zap.Logger
}

// NewCartService creates a new CartService; maxItems <= 0 uses cart.DefaultMaxItems
func NewCartService(
	repo cart.Repository,
	backup cart.BackupStore,
	outletRepo catalog.MediaOutletRepository,
	maxItems int,
	logger *zap.Logger,
) *CartService {
	if maxItems <= 0 {
		maxItems = cart.DefaultMaxItems
	}
	return &CartService{
		repo:       repo,
		backup:     backup,
		outletRepo: outletRepo,
		maxItems:   maxItems,
		logger:     logger,
	}
}

// GetCart resolves the buyer's cart, falling back to a read-only backup when the remote read fails
func (s *CartService) GetCart(ctx context.Context, buyerID uuid.UUID) (*CartResponse, error) {
	c, err := s.resolve(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return ToCartResponse(c, s.maxItems), nil
}

// Items returns the remote cart lines; the backup is never consulted
func (s *CartService) Items(ctx context.Context, buyerID uuid.UUID) ([]cart.Item, error) {
	return s.repo.FindByBuyer(ctx, buyerID)
}

// AddItem quotes the placement against the catalog and stores it
func (s *CartService) AddItem(ctx context.Context, buyerID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	items, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, s.remoteUnavailable(buyerID, err)
	}
	current := &cart.Cart{BuyerID: buyerID, Items: items}

	niche := parseNiche(req.Niche)
	if err := current.CheckCanAdd(req.OutletID, niche, s.maxItems); err != nil {
		return nil, err
	}

	outlet, err := s.outletRepo.FindByID(ctx, req.OutletID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, catalog.ErrOutletUnavailable
		}
		return nil, err
	}

	item, err := cart.NewItem(buyerID, outlet, niche, cart.Placement{
		TargetURL:  req.TargetURL,
		AnchorText: req.AnchorText,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, cart.ErrDuplicateItem
		}
		return nil, err
	}

	items = append(items, *item)
	s.snapshot(ctx, buyerID, items)

	s.logger.Info("Cart item added",
		zap.String("buyer_id", buyerID.String()),
		zap.String("outlet_id", outlet.ID.String()),
		zap.String("niche", string(niche)))
	return ToCartResponse(&cart.Cart{BuyerID: buyerID, Items: items, Source: cart.SourceRemote}, s.maxItems), nil
}

// UpdateItem changes a line's placement fields; a niche change re-quotes the price
func (s *CartService) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	items, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, s.remoteUnavailable(buyerID, err)
	}
	current := &cart.Cart{BuyerID: buyerID, Items: items, Source: cart.SourceRemote}

	item, ok := current.Find(itemID)
	if !ok {
		return nil, cart.ErrItemNotFound
	}

	if req.Niche != nil {
		niche := parseNiche(*req.Niche)
		if niche != item.Niche {
			if current.Contains(item.OutletID, niche) {
				return nil, cart.ErrDuplicateItem
			}
			outlet, err := s.outletRepo.FindByID(ctx, item.OutletID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, catalog.ErrOutletUnavailable
				}
				return nil, err
			}
			if err := item.Requote(outlet, niche); err != nil {
				return nil, err
			}
		}
	}

	placement := cart.Placement{TargetURL: item.TargetURL, AnchorText: item.AnchorText, Notes: item.Notes}
	if req.TargetURL != nil {
		placement.TargetURL = *req.TargetURL
	}
	if req.AnchorText != nil {
		placement.AnchorText = *req.AnchorText
	}
	if req.Notes != nil {
		placement.Notes = *req.Notes
	}
	if err := item.UpdatePlacement(placement); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, cart.ErrDuplicateItem
		}
		return nil, err
	}
	s.snapshot(ctx, buyerID, current.Items)
	return ToCartResponse(current, s.maxItems), nil
}

// RemoveItem deletes one line
func (s *CartService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartResponse, error) {
	if err := s.repo.Delete(ctx, buyerID, itemID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, cart.ErrItemNotFound
		}
		return nil, err
	}

	items, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, s.remoteUnavailable(buyerID, err)
	}
	s.snapshot(ctx, buyerID, items)

	c, _ := cart.Resolve(buyerID, items, nil, nil)
	return ToCartResponse(c, s.maxItems), nil
}

// Clear empties the remote cart, then drops the backup
func (s *CartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.repo.DeleteAll(ctx, buyerID); err != nil {
		return err
	}
	s.dropBackup(ctx, buyerID)
	return nil
}

// Restore re-creates the backup in an empty remote cart. Every line is
// re-quoted; lines whose outlet or niche is no longer available are skipped.
func (s *CartService) Restore(ctx context.Context, buyerID uuid.UUID) (*RestoreResult, error) {
	items, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, s.remoteUnavailable(buyerID, err)
	}
	if len(items) > 0 {
		return nil, cart.ErrRestoreNotAllowed
	}

	snapshot, err := s.backup.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, cart.ErrNoBackup
	}

	outletIDs := make([]uuid.UUID, 0, len(snapshot.Items))
	for _, it := range snapshot.Items {
		outletIDs = append(outletIDs, it.OutletID)
	}
	outlets, err := s.outletRepo.FindByIDs(ctx, outletIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.MediaOutlet, len(outlets))
	for _, o := range outlets {
		byID[o.ID] = o
	}

	restored := &cart.Cart{BuyerID: buyerID, Items: make([]cart.Item, 0, len(snapshot.Items))}
	toCreate := make([]*cart.Item, 0, len(snapshot.Items))
	skipped := make([]SkippedItem, 0)
	for _, old := range snapshot.Items {
		skip := func(reason string) {
			skipped = append(skipped, SkippedItem{
				OutletID:   old.OutletID,
				OutletName: old.OutletName,
				Niche:      string(old.Niche),
				Reason:     reason,
			})
		}

		outlet, ok := byID[old.OutletID]
		if !ok {
			skip(catalog.ErrOutletUnavailable.Message)
			continue
		}
		if err := restored.CheckCanAdd(old.OutletID, old.Niche, s.maxItems); err != nil {
			skip(err.Error())
			continue
		}
		item, err := cart.NewItem(buyerID, outlet, old.Niche, cart.Placement{
			TargetURL:  old.TargetURL,
			AnchorText: old.AnchorText,
			Notes:      old.Notes,
		})
		if err != nil {
			skip(err.Error())
			continue
		}
		toCreate = append(toCreate, item)
		restored.Items = append(restored.Items, *item)
	}

	if len(toCreate) > 0 {
		if err := s.repo.Create(ctx, toCreate...); err != nil {
			return nil, err
		}
		s.snapshot(ctx, buyerID, restored.Items)
	}

	s.logger.Info("Cart restored from backup",
		zap.String("buyer_id", buyerID.String()),
		zap.Int("restored", len(toCreate)),
		zap.Int("skipped", len(skipped)))

	c, _ := cart.Resolve(buyerID, restored.Items, nil, nil)
	return &RestoreResult{
		Cart:     ToCartResponse(c, s.maxItems),
		Restored: len(toCreate),
		Skipped:  skipped,
	}, nil
}

// DiscardBackup forgets the snapshot without touching the remote cart
func (s *CartService) DiscardBackup(ctx context.Context, buyerID uuid.UUID) error {
	return s.backup.Delete(ctx, buyerID)
}

func (s *CartService) resolve(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error) {
	remote, remoteErr := s.repo.FindByBuyer(ctx, buyerID)

	var snapshot *cart.Snapshot
	if remoteErr != nil || len(remote) == 0 {
		var err error
		snapshot, err = s.backup.Load(ctx, buyerID)
		if err != nil {
			s.logger.Warn("Cart backup unavailable", zap.String("buyer_id", buyerID.String()), zap.Error(err))
			snapshot = nil
		}
	}
	if remoteErr != nil {
		s.logger.Error("Remote cart read failed", zap.String("buyer_id", buyerID.String()), zap.Error(remoteErr))
	}
	return cart.Resolve(buyerID, remote, remoteErr, snapshot)
}

// snapshot mirrors the remote rows into the backup store; failures never fail the mutation
func (s *CartService) snapshot(ctx context.Context, buyerID uuid.UUID, items []cart.Item) {
	if len(items) == 0 {
		s.dropBackup(ctx, buyerID)
		return
	}
	if err := s.backup.Save(ctx, cart.NewSnapshot(buyerID, items)); err != nil {
		s.logger.Warn("Failed to write cart backup", zap.String("buyer_id", buyerID.String()), zap.Error(err))
	}
}

func (s *CartService) dropBackup(ctx context.Context, buyerID uuid.UUID) {
	if err := s.backup.Delete(ctx, buyerID); err != nil {
		s.logger.Warn("Failed to delete cart backup", zap.String("buyer_id", buyerID.String()), zap.Error(err))
	}
}

func (s *CartService) remoteUnavailable(buyerID uuid.UUID, err error) error {
	s.logger.Error("Remote cart unavailable for mutation", zap.String("buyer_id", buyerID.String()), zap.Error(err))
	return cart.ErrCartReadOnly
}

func parseNiche(raw string) catalog.Niche {
	n := catalog.Niche(strings.ToLower(strings.TrimSpace(raw)))
	if n == "" {
		return catalog.NicheGeneral
	}
	return n
}
