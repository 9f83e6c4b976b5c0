package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartItem(t *testing.T, buyerID uuid.UUID, outlet *catalog.MediaOutlet, niche catalog.Niche) *cart.Item {
	t.Helper()
	item, err := cart.NewItem(buyerID, outlet, niche, cart.Placement{TargetURL: "https://shop.io", AnchorText: "shop"})
	require.NoError(t, err)
	return item
}

func TestGormCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCartRepository(setupTestDB(t))
	buyerID := uuid.New()

	outlet := newTestOutlet(t, uuid.New(), "news.io", "100")
	require.NoError(t, outlet.Approve())
	outlet.SetNicheRule(mustRule(t, catalog.NicheCrypto, true, "1.5"))

	general := newTestCartItem(t, buyerID, outlet, catalog.NicheGeneral)
	crypto := newTestCartItem(t, buyerID, outlet, catalog.NicheCrypto)
	require.NoError(t, repo.Create(ctx, general, crypto))

	t.Run("lists the buyer's lines", func(t *testing.T) {
		items, err := repo.FindByBuyer(ctx, buyerID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "150.00", items[1].UnitPrice.StringFixed(2))

		other, err := repo.FindByBuyer(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("same outlet and niche twice is a duplicate", func(t *testing.T) {
		again := newTestCartItem(t, buyerID, outlet, catalog.NicheGeneral)
		assert.ErrorIs(t, repo.Create(ctx, again), cart.ErrDuplicateItem)

		items, err := repo.FindByBuyer(ctx, buyerID)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("updates placement fields", func(t *testing.T) {
		require.NoError(t, general.UpdatePlacement(cart.Placement{TargetURL: "https://other.io", AnchorText: "other"}))
		require.NoError(t, repo.Update(ctx, general))

		items, err := repo.FindByBuyer(ctx, buyerID)
		require.NoError(t, err)
		assert.Equal(t, "https://other.io", items[0].TargetURL)
		assert.Equal(t, "other", items[0].AnchorText)
	})

	t.Run("updating another buyer's line is not found", func(t *testing.T) {
		foreign := *general
		foreign.BuyerID = uuid.New()
		assert.ErrorIs(t, repo.Update(ctx, &foreign), cart.ErrItemNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New(), crypto.ID), cart.ErrItemNotFound)
		require.NoError(t, repo.Delete(ctx, buyerID, crypto.ID))
		assert.ErrorIs(t, repo.Delete(ctx, buyerID, crypto.ID), cart.ErrItemNotFound)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, repo.DeleteAll(ctx, buyerID))
		items, err := repo.FindByBuyer(ctx, buyerID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
