package cart

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeOutlet(t *testing.T, price string) *catalog.MediaOutlet {
	t.Helper()
	o, err := catalog.NewMediaOutlet(uuid.New(), catalog.OutletDetails{
		Name:           "Garden Weekly",
		Domain:         "gardenweekly.com",
		Language:       "en",
		TurnaroundDays: 3,
	}, valueobject.MustUSD(price))
	require.NoError(t, err)
	require.NoError(t, o.Approve())
	return o
}

func TestNewItem(t *testing.T) {
	buyer := uuid.New()
	outlet := activeOutlet(t, "99.99")

	t.Run("prices from the outlet quote", func(t *testing.T) {
		item, err := NewItem(buyer, outlet, catalog.NicheGeneral, Placement{
			TargetURL:  " https://shop.example.com/page ",
			AnchorText: "best shop",
		})
		require.NoError(t, err)
		assert.Equal(t, "99.99", item.UnitPrice.StringFixed(2))
		assert.Equal(t, outlet.PublisherID, item.PublisherID)
		assert.Equal(t, "gardenweekly.com", item.OutletDomain)
		assert.Equal(t, "https://shop.example.com/page", item.TargetURL)
	})

	t.Run("rejects own outlet", func(t *testing.T) {
		_, err := NewItem(outlet.PublisherID, outlet, catalog.NicheGeneral, Placement{})
		assert.ErrorIs(t, err, ErrOwnOutlet)
	})

	t.Run("rejects niche the outlet does not accept", func(t *testing.T) {
		_, err := NewItem(buyer, outlet, catalog.NicheCasino, Placement{})
		assert.ErrorIs(t, err, catalog.ErrNicheNotAccepted)
	})

	t.Run("rejects relative target url", func(t *testing.T) {
		_, err := NewItem(buyer, outlet, catalog.NicheGeneral, Placement{TargetURL: "/landing"})
		assert.Error(t, err)
	})

	t.Run("text limits count characters", func(t *testing.T) {
		_, err := NewItem(buyer, outlet, catalog.NicheGeneral, Placement{
			AnchorText: strings.Repeat("ü", 200),
			Notes:      strings.Repeat("日", 2000),
		})
		require.NoError(t, err)

		_, err = NewItem(buyer, outlet, catalog.NicheGeneral, Placement{AnchorText: strings.Repeat("ü", 201)})
		assert.Error(t, err)
		_, err = NewItem(buyer, outlet, catalog.NicheGeneral, Placement{Notes: strings.Repeat("日", 2001)})
		assert.Error(t, err)
	})
}

func TestItem_Requote(t *testing.T) {
	outlet := activeOutlet(t, "200")
	rule, err := catalog.NewNicheRule(outlet.ID, catalog.NicheCrypto, true, decimal.RequireFromString("1.25"))
	require.NoError(t, err)
	outlet.SetNicheRule(rule)

	item, err := NewItem(uuid.New(), outlet, catalog.NicheGeneral, Placement{})
	require.NoError(t, err)

	require.NoError(t, item.Requote(outlet, catalog.NicheCrypto))
	assert.Equal(t, catalog.NicheCrypto, item.Niche)
	assert.Equal(t, "250.00", item.UnitPrice.StringFixed(2))

	other := activeOutlet(t, "10")
	assert.Error(t, item.Requote(other, catalog.NicheGeneral))
}

func TestCart_CheckCanAdd(t *testing.T) {
	outletID := uuid.New()
	c := &Cart{Items: []Item{{ID: uuid.New(), OutletID: outletID, Niche: catalog.NicheGeneral}}}

	assert.ErrorIs(t, c.CheckCanAdd(outletID, catalog.NicheGeneral, 10), ErrDuplicateItem)
	assert.NoError(t, c.CheckCanAdd(outletID, catalog.NicheCasino, 10))
	assert.ErrorIs(t, c.CheckCanAdd(uuid.New(), catalog.NicheGeneral, 1), ErrCartLimitReached)

	c.ReadOnly = true
	assert.ErrorIs(t, c.CheckCanAdd(uuid.New(), catalog.NicheGeneral, 10), ErrCartReadOnly)
}

func TestCart_Total(t *testing.T) {
	c := &Cart{Items: []Item{
		{UnitPrice: valueobject.MustUSD("10.10")},
		{UnitPrice: valueobject.MustUSD("20.20")},
	}}
	assert.Equal(t, "30.30", c.Total().StringFixed(2))
	assert.Equal(t, 2, c.Count())
	assert.True(t, (&Cart{}).Total().IsZero())
}

func TestResolve(t *testing.T) {
	buyer := uuid.New()
	remote := []Item{{ID: uuid.New(), UnitPrice: valueobject.MustUSD("5")}}
	backup := NewSnapshot(buyer, []Item{{ID: uuid.New(), UnitPrice: valueobject.MustUSD("7")}, {ID: uuid.New()}})
	remoteErr := errors.New("connection refused")

	t.Run("remote wins over backup", func(t *testing.T) {
		c, err := Resolve(buyer, remote, nil, backup)
		require.NoError(t, err)
		assert.Equal(t, SourceRemote, c.Source)
		assert.Len(t, c.Items, 1)
		assert.False(t, c.ReadOnly)
	})

	t.Run("empty remote advertises backup but does not use it", func(t *testing.T) {
		c, err := Resolve(buyer, nil, nil, backup)
		require.NoError(t, err)
		assert.Equal(t, SourceEmpty, c.Source)
		assert.Empty(t, c.Items)
		assert.True(t, c.BackupAvailable)
	})

	t.Run("empty remote without backup", func(t *testing.T) {
		c, err := Resolve(buyer, nil, nil, nil)
		require.NoError(t, err)
		assert.False(t, c.BackupAvailable)
	})

	t.Run("remote failure falls back to read-only backup", func(t *testing.T) {
		c, err := Resolve(buyer, nil, remoteErr, backup)
		require.NoError(t, err)
		assert.Equal(t, SourceBackup, c.Source)
		assert.True(t, c.ReadOnly)
		assert.Len(t, c.Items, 2)
	})

	t.Run("remote failure without backup surfaces the error", func(t *testing.T) {
		_, err := Resolve(buyer, nil, remoteErr, NewSnapshot(buyer, nil))
		assert.ErrorIs(t, err, remoteErr)
	})
}

func TestNewSnapshot_CopiesItems(t *testing.T) {
	items := []Item{{ID: uuid.New(), Notes: "a"}}
	s := NewSnapshot(uuid.New(), items)
	items[0].Notes = "changed"
	assert.Equal(t, "a", s.Items[0].Notes)
	assert.False(t, s.IsEmpty())
}
