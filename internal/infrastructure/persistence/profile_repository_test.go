package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfile(t *testing.T, email string, role identity.Role) *identity.Profile {
	t.Helper()
	p, err := identity.NewProfile(email, "secret123", "Test User", role)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestGormProfileRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(setupTestDB(t))

	p := newTestProfile(t, "Buyer@Example.com", identity.RoleBuyer)
	require.NoError(t, repo.Save(ctx, p))
	assert.Equal(t, 1, p.Version)

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "buyer@example.com", found.Email)
		assert.Equal(t, identity.RoleBuyer, found.Role)
		assert.True(t, found.VerifyPassword("secret123"))
	})

	t.Run("finds by email case-insensitively", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "  BUYER@example.com ")
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)

		exists, err := repo.ExistsByEmail(ctx, "buyer@EXAMPLE.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing profile is ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate email is ErrAlreadyExists", func(t *testing.T) {
		dup := newTestProfile(t, "buyer@example.com", identity.RolePublisher)
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})
}

func TestGormProfileRepository_OptimisticLocking(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(setupTestDB(t))

	p := newTestProfile(t, "pub@example.com", identity.RolePublisher)
	require.NoError(t, repo.Save(ctx, p))

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.UpdateDetails("First Writer", "Acme"))
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, second.UpdateDetails("Second Writer", ""))
	assert.ErrorIs(t, repo.Save(ctx, second), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "First Writer", stored.FullName)
	assert.Equal(t, "Acme", stored.Company)
}

func TestGormProfileRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProfileRepository(setupTestDB(t))

	admin := newTestProfile(t, "admin@example.com", identity.RoleAdmin)
	buyer := newTestProfile(t, "alice@shop.io", identity.RoleBuyer)
	publisher := newTestProfile(t, "bob@news.io", identity.RolePublisher)
	suspendedAdmin := newTestProfile(t, "old-admin@example.com", identity.RoleAdmin)
	suspendedAdmin.Status = identity.ProfileStatusSuspended
	for _, p := range []*identity.Profile{admin, buyer, publisher, suspendedAdmin} {
		require.NoError(t, repo.Save(ctx, p))
	}

	t.Run("filters by role", func(t *testing.T) {
		role := identity.RoleAdmin
		got, total, err := repo.FindAll(ctx, identity.ProfileFilter{Filter: shared.DefaultFilter(), Role: &role})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, got, 2)
	})

	t.Run("searches email", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "SHOP"
		got, total, err := repo.FindAll(ctx, identity.ProfileFilter{Filter: filter})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, buyer.ID, got[0].ID)
	})

	t.Run("paginates", func(t *testing.T) {
		filter := shared.Filter{Page: 2, PageSize: 3, OrderBy: "email", OrderDir: "asc"}
		got, total, err := repo.FindAll(ctx, identity.ProfileFilter{Filter: filter})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, got, 1)
		assert.Equal(t, "old-admin@example.com", got[0].Email)
	})

	t.Run("FindIDsByRole returns active profiles only", func(t *testing.T) {
		ids, err := repo.FindIDsByRole(ctx, identity.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{admin.ID}, ids)
	})
}
