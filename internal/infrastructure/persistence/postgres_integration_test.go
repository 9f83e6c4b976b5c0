//go:build integration

package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/notification"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/migration"
	"github.com/linkmarket/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupPostgres starts a disposable Postgres container and applies the embedded migrations
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("linkmarket_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), GormConfig(gormlogger.Default.LogMode(level)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	status, err := m.Status()
	require.NoError(t, err)
	require.True(t, status.Applied)
	require.False(t, status.Dirty)

	return db
}

func TestPostgres_MarketplaceFlow(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)

	profiles := NewGormProfileRepository(db)
	outlets := NewGormMediaOutletRepository(db)
	orders := NewGormOrderRepository(db)
	numbers := NewGormOrderNumberGenerator(db)
	notifications := NewGormNotificationRepository(db)

	publisher := newTestProfile(t, "publisher@news.io", identity.RolePublisher)
	buyer := newTestProfile(t, "buyer@shop.io", identity.RoleBuyer)
	require.NoError(t, profiles.Save(ctx, publisher))
	require.NoError(t, profiles.Save(ctx, buyer))

	outlet := newTestOutlet(t, publisher.ID, "news.io", "100")
	outlet.SetNicheRule(mustRule(t, catalog.NicheCrypto, true, "1.5"))
	require.NoError(t, outlet.Approve())
	require.NoError(t, outlets.SaveWithLock(ctx, outlet))

	t.Run("niche filter runs on postgres", func(t *testing.T) {
		niche := catalog.NicheCrypto
		got, total, err := outlets.FindAll(ctx, catalog.OutletFilter{Filter: shared.DefaultFilter(), Niche: &niche})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, outlet.ID, got[0].ID)
	})

	number, err := numbers.NextOrderNumber(ctx, time.Now())
	require.NoError(t, err)

	line := newTestLine(publisher.ID, "news.io", "150")
	line.OutletID = outlet.ID
	o := newTestOrder(t, number, buyer.ID, line)
	require.NoError(t, orders.Save(ctx, o))
	require.NoError(t, o.MarkPaid("pi_integration"))
	require.NoError(t, orders.Save(ctx, o))

	t.Run("publisher sees paid items", func(t *testing.T) {
		items, total, err := orders.FindItemsByPublisher(ctx, order.ItemFilter{Filter: shared.DefaultFilter(), PublisherID: publisher.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, number, items[0].OrderNumber)
	})

	t.Run("duplicate domain violates the unique index", func(t *testing.T) {
		dup := newTestOutlet(t, publisher.ID, "news.io", "80")
		assert.ErrorIs(t, outlets.Save(ctx, dup), catalog.ErrDomainTaken)
	})

	t.Run("notifications require an existing profile", func(t *testing.T) {
		n, err := notification.New(uuid.New(), notification.TypeOrderPaid, "Orphan", "", "")
		require.NoError(t, err)
		assert.Error(t, notifications.SaveAll(ctx, []*notification.Notification{n}))
	})
}
