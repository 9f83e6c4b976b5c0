package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/linkmarket/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type gormDB = gorm.DB

// setupTestDB opens an isolated in-memory SQLite database with every table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := GormConfig(gormlogger.Default.LogMode(gormlogger.Silent))
	cfg.PrepareStmt = false
	db, err := gorm.Open(sqlite.Open("file::memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive for the whole test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.ProfileModel{},
		&models.MediaOutletModel{},
		&models.NicheRuleModel{},
		&models.CartItemModel{},
		&models.CheckoutSessionModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.NotificationModel{},
		&models.OrderNumberSequenceModel{},
	))
	return db
}

func testOutletDetails(domain string) catalog.OutletDetails {
	return catalog.OutletDetails{
		Name:            "Outlet " + domain,
		Domain:          domain,
		Description:     "Guest posts",
		Category:        "Technology",
		Language:        "en",
		Country:         "US",
		DomainAuthority: 40,
		MonthlyTraffic:  50000,
		LinkType:        catalog.LinkTypeDofollow,
		TurnaroundDays:  5,
	}
}

func newTestOutlet(t *testing.T, publisherID uuid.UUID, domain, price string) *catalog.MediaOutlet {
	t.Helper()
	o, err := catalog.NewMediaOutlet(publisherID, testOutletDetails(domain), valueobject.MustUSD(price))
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func newTestSession(t *testing.T, buyerID uuid.UUID, lines ...checkout.Line) *checkout.Session {
	t.Helper()
	s, err := checkout.NewSession(buyerID, lines, time.Hour)
	require.NoError(t, err)
	s.PaymentMethod = checkout.PaymentMethodCard
	s.Billing = checkout.BillingInfo{FullName: "Jane Buyer", Email: "jane@buyer.io", City: "Berlin"}
	for _, l := range lines {
		s.Contents[l.ID] = checkout.ContentSubmission{
			Title:      "Article for " + l.OutletDomain,
			Body:       "Body text",
			TargetURL:  "https://shop.io",
			AnchorText: "shop",
		}
	}
	s.ClearDomainEvents()
	return s
}

func newTestLine(publisherID uuid.UUID, domain, price string) checkout.Line {
	return checkout.Line{
		ID:           uuid.New(),
		OutletID:     uuid.New(),
		PublisherID:  publisherID,
		OutletName:   "Outlet " + domain,
		OutletDomain: domain,
		Niche:        catalog.NicheGeneral,
		Price:        valueobject.MustUSD(price),
	}
}

func newTestOrder(t *testing.T, number string, buyerID uuid.UUID, lines ...checkout.Line) *order.Order {
	t.Helper()
	o, err := order.NewOrderFromCheckout(number, newTestSession(t, buyerID, lines...))
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}
