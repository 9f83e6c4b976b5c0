package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/linkmarket/backend/internal/application/cart"
	catalogapp "github.com/linkmarket/backend/internal/application/catalog"
	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
	"github.com/linkmarket/backend/internal/application/identity"
	notificationapp "github.com/linkmarket/backend/internal/application/notification"
	orderapp "github.com/linkmarket/backend/internal/application/order"
	paymentapp "github.com/linkmarket/backend/internal/application/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/interfaces/http/dto"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// asUser simulates the JWT middleware for the given user and role
func asUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Set(middleware.JWTRoleKey, role)
		c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Role: role})
		c.Next()
	}
}

func newTestEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(mw...)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// arg returns the typed mock result at index i, tolerating nil
func arg[T any](args mock.Arguments, i int) T {
	var zero T
	if v, ok := args.Get(i).(T); ok {
		return v
	}
	return zero
}

type mockAuth struct{ mock.Mock }

var _ Authenticator = (*mockAuth)(nil)

func (m *mockAuth) Register(ctx context.Context, req identity.RegisterRequest) (*identity.AuthResult, error) {
	args := m.Called(ctx, req)
	return arg[*identity.AuthResult](args, 0), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, req identity.LoginRequest) (*identity.AuthResult, error) {
	args := m.Called(ctx, req)
	return arg[*identity.AuthResult](args, 0), args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, req identity.RefreshRequest) (*identity.AuthResult, error) {
	args := m.Called(ctx, req)
	return arg[*identity.AuthResult](args, 0), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

type mockProfiles struct{ mock.Mock }

var _ Profiles = (*mockProfiles)(nil)

func (m *mockProfiles) Me(ctx context.Context, userID uuid.UUID) (*identity.ProfileResponse, error) {
	args := m.Called(ctx, userID)
	return arg[*identity.ProfileResponse](args, 0), args.Error(1)
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, userID uuid.UUID, req identity.UpdateProfileRequest) (*identity.ProfileResponse, error) {
	args := m.Called(ctx, userID, req)
	return arg[*identity.ProfileResponse](args, 0), args.Error(1)
}

func (m *mockProfiles) ChangePassword(ctx context.Context, userID uuid.UUID, req identity.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockProfiles) ListProfiles(ctx context.Context, q identity.ListProfilesQuery) (shared.Paginated[*identity.ProfileResponse], error) {
	args := m.Called(ctx, q)
	return arg[shared.Paginated[*identity.ProfileResponse]](args, 0), args.Error(1)
}

func (m *mockProfiles) SetStatus(ctx context.Context, adminID, profileID uuid.UUID, req identity.SetStatusRequest) (*identity.ProfileResponse, error) {
	args := m.Called(ctx, adminID, profileID, req)
	return arg[*identity.ProfileResponse](args, 0), args.Error(1)
}

type mockOutlets struct{ mock.Mock }

var _ Outlets = (*mockOutlets)(nil)

func (m *mockOutlets) CreateOutlet(ctx context.Context, publisherID uuid.UUID, req catalogapp.OutletRequest) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, publisherID, req)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) UpdateOutlet(ctx context.Context, publisherID, outletID uuid.UUID, req catalogapp.OutletRequest) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, publisherID, outletID, req)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) SetNicheRule(ctx context.Context, publisherID, outletID uuid.UUID, niche string, req catalogapp.NicheRuleRequest) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, publisherID, outletID, niche, req)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) RemoveNicheRule(ctx context.Context, publisherID, outletID uuid.UUID, niche string) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, publisherID, outletID, niche)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) ListMyOutlets(ctx context.Context, publisherID uuid.UUID, q catalogapp.ListOutletsQuery) (shared.Paginated[*catalogapp.OutletResponse], error) {
	args := m.Called(ctx, publisherID, q)
	return arg[shared.Paginated[*catalogapp.OutletResponse]](args, 0), args.Error(1)
}

func (m *mockOutlets) ListOutlets(ctx context.Context, q catalogapp.ListOutletsQuery, isAdmin bool) (shared.Paginated[*catalogapp.OutletResponse], error) {
	args := m.Called(ctx, q, isAdmin)
	return arg[shared.Paginated[*catalogapp.OutletResponse]](args, 0), args.Error(1)
}

func (m *mockOutlets) GetOutlet(ctx context.Context, outletID, viewerID uuid.UUID, isAdmin bool) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, outletID, viewerID, isAdmin)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) QuotePrice(ctx context.Context, outletID uuid.UUID, niche string) (*catalogapp.QuoteResponse, error) {
	args := m.Called(ctx, outletID, niche)
	return arg[*catalogapp.QuoteResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) ApproveOutlet(ctx context.Context, outletID uuid.UUID) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, outletID)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) SuspendOutlet(ctx context.Context, outletID uuid.UUID, reason string) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, outletID, reason)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

func (m *mockOutlets) ReactivateOutlet(ctx context.Context, outletID uuid.UUID) (*catalogapp.OutletResponse, error) {
	args := m.Called(ctx, outletID)
	return arg[*catalogapp.OutletResponse](args, 0), args.Error(1)
}

type mockCarts struct{ mock.Mock }

var _ Carts = (*mockCarts)(nil)

func (m *mockCarts) GetCart(ctx context.Context, buyerID uuid.UUID) (*cartapp.CartResponse, error) {
	args := m.Called(ctx, buyerID)
	return arg[*cartapp.CartResponse](args, 0), args.Error(1)
}

func (m *mockCarts) AddItem(ctx context.Context, buyerID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartResponse, error) {
	args := m.Called(ctx, buyerID, req)
	return arg[*cartapp.CartResponse](args, 0), args.Error(1)
}

func (m *mockCarts) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartResponse, error) {
	args := m.Called(ctx, buyerID, itemID, req)
	return arg[*cartapp.CartResponse](args, 0), args.Error(1)
}

func (m *mockCarts) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*cartapp.CartResponse, error) {
	args := m.Called(ctx, buyerID, itemID)
	return arg[*cartapp.CartResponse](args, 0), args.Error(1)
}

func (m *mockCarts) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return m.Called(ctx, buyerID).Error(0)
}

func (m *mockCarts) Restore(ctx context.Context, buyerID uuid.UUID) (*cartapp.RestoreResult, error) {
	args := m.Called(ctx, buyerID)
	return arg[*cartapp.RestoreResult](args, 0), args.Error(1)
}

func (m *mockCarts) DiscardBackup(ctx context.Context, buyerID uuid.UUID) error {
	return m.Called(ctx, buyerID).Error(0)
}

type mockCheckouts struct{ mock.Mock }

var _ Checkouts = (*mockCheckouts)(nil)

func (m *mockCheckouts) session(args mock.Arguments) (*checkoutapp.SessionResponse, error) {
	return arg[*checkoutapp.SessionResponse](args, 0), args.Error(1)
}

func (m *mockCheckouts) Start(ctx context.Context, buyerID uuid.UUID) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID))
}

func (m *mockCheckouts) Get(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID))
}

func (m *mockCheckouts) Current(ctx context.Context, buyerID uuid.UUID) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID))
}

func (m *mockCheckouts) SelectPaymentMethod(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.SelectPaymentMethodRequest) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID, req))
}

func (m *mockCheckouts) SubmitBilling(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.BillingRequest) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID, req))
}

func (m *mockCheckouts) SubmitContent(ctx context.Context, buyerID, sessionID, lineID uuid.UUID, req checkoutapp.ContentRequest) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID, lineID, req))
}

func (m *mockCheckouts) RequestContentUpload(ctx context.Context, buyerID, sessionID, lineID uuid.UUID, req checkoutapp.UploadRequest) (*checkoutapp.UploadTarget, error) {
	args := m.Called(ctx, buyerID, sessionID, lineID, req)
	return arg[*checkoutapp.UploadTarget](args, 0), args.Error(1)
}

func (m *mockCheckouts) Next(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID))
}

func (m *mockCheckouts) Back(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID))
}

func (m *mockCheckouts) GoTo(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.GoToRequest) (*checkoutapp.SessionResponse, error) {
	return m.session(m.Called(ctx, buyerID, sessionID, req))
}

func (m *mockCheckouts) Confirm(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.ConfirmRequest) (*checkoutapp.ConfirmResult, error) {
	args := m.Called(ctx, buyerID, sessionID, req)
	return arg[*checkoutapp.ConfirmResult](args, 0), args.Error(1)
}

type mockOrders struct{ mock.Mock }

var _ Orders = (*mockOrders)(nil)

func (m *mockOrders) order(args mock.Arguments) (*orderapp.OrderResponse, error) {
	return arg[*orderapp.OrderResponse](args, 0), args.Error(1)
}

func (m *mockOrders) item(args mock.Arguments) (*orderapp.PublisherItemResponse, error) {
	return arg[*orderapp.PublisherItemResponse](args, 0), args.Error(1)
}

func (m *mockOrders) ListMyOrders(ctx context.Context, buyerID uuid.UUID, q orderapp.ListOrdersQuery) (shared.Paginated[*orderapp.OrderResponse], error) {
	args := m.Called(ctx, buyerID, q)
	return arg[shared.Paginated[*orderapp.OrderResponse]](args, 0), args.Error(1)
}

func (m *mockOrders) GetMyOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, buyerID, orderID))
}

func (m *mockOrders) CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID, req orderapp.CancelRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, buyerID, orderID, req))
}

func (m *mockOrders) ListPublisherItems(ctx context.Context, publisherID uuid.UUID, q orderapp.ListItemsQuery) (shared.Paginated[*orderapp.PublisherItemResponse], error) {
	args := m.Called(ctx, publisherID, q)
	return arg[shared.Paginated[*orderapp.PublisherItemResponse]](args, 0), args.Error(1)
}

func (m *mockOrders) AcceptItem(ctx context.Context, publisherID, itemID uuid.UUID) (*orderapp.PublisherItemResponse, error) {
	return m.item(m.Called(ctx, publisherID, itemID))
}

func (m *mockOrders) RejectItem(ctx context.Context, publisherID, itemID uuid.UUID, req orderapp.RejectItemRequest) (*orderapp.PublisherItemResponse, error) {
	return m.item(m.Called(ctx, publisherID, itemID, req))
}

func (m *mockOrders) PublishItem(ctx context.Context, publisherID, itemID uuid.UUID, req orderapp.PublishItemRequest) (*orderapp.PublisherItemResponse, error) {
	return m.item(m.Called(ctx, publisherID, itemID, req))
}

func (m *mockOrders) ListOrders(ctx context.Context, q orderapp.ListOrdersQuery) (shared.Paginated[*orderapp.OrderResponse], error) {
	args := m.Called(ctx, q)
	return arg[shared.Paginated[*orderapp.OrderResponse]](args, 0), args.Error(1)
}

func (m *mockOrders) GetOrder(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *mockOrders) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, adminID, orderID, req))
}

func (m *mockOrders) MarkBankTransferPaid(ctx context.Context, adminID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, adminID, orderID))
}

func (m *mockOrders) RefundOrder(ctx context.Context, adminID, orderID uuid.UUID, req orderapp.RefundRequest) (*orderapp.OrderResponse, error) {
	return m.order(m.Called(ctx, adminID, orderID, req))
}

type mockRetrier struct{ mock.Mock }

func (m *mockRetrier) RetryPayment(ctx context.Context, buyerID, orderID uuid.UUID) (*checkoutapp.PaymentRedirect, error) {
	args := m.Called(ctx, buyerID, orderID)
	return arg[*checkoutapp.PaymentRedirect](args, 0), args.Error(1)
}

type mockNotifications struct{ mock.Mock }

var _ Notifications = (*mockNotifications)(nil)

func (m *mockNotifications) List(ctx context.Context, userID uuid.UUID, q notificationapp.ListQuery) (shared.Paginated[*notificationapp.NotificationResponse], error) {
	args := m.Called(ctx, userID, q)
	return arg[shared.Paginated[*notificationapp.NotificationResponse]](args, 0), args.Error(1)
}

func (m *mockNotifications) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return arg[int64](args, 0), args.Error(1)
}

func (m *mockNotifications) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return arg[int64](args, 0), args.Error(1)
}

func (m *mockNotifications) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

type mockWebhooks struct{ mock.Mock }

func (m *mockWebhooks) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*paymentapp.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	return arg[*paymentapp.WebhookResult](args, 0), args.Error(1)
}
