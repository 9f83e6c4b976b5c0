package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, input payment.CheckoutSessionInput) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockGateway) Refund(ctx context.Context, input payment.RefundInput) (*payment.RefundResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// fakeOrders applies payment hooks directly to in-memory orders
type fakeOrders struct {
	orders    map[uuid.UUID]*order.Order
	attachErr error
	hookErr   error
	paid      []string
	failed    []string
	refunded  []bool
}

func newFakeOrders(orders ...*order.Order) *fakeOrders {
	f := &fakeOrders{orders: map[uuid.UUID]*order.Order{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) OwnedOrder(_ context.Context, buyerID, orderID uuid.UUID) (*order.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || !o.IsOwnedBy(buyerID) {
		return nil, errors.New("order not found")
	}
	return o, nil
}

func (f *fakeOrders) AttachPaymentSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	return f.orders[orderID].AttachPaymentSession(sessionID)
}

func (f *fakeOrders) MarkPaid(_ context.Context, orderID uuid.UUID, sessionID, intentID string) (*order.Order, error) {
	if f.hookErr != nil {
		return nil, f.hookErr
	}
	f.paid = append(f.paid, sessionID)
	o := f.orders[orderID]
	return o, o.MarkPaid(intentID)
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, orderID uuid.UUID, sessionID, reason string) (*order.Order, error) {
	if f.hookErr != nil {
		return nil, f.hookErr
	}
	f.failed = append(f.failed, reason)
	o := f.orders[orderID]
	return o, o.MarkPaymentFailed(reason)
}

func (f *fakeOrders) MarkRefunded(_ context.Context, orderID uuid.UUID, intentID string, full bool) (*order.Order, error) {
	if f.hookErr != nil {
		return nil, f.hookErr
	}
	f.refunded = append(f.refunded, full)
	return f.orders[orderID], nil
}

type recordedError struct {
	operation string
	category  payment.ErrorCategory
}

type fakeRecorder struct {
	errors []recordedError
}

func (r *fakeRecorder) RecordPaymentError(_ context.Context, operation string, category payment.ErrorCategory) {
	r.errors = append(r.errors, recordedError{operation, category})
}

func newCardOrder(t *testing.T) *order.Order {
	t.Helper()
	lines := []checkout.Line{
		{ID: uuid.New(), OutletID: uuid.New(), PublisherID: uuid.New(), OutletName: "Tech Daily",
			OutletDomain: "techdaily.com", Niche: catalog.NicheGeneral, Price: valueobject.MustUSD("120")},
		{ID: uuid.New(), OutletID: uuid.New(), PublisherID: uuid.New(), OutletName: "Bet Weekly",
			OutletDomain: "betweekly.net", Niche: catalog.NicheCasino, Price: valueobject.MustUSD("180")},
	}
	session, err := checkout.NewSession(uuid.New(), lines, 0)
	require.NoError(t, err)
	session.PaymentMethod = checkout.PaymentMethodCard
	session.Billing.Email = "buyer@example.com"
	o, err := order.NewOrderFromCheckout("LM-2026-00042", session)
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func testOptions() Options {
	return Options{
		SuccessURL:           "https://lm.io/orders/{ORDER_ID}?payment=success",
		CancelURL:            "https://lm.io/orders/{ORDER_ID}?payment=cancelled",
		SessionExpiry:        time.Hour,
		MaxRetries:           2,
		RetryInitialInterval: time.Millisecond,
	}
}

func transient() error {
	return payment.NewError(payment.CategoryRetryRecommended, "rate_limit", "", errors.New("429"))
}

func TestPaymentService_StartPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("builds one line item per placement and attaches the session", func(t *testing.T) {
		o := newCardOrder(t)
		gw := new(MockGateway)
		orders := newFakeOrders(o)
		svc := NewPaymentService(gw, orders, testOptions(), zap.NewNop())

		gw.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(in payment.CheckoutSessionInput) bool {
			return len(in.LineItems) == 2 &&
				in.LineItems[0].Name == "techdaily.com – general" &&
				in.LineItems[1].Name == "betweekly.net – casino" &&
				in.LineItems[1].Amount.Cents() == 18000 &&
				in.CustomerEmail == "buyer@example.com" &&
				in.OrderNumber == "LM-2026-00042" &&
				in.SuccessURL == "https://lm.io/orders/"+o.ID.String()+"?payment=success" &&
				in.IdempotencyKey == "order-"+o.ID.String()+"-session" &&
				in.ExpiresAfter == time.Hour
		})).Return(&payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil).Once()

		redirect, err := svc.StartPayment(ctx, o)
		require.NoError(t, err)
		assert.Equal(t, "cs_1", redirect.SessionID)
		assert.Equal(t, "https://pay.example/cs_1", redirect.URL)
		assert.Equal(t, "cs_1", o.StripeSessionID)
		assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
		gw.AssertExpectations(t)
	})

	t.Run("retries transient failures with the same idempotency key", func(t *testing.T) {
		o := newCardOrder(t)
		gw := new(MockGateway)
		svc := NewPaymentService(gw, newFakeOrders(o), testOptions(), zap.NewNop())

		var keys []string
		record := func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(payment.CheckoutSessionInput).IdempotencyKey)
		}
		gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, transient()).Twice().Run(record)
		gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(&payment.CheckoutSession{ID: "cs_2"}, nil).Once().Run(record)

		redirect, err := svc.StartPayment(ctx, o)
		require.NoError(t, err)
		assert.Equal(t, "cs_2", redirect.SessionID)
		require.Len(t, keys, 3)
		assert.Equal(t, keys[0], keys[1])
		assert.Equal(t, keys[0], keys[2])
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		o := newCardOrder(t)
		gw := new(MockGateway)
		recorder := &fakeRecorder{}
		svc := NewPaymentService(gw, newFakeOrders(o), testOptions(), zap.NewNop())
		svc.SetErrorRecorder(recorder)
		gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, transient())

		_, err := svc.StartPayment(ctx, o)
		require.Error(t, err)
		assert.Equal(t, payment.CategoryRetryRecommended, payment.CategoryOf(err))
		gw.AssertNumberOfCalls(t, "CreateCheckoutSession", 3)
		require.Len(t, recorder.errors, 1)
		assert.Equal(t, "create_session", recorder.errors[0].operation)
	})

	t.Run("does not retry configuration errors", func(t *testing.T) {
		o := newCardOrder(t)
		gw := new(MockGateway)
		svc := NewPaymentService(gw, newFakeOrders(o), testOptions(), zap.NewNop())
		gw.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(nil, payment.NewError(payment.CategorySystemIssue, "authentication_error", "", nil))

		_, err := svc.StartPayment(ctx, o)
		require.Error(t, err)
		assert.Equal(t, payment.CategorySystemIssue, payment.CategoryOf(err))
		gw.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
	})

	t.Run("expires the session when the order cannot take it", func(t *testing.T) {
		o := newCardOrder(t)
		gw := new(MockGateway)
		orders := newFakeOrders(o)
		orders.attachErr = order.ErrInvalidTransition
		svc := NewPaymentService(gw, orders, testOptions(), zap.NewNop())
		gw.On("CreateCheckoutSession", ctx, mock.Anything).Return(&payment.CheckoutSession{ID: "cs_3"}, nil)
		gw.On("ExpireCheckoutSession", ctx, "cs_3").Return(nil).Once()

		_, err := svc.StartPayment(ctx, o)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
		gw.AssertExpectations(t)
	})

	t.Run("refuses bank transfer orders", func(t *testing.T) {
		o := newCardOrder(t)
		o.PaymentMethod = checkout.PaymentMethodBankTransfer
		svc := NewPaymentService(new(MockGateway), newFakeOrders(o), testOptions(), zap.NewNop())

		_, err := svc.StartPayment(ctx, o)
		assert.ErrorIs(t, err, ErrRetryNotAllowed)
	})
}

func TestPaymentService_RetryPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("expires the old session and opens a new one", func(t *testing.T) {
		o := newCardOrder(t)
		require.NoError(t, o.AttachPaymentSession("cs_old"))
		require.NoError(t, o.MarkPaymentFailed("declined"))
		gw := new(MockGateway)
		svc := NewPaymentService(gw, newFakeOrders(o), testOptions(), zap.NewNop())

		gw.On("ExpireCheckoutSession", ctx, "cs_old").Return(payment.ErrSessionNotFound).Once()
		gw.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(in payment.CheckoutSessionInput) bool {
			return in.IdempotencyKey == "order-"+o.ID.String()+"-session-cs_old"
		})).Return(&payment.CheckoutSession{ID: "cs_new", URL: "https://pay.example/cs_new"}, nil).Once()

		redirect, err := svc.RetryPayment(ctx, o.BuyerID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "cs_new", redirect.SessionID)
		assert.Equal(t, "cs_new", o.StripeSessionID)
		gw.AssertExpectations(t)
	})

	t.Run("rejects paid orders", func(t *testing.T) {
		o := newCardOrder(t)
		require.NoError(t, o.MarkPaid("pi_1"))
		svc := NewPaymentService(new(MockGateway), newFakeOrders(o), testOptions(), zap.NewNop())

		_, err := svc.RetryPayment(ctx, o.BuyerID, o.ID)
		assert.ErrorIs(t, err, ErrRetryNotAllowed)
	})

	t.Run("hides other buyers' orders", func(t *testing.T) {
		o := newCardOrder(t)
		svc := NewPaymentService(new(MockGateway), newFakeOrders(o), testOptions(), zap.NewNop())

		_, err := svc.RetryPayment(ctx, uuid.New(), o.ID)
		assert.Error(t, err)
	})
}

func TestPaymentService_RefundPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds the captured intent", func(t *testing.T) {
		o := newCardOrder(t)
		require.NoError(t, o.MarkPaid("pi_9"))
		gw := new(MockGateway)
		svc := NewPaymentService(gw, newFakeOrders(o), testOptions(), zap.NewNop())
		gw.On("Refund", ctx, mock.MatchedBy(func(in payment.RefundInput) bool {
			return in.PaymentIntentID == "pi_9" &&
				in.Amount.IsZero() &&
				in.IdempotencyKey == "order-"+o.ID.String()+"-refund"
		})).Return(&payment.RefundResult{ID: "re_1", Status: "succeeded", Amount: 30000}, nil)

		require.NoError(t, svc.RefundPayment(ctx, o, "publisher unavailable"))
		gw.AssertExpectations(t)
	})

	t.Run("nothing to refund without a payment intent", func(t *testing.T) {
		o := newCardOrder(t)
		svc := NewPaymentService(new(MockGateway), newFakeOrders(o), testOptions(), zap.NewNop())

		assert.ErrorIs(t, svc.RefundPayment(ctx, o, "x"), payment.ErrNothingToRefund)
	})

	t.Run("records gateway failures", func(t *testing.T) {
		o := newCardOrder(t)
		require.NoError(t, o.MarkPaid("pi_9"))
		gw := new(MockGateway)
		recorder := &fakeRecorder{}
		svc := NewPaymentService(gw, newFakeOrders(o), testOptions(), zap.NewNop())
		svc.SetErrorRecorder(recorder)
		gw.On("Refund", ctx, mock.Anything).
			Return(nil, payment.NewError(payment.CategoryContactSupport, "charge_disputed", "", nil))

		require.Error(t, svc.RefundPayment(ctx, o, "x"))
		require.Len(t, recorder.errors, 1)
		assert.Equal(t, recordedError{"refund", payment.CategoryContactSupport}, recorder.errors[0])
	})
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.StripeConfig{Currency: "usd", MaxRetries: 4})
	assert.Equal(t, valueobject.USD, opts.Currency)
	assert.Equal(t, 4, opts.MaxRetries)

	opts = OptionsFromConfig(config.StripeConfig{Currency: "jpy"})
	assert.Equal(t, valueobject.DefaultCurrency, opts.Currency)

	svc := NewPaymentService(new(MockGateway), newFakeOrders(), Options{}, zap.NewNop())
	assert.Equal(t, 500*time.Millisecond, svc.opts.RetryInitialInterval)
}
