package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func setupMockBackend(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) {
	t.Helper()
	stripe.SetBackend(stripe.APIBackend, &mockBackend{handler: handler})
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })
}

const testWebhookSecret = "whsec_test_123456789"

func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: testWebhookSecret,
		IsTestMode:    true,
		Currency:      "usd",
		SessionExpiry: time.Hour,
	}
}

func newTestGateway(t *testing.T) *StripeGateway {
	t.Helper()
	g, err := NewStripeGateway(testConfig(), zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestNewStripeGateway_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *StripeConfig)
		expectedErr string
	}{
		{"missing secret key", func(c *StripeConfig) { c.SecretKey = "" }, "secret key is required"},
		{"test mode with live key", func(c *StripeConfig) { c.SecretKey = "sk_live_1" }, "not a test key"},
		{"live mode with test key", func(c *StripeConfig) { c.IsTestMode = false }, "not a live key"},
		{"missing webhook secret", func(c *StripeConfig) { c.WebhookSecret = "" }, "webhook secret is required"},
		{"missing currency", func(c *StripeConfig) { c.Currency = "" }, "currency is required"},
		{"expiry too short", func(c *StripeConfig) { c.SessionExpiry = 5 * time.Minute }, "session expiry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			g, err := NewStripeGateway(cfg, zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, g)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	g := newTestGateway(t)
	orderID := uuid.New()
	buyerID := uuid.New()

	var captured *stripe.CheckoutSessionParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/checkout/sessions" {
			captured = params.(*stripe.CheckoutSessionParams)
			return json.Marshal(&stripe.CheckoutSession{
				ID:        "cs_test_1",
				URL:       "https://checkout.stripe.com/c/pay/cs_test_1",
				Status:    stripe.CheckoutSessionStatusOpen,
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
				Metadata:  map[string]string{"order_id": orderID.String()},
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})

	out, err := g.CreateCheckoutSession(context.Background(), payment.CheckoutSessionInput{
		OrderID:       orderID,
		OrderNumber:   "LM-2026-00001",
		BuyerID:       buyerID,
		CustomerEmail: "buyer@example.com",
		LineItems: []payment.LineItem{
			{Name: "Guest post on news.example", Amount: valueobject.MustUSD("149.50"), Quantity: 1},
			{Name: "Guest post on tech.example", Amount: valueobject.MustUSD("80")},
		},
		SuccessURL:     "https://lm.io/orders/1?payment=success",
		CancelURL:      "https://lm.io/orders/1?payment=cancelled",
		IdempotencyKey: "order-" + orderID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", out.ID)
	assert.Equal(t, payment.SessionStatusOpen, out.Status)
	assert.Contains(t, out.URL, "cs_test_1")
	assert.False(t, out.ExpiresAt.IsZero())

	require.NotNil(t, captured)
	assert.Equal(t, "payment", *captured.Mode)
	assert.Equal(t, "LM-2026-00001", *captured.ClientReferenceID)
	assert.Equal(t, "buyer@example.com", *captured.CustomerEmail)
	assert.Equal(t, orderID.String(), captured.Metadata["order_id"])
	assert.Equal(t, buyerID.String(), captured.PaymentIntentData.Metadata["buyer_id"])
	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, int64(14950), *captured.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *captured.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(1), *captured.LineItems[1].Quantity)
	assert.Equal(t, "order-"+orderID.String(), *captured.IdempotencyKey)
	require.NotNil(t, captured.ExpiresAt)
}

func TestCreateCheckoutSession_NoLineItems(t *testing.T) {
	g := newTestGateway(t)

	_, err := g.CreateCheckoutSession(context.Background(), payment.CheckoutSessionInput{OrderID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, payment.CategorySystemIssue, payment.CategoryOf(err))
}

func TestCreateCheckoutSession_StripeError(t *testing.T) {
	g := newTestGateway(t)
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{HTTPStatusCode: 429, Code: stripe.ErrorCodeRateLimit, Msg: "slow down"}
	})

	_, err := g.CreateCheckoutSession(context.Background(), payment.CheckoutSessionInput{
		OrderID:   uuid.New(),
		LineItems: []payment.LineItem{{Name: "x", Amount: valueobject.MustUSD("10")}},
	})
	require.Error(t, err)

	var pe *payment.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, payment.CategoryRetryRecommended, pe.Category)
	assert.True(t, pe.Category.Retryable())
}

func TestGetCheckoutSession(t *testing.T) {
	g := newTestGateway(t)

	t.Run("maps payment intent", func(t *testing.T) {
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			if method == "GET" && path == "/v1/checkout/sessions/cs_test_2" {
				return json.Marshal(&stripe.CheckoutSession{
					ID:            "cs_test_2",
					Status:        stripe.CheckoutSessionStatusComplete,
					PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
					PaymentIntent: &stripe.PaymentIntent{ID: "pi_123"},
					AmountTotal:   22950,
					Currency:      stripe.CurrencyUSD,
				})
			}
			return nil, fmt.Errorf("unexpected call: %s %s", method, path)
		})

		s, err := g.GetCheckoutSession(context.Background(), "cs_test_2")
		require.NoError(t, err)
		assert.Equal(t, payment.SessionStatusComplete, s.Status)
		assert.Equal(t, "paid", s.PaymentStatus)
		assert.Equal(t, "pi_123", s.PaymentIntentID)
		assert.Equal(t, int64(22950), s.AmountTotal)
	})

	t.Run("not found", func(t *testing.T) {
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{HTTPStatusCode: 404, Type: stripe.ErrorTypeInvalidRequest, Code: "resource_missing"}
		})

		_, err := g.GetCheckoutSession(context.Background(), "cs_missing")
		assert.ErrorIs(t, err, payment.ErrSessionNotFound)
	})
}

func TestExpireCheckoutSession(t *testing.T) {
	g := newTestGateway(t)

	t.Run("expires open session", func(t *testing.T) {
		called := false
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			if method == "POST" && path == "/v1/checkout/sessions/cs_open/expire" {
				called = true
				return json.Marshal(&stripe.CheckoutSession{ID: "cs_open", Status: stripe.CheckoutSessionStatusExpired})
			}
			return nil, fmt.Errorf("unexpected call: %s %s", method, path)
		})

		require.NoError(t, g.ExpireCheckoutSession(context.Background(), "cs_open"))
		assert.True(t, called)
	})

	t.Run("already closed session is not an error", func(t *testing.T) {
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{HTTPStatusCode: 400, Type: stripe.ErrorTypeInvalidRequest, Msg: "Only Checkout Sessions with a status of open can be expired"}
		})

		assert.NoError(t, g.ExpireCheckoutSession(context.Background(), "cs_done"))
	})

	t.Run("gateway outage is returned", func(t *testing.T) {
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{HTTPStatusCode: 503, Type: stripe.ErrorTypeAPI}
		})

		err := g.ExpireCheckoutSession(context.Background(), "cs_x")
		assert.Equal(t, payment.CategoryRetryRecommended, payment.CategoryOf(err))
	})
}

func TestRefund(t *testing.T) {
	g := newTestGateway(t)

	t.Run("full refund", func(t *testing.T) {
		var captured *stripe.RefundParams
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			if method == "POST" && path == "/v1/refunds" {
				captured = params.(*stripe.RefundParams)
				return json.Marshal(&stripe.Refund{ID: "re_1", Status: stripe.RefundStatusSucceeded, Amount: 22950})
			}
			return nil, fmt.Errorf("unexpected call: %s %s", method, path)
		})

		res, err := g.Refund(context.Background(), payment.RefundInput{
			PaymentIntentID: "pi_123",
			Reason:          "all items rejected",
			IdempotencyKey:  "refund-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "re_1", res.ID)
		assert.Equal(t, "succeeded", res.Status)
		assert.Equal(t, int64(22950), res.Amount)

		require.NotNil(t, captured)
		assert.Equal(t, "pi_123", *captured.PaymentIntent)
		assert.Nil(t, captured.Amount)
		assert.Equal(t, "all items rejected", captured.Metadata["reason"])
	})

	t.Run("partial refund sends amount", func(t *testing.T) {
		var captured *stripe.RefundParams
		setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			captured = params.(*stripe.RefundParams)
			return json.Marshal(&stripe.Refund{ID: "re_2", Status: stripe.RefundStatusPending, Amount: 8000})
		})

		_, err := g.Refund(context.Background(), payment.RefundInput{PaymentIntentID: "pi_123", Amount: valueobject.MustUSD("80")})
		require.NoError(t, err)
		require.NotNil(t, captured.Amount)
		assert.Equal(t, int64(8000), *captured.Amount)
	})

	t.Run("missing payment intent", func(t *testing.T) {
		_, err := g.Refund(context.Background(), payment.RefundInput{})
		assert.ErrorIs(t, err, payment.ErrNothingToRefund)
	})
}

func signedPayload(t *testing.T, secret string, body map[string]any) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   raw,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestParseWebhook(t *testing.T) {
	g := newTestGateway(t)
	orderID := uuid.New()

	t.Run("checkout session completed", func(t *testing.T) {
		payload, sig := signedPayload(t, testWebhookSecret, map[string]any{
			"id":          "evt_1",
			"object":      "event",
			"type":        "checkout.session.completed",
			"created":     1760000000,
			"api_version": "2024-09-30.acacia",
			"data": map[string]any{"object": map[string]any{
				"id":                  "cs_test_1",
				"object":              "checkout.session",
				"payment_status":      "paid",
				"payment_intent":      "pi_123",
				"client_reference_id": "LM-2026-00001",
				"metadata":            map[string]string{"order_id": orderID.String()},
			}},
		})

		ev, err := g.ParseWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, payment.EventCheckoutSessionCompleted, ev.Type)
		assert.Equal(t, "cs_test_1", ev.SessionID)
		assert.Equal(t, "paid", ev.PaymentStatus)
		assert.Equal(t, "pi_123", ev.PaymentIntentID)
		assert.Equal(t, orderID, ev.OrderID)
		assert.Equal(t, "LM-2026-00001", ev.OrderNumber)
	})

	t.Run("charge refunded", func(t *testing.T) {
		payload, sig := signedPayload(t, testWebhookSecret, map[string]any{
			"id":          "evt_2",
			"object":      "event",
			"type":        "charge.refunded",
			"created":     1760000000,
			"api_version": "2024-09-30.acacia",
			"data": map[string]any{"object": map[string]any{
				"id":              "ch_1",
				"object":          "charge",
				"payment_intent":  "pi_123",
				"amount_refunded": 22950,
				"refunded":        true,
				"metadata":        map[string]string{"order_id": orderID.String()},
			}},
		})

		ev, err := g.ParseWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, "pi_123", ev.PaymentIntentID)
		assert.Equal(t, int64(22950), ev.AmountRefunded)
		assert.True(t, ev.FullyRefunded)
		assert.Equal(t, orderID, ev.OrderID)
	})

	t.Run("unhandled type passes through", func(t *testing.T) {
		payload, sig := signedPayload(t, testWebhookSecret, map[string]any{
			"id": "evt_3", "object": "event", "type": "customer.created", "created": 1760000000,
			"data": map[string]any{"object": map[string]any{"id": "cus_1"}},
		})

		ev, err := g.ParseWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, "customer.created", ev.Type)
		assert.Empty(t, ev.SessionID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		payload, sig := signedPayload(t, "whsec_other", map[string]any{"id": "evt_4", "object": "event", "type": "charge.refunded"})

		_, err := g.ParseWebhook(payload, sig)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		_, err := g.ParseWebhook([]byte(`{}`), "")
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category payment.ErrorCategory
		code     string
	}{
		{"card declined", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, HTTPStatusCode: 402}, payment.CategoryUserActionRequired, "card_declined"},
		{"expired card", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeExpiredCard, HTTPStatusCode: 402}, payment.CategoryUserActionRequired, "expired_card"},
		{"insufficient funds decline", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, DeclineCode: "insufficient_funds", HTTPStatusCode: 402}, payment.CategoryUserActionRequired, "card_declined"},
		{"fraudulent decline", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, DeclineCode: "fraudulent", HTTPStatusCode: 402}, payment.CategoryContactSupport, "card_declined"},
		{"stolen card decline", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, DeclineCode: "stolen_card", HTTPStatusCode: 402}, payment.CategoryContactSupport, "card_declined"},
		{"call issuer", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, DeclineCode: "call_issuer", HTTPStatusCode: 402}, payment.CategoryUserActionRequired, "card_declined"},
		{"processing error", &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeProcessingError, HTTPStatusCode: 402}, payment.CategoryRetryRecommended, "processing_error"},
		{"rate limited", &stripe.Error{Code: stripe.ErrorCodeRateLimit, HTTPStatusCode: 429}, payment.CategoryRetryRecommended, "rate_limit"},
		{"stripe outage", &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: 502}, payment.CategoryRetryRecommended, "api_error"},
		{"bad api key", &stripe.Error{Type: "authentication_error", HTTPStatusCode: 401}, payment.CategorySystemIssue, "authentication_error"},
		{"invalid request", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Code: "parameter_invalid_integer", HTTPStatusCode: 400}, payment.CategorySystemIssue, "parameter_invalid_integer"},
		{"deadline", context.DeadlineExceeded, payment.CategoryRetryRecommended, ""},
		{"network timeout", timeoutErr{}, payment.CategoryRetryRecommended, ""},
		{"unknown", errors.New("boom"), payment.CategoryContactSupport, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ClassifyError(tt.err)
			require.NotNil(t, pe)
			assert.Equal(t, tt.category, pe.Category)
			if tt.code != "" {
				assert.Equal(t, tt.code, pe.Code)
			}
			assert.NotEmpty(t, pe.UserMessage())
		})
	}

	t.Run("passes through classified errors", func(t *testing.T) {
		orig := payment.NewError(payment.CategorySystemIssue, "x", "y", nil)
		assert.Same(t, orig, ClassifyError(fmt.Errorf("wrapped: %w", orig)))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ClassifyError(nil))
	})
}
