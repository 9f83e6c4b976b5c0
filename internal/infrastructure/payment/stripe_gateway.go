// Package payment adapts Stripe to the payment gateway port.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeGateway implements payment.Gateway with Stripe Checkout
type StripeGateway struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeGateway validates the configuration and initialises the Stripe client
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.InitStripeClient()
	return &StripeGateway{config: config, logger: logger}, nil
}

var _ payment.Gateway = (*StripeGateway)(nil)

// CreateCheckoutSession creates a hosted payment page in payment mode
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, input payment.CheckoutSessionInput) (*payment.CheckoutSession, error) {
	if len(input.LineItems) == 0 {
		return nil, payment.NewError(payment.CategorySystemIssue, "no_line_items", "Checkout session needs at least one line item", nil)
	}

	currency := strings.ToLower(string(input.Currency))
	if currency == "" {
		currency = g.config.Currency
	}

	metadata := map[string]string{
		"order_id":     input.OrderID.String(),
		"order_number": input.OrderNumber,
		"buyer_id":     input.BuyerID.String(),
	}
	maps.Copy(metadata, input.ExtraMetadata)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(input.SuccessURL),
		CancelURL:         stripe.String(input.CancelURL),
		ClientReferenceID: stripe.String(input.OrderNumber),
		Metadata:          metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}

	expiresAfter := input.ExpiresAfter
	if expiresAfter <= 0 {
		expiresAfter = g.config.SessionExpiry
	}
	if expiresAfter > 0 {
		params.ExpiresAt = stripe.Int64(time.Now().Add(expiresAfter).Unix())
	}

	for _, li := range input.LineItems {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(li.Amount.Cents()),
				ProductData: product,
			},
			Quantity: stripe.Int64(qty),
		})
	}

	params.Context = ctx
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	g.logger.Debug("Creating Stripe checkout session",
		zap.String("order_id", input.OrderID.String()),
		zap.Int("line_items", len(params.LineItems)))

	s, err := session.New(params)
	if err != nil {
		pe := ClassifyError(err)
		g.logger.Error("Failed to create Stripe checkout session",
			zap.String("order_id", input.OrderID.String()),
			zap.String("category", pe.Category.String()),
			zap.String("code", pe.Code),
			zap.Error(err))
		return nil, pe
	}

	g.logger.Info("Created Stripe checkout session",
		zap.String("order_id", input.OrderID.String()),
		zap.String("session_id", s.ID))
	return mapCheckoutSession(s), nil
}

// GetCheckoutSession retrieves a session
func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == 404 {
			return nil, payment.ErrSessionNotFound
		}
		return nil, ClassifyError(err)
	}
	return mapCheckoutSession(s), nil
}

// ExpireCheckoutSession closes an open session; an already closed session is not an error
func (g *StripeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	_, err := session.Expire(sessionID, params)
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeInvalidRequest {
		// Stripe refuses to expire sessions that are complete or already expired
		g.logger.Debug("Checkout session not expirable", zap.String("session_id", sessionID), zap.String("message", se.Msg))
		return nil
	}
	return ClassifyError(err)
}

// Refund refunds a payment intent fully or partially
func (g *StripeGateway) Refund(ctx context.Context, input payment.RefundInput) (*payment.RefundResult, error) {
	if input.PaymentIntentID == "" {
		return nil, payment.ErrNothingToRefund
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(input.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
		Metadata:      input.Metadata,
	}
	if !input.Amount.IsZero() {
		params.Amount = stripe.Int64(input.Amount.Cents())
	}
	if input.Reason != "" {
		if params.Metadata == nil {
			params.Metadata = map[string]string{}
		}
		params.Metadata["reason"] = input.Reason
	}
	params.Context = ctx
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	r, err := refund.New(params)
	if err != nil {
		pe := ClassifyError(err)
		g.logger.Error("Failed to refund payment",
			zap.String("payment_intent_id", input.PaymentIntentID),
			zap.String("category", pe.Category.String()),
			zap.Error(err))
		return nil, pe
	}

	g.logger.Info("Refunded payment",
		zap.String("payment_intent_id", input.PaymentIntentID),
		zap.String("refund_id", r.ID),
		zap.Int64("amount", r.Amount))
	return &payment.RefundResult{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

// ParseWebhook verifies the Stripe-Signature header and reduces the event to what the order flow needs
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature == "" {
		return nil, payment.ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case payment.EventCheckoutSessionCompleted,
		payment.EventCheckoutSessionAsyncSucceeded,
		payment.EventCheckoutSessionAsyncFailed,
		payment.EventCheckoutSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.SessionID = s.ID
		out.PaymentStatus = string(s.PaymentStatus)
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}
		out.OrderNumber = s.Metadata["order_number"]
		if out.OrderNumber == "" {
			out.OrderNumber = s.ClientReferenceID
		}
		if id, err := uuid.Parse(s.Metadata["order_id"]); err == nil {
			out.OrderID = id
		}

	case payment.EventChargeRefunded:
		var c stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &c); err != nil {
			return nil, fmt.Errorf("failed to decode charge: %w", err)
		}
		if c.PaymentIntent != nil {
			out.PaymentIntentID = c.PaymentIntent.ID
		}
		out.AmountRefunded = c.AmountRefunded
		out.FullyRefunded = c.Refunded
		if id, err := uuid.Parse(c.Metadata["order_id"]); err == nil {
			out.OrderID = id
		}
	}
	return out, nil
}

func mapCheckoutSession(s *stripe.CheckoutSession) *payment.CheckoutSession {
	out := &payment.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        payment.SessionStatus(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
