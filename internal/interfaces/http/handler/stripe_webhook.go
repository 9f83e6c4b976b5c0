package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/linkmarket/backend/internal/application/payment"
	"github.com/linkmarket/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Maximum webhook payload size (64KB - Stripe webhooks are typically small)
const maxWebhookPayloadSize = 65536

// WebhookProcessor verifies and applies gateway notifications
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*paymentapp.WebhookResult, error)
}

// StripeWebhookHandler handles Stripe webhook endpoints.
// These endpoints are called by Stripe and do not require authentication.
type StripeWebhookHandler struct {
	BaseHandler
	webhooks WebhookProcessor
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(webhooks WebhookProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{webhooks: webhooks}
}

// StripeWebhookResponse represents the response for Stripe webhook
//
//	@Description	Stripe webhook response
type StripeWebhookResponse struct {
	Received  bool   `json:"received" example:"true"`
	EventID   string `json:"event_id,omitempty" example:"evt_1234567890"`
	EventType string `json:"event_type,omitempty" example:"checkout.session.completed"`
	Processed bool   `json:"processed" example:"true"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty" example:"Order marked paid"`
}

// Handle godoc
//
//	@ID				handleStripeWebhook
//	@Summary		Handle Stripe webhook
//	@Description	Receive checkout session, payment intent and refund events from Stripe
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string					true	"Stripe webhook signature"
//	@Success		200					{object}	StripeWebhookResponse	"Webhook received"
//	@Failure		400					{object}	StripeWebhookResponse	"Invalid request"
//	@Failure		401					{object}	StripeWebhookResponse	"Invalid signature"
//	@Failure		413					{object}	StripeWebhookResponse	"Payload too large"
//	@Router			/webhooks/stripe [post]
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	// Stripe requires the raw body for signature verification
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, StripeWebhookResponse{Message: "Failed to read request body"})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, StripeWebhookResponse{Message: "Payload too large"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, StripeWebhookResponse{Message: "Missing Stripe-Signature header"})
		return
	}

	result, err := h.webhooks.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		if paymentapp.IsSignatureError(err) {
			c.JSON(http.StatusUnauthorized, StripeWebhookResponse{Message: "Webhook signature verification failed"})
			return
		}
		// Retrying will not help; acknowledge so Stripe stops redelivering
		logger.GetGinLogger(c).Error("Webhook processing failed", zap.Error(err))
		c.JSON(http.StatusOK, StripeWebhookResponse{Received: true, Message: "Webhook received"})
		return
	}

	c.JSON(http.StatusOK, StripeWebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Processed: result.Processed,
		Duplicate: result.Duplicate,
		Message:   result.Message,
	})
}
